// Package render turns a message template plus variables into text.
//
// Templates use pongo2's Django/Jinja syntax: {{ var }}, {% if %},
// {% for %}, filters and {% include %}/{% import %}/{% extends %}. Included
// files resolve against the root template's directory first, then against
// any extra search roots. Undefined variables render as empty strings and
// are reported to an UndefinedPolicy.
package render

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/arthur-debert/slack-send/pkg/errors"
	"github.com/arthur-debert/slack-send/pkg/logging"
	"github.com/arthur-debert/slack-send/pkg/resolver"
	"github.com/arthur-debert/slack-send/pkg/vars"
	"github.com/flosch/pongo2/v6"
	"github.com/spf13/afero"
)

// pongo2 rejects contexts holding keys that are not identifiers
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func init() {
	// payloads are JSON, not HTML
	pongo2.SetAutoescape(false)

	if !pongo2.FilterExists("tojson") {
		_ = pongo2.RegisterFilter("tojson", filterToJSON)
	}
}

func filterToJSON(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	data, err := json.Marshal(in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:tojson", OrigError: err}
	}
	return pongo2.AsSafeValue(string(data)), nil
}

// Template is a root template file and the directory its includes resolve
// against.
type Template struct {
	Path    string
	BaseDir string
}

// NewTemplate returns the Template for path. BaseDir is the parent
// directory of path with symlinks resolved, so a linked template includes
// files next to its target. Paths that do not exist on disk (in-memory
// templates) keep their absolute form.
func NewTemplate(path string) (Template, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Template{}, errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve %s", path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return Template{Path: path, BaseDir: filepath.Dir(abs)}, nil
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFs reads templates from fsys instead of the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(r *Renderer) {
		r.fs = fsys
	}
}

// WithSearchRoots adds directories searched after the template's own
// directory when resolving includes.
func WithSearchRoots(roots ...string) Option {
	return func(r *Renderer) {
		r.searchRoots = append(r.searchRoots, roots...)
	}
}

// WithUndefinedPolicy replaces the default LogUndefined policy.
func WithUndefinedPolicy(policy UndefinedPolicy) Option {
	return func(r *Renderer) {
		if policy != nil {
			r.policy = policy
		}
	}
}

// WithResolver makes every render resolve includes through res instead of
// a filesystem resolver rooted at the template directory.
func WithResolver(res resolver.Resolver) Option {
	return func(r *Renderer) {
		r.resolver = res
	}
}

// Renderer renders templates. Resolved includes are cached across renders
// and re-read once the resolver reports them stale. Renders are serialized.
type Renderer struct {
	mu sync.Mutex

	fs          afero.Fs
	searchRoots []string
	policy      UndefinedPolicy
	resolver    resolver.Resolver
	loaders     map[string]*loader
}

// New returns a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		fs:      afero.NewOsFs(),
		policy:  LogUndefined{},
		loaders: make(map[string]*loader),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders the template at path with variables and returns the
// output unstripped.
func (r *Renderer) Render(path string, variables vars.Map) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := logging.GetLogger("render")
	done := logging.LogOperationStart(logger, "render")
	defer done()

	tpl, err := NewTemplate(path)
	if err != nil {
		return "", err
	}

	content, err := afero.ReadFile(r.fs, tpl.Path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", errors.FileNotFound(tpl.Path, err)
		}
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot read template %s", tpl.Path).
			WithDetail("path", tpl.Path)
	}

	l := r.loaderFor(tpl)
	l.begin()
	root := ScanReferences(tpl.Path, string(content))

	set := pongo2.NewSet("slack-send", l)
	compiled, err := set.FromString(string(content))
	if err != nil {
		return "", r.translate(tpl, l, err)
	}

	out, err := compiled.Execute(contextFor(variables))
	if err != nil {
		return "", r.translate(tpl, l, err)
	}

	if err := r.checkUndefined(root, l.scans, variables); err != nil {
		return "", err
	}

	logger.Debug().
		Str("template", tpl.Path).
		Int("bytes", len(out)).
		Msg("rendered template")
	return out, nil
}

func (r *Renderer) loaderFor(tpl Template) *loader {
	key := tpl.BaseDir
	if l, ok := r.loaders[key]; ok {
		return l
	}

	res := r.resolver
	if res == nil {
		roots := append([]string{tpl.BaseDir}, r.searchRoots...)
		res = resolver.New(r.fs, roots...)
	}
	l := newLoader(res)
	r.loaders[key] = l
	return l
}

// translate maps an engine error to a coded error. A failed include wins
// over the engine's own message because pongo2 drops the loader's error.
func (r *Renderer) translate(tpl Template, l *loader, err error) error {
	if l.failed != nil {
		return l.failed
	}
	return errors.Wrapf(err, errors.ErrTemplateSyntax, "cannot render %s", tpl.Path).
		WithDetail("path", tpl.Path)
}

// checkUndefined reports every free reference that no variable satisfies.
// Each template is checked against its own scope: an included template
// also sees the names bound where it was included.
func (r *Renderer) checkUndefined(root *Scan, loaded map[string]*Scan, variables vars.Map) error {
	c := &undefinedCheck{
		variables: variables,
		loaded:    loaded,
		visited:   make(map[string]bool),
		reached:   make(map[*Scan]bool),
		reported:  make(map[string]bool),
		lazyBound: make(map[string]bool),
	}
	c.walk(root, nil)

	// templates pulled in by a computed include name
	names := make([]string, 0, len(loaded))
	for name := range loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if scan := loaded[name]; !c.reached[scan] {
			c.walk(scan, c.lazyBound)
		}
	}

	for _, ref := range c.undefined {
		if err := r.policy.Undefined(ref); err != nil {
			return err
		}
	}
	return nil
}

type undefinedCheck struct {
	variables vars.Map
	loaded    map[string]*Scan

	visited   map[string]bool
	reached   map[*Scan]bool
	reported  map[string]bool
	lazyBound map[string]bool
	undefined []Reference
}

func (c *undefinedCheck) walk(scan *Scan, bound map[string]bool) {
	key := scan.Template + "\x00" + strings.Join(sortedNames(bound), ",")
	if c.visited[key] {
		return
	}
	c.visited[key] = true
	c.reached[scan] = true

	for _, ref := range scan.Refs {
		if bound[ref.Name] || c.variables.Has(ref.Name) || c.reported[ref.Name] {
			continue
		}
		c.reported[ref.Name] = true
		c.undefined = append(c.undefined, ref)
	}

	for _, inc := range scan.Includes {
		inner := inc.Bound
		if !inc.Only {
			inner = make(map[string]bool, len(bound)+len(inc.Bound))
			for name := range bound {
				inner[name] = true
			}
			for name := range inc.Bound {
				inner[name] = true
			}
		}
		if inc.Name == "" {
			for name := range inner {
				c.lazyBound[name] = true
			}
			continue
		}
		if child, ok := c.loaded[resolver.Normalize(inc.Name)]; ok {
			c.walk(child, inner)
		}
	}
}

// contextFor drops variables pongo2 cannot hold. They could not be
// referenced from a template anyway.
func contextFor(variables vars.Map) pongo2.Context {
	ctx := make(pongo2.Context, len(variables))
	var skipped []string
	for k, v := range variables {
		if !identifierPattern.MatchString(k) {
			skipped = append(skipped, k)
			continue
		}
		ctx[k] = v
	}
	if len(skipped) > 0 {
		sort.Strings(skipped)
		logger := logging.GetLogger("render")
		logger.Debug().Strs("variables", skipped).Msg("skipping variables that are not identifiers")
	}
	return ctx
}
