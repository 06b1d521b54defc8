// Package resolver locates template files by relative name across an ordered
// list of search roots. It is a small virtual filesystem: the FS
// implementation reads through afero, so templates can come from disk, from
// memory in tests, or from any other afero backend.
package resolver

import (
	stderrors "errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/slack-send/pkg/errors"
	"github.com/arthur-debert/slack-send/pkg/logging"
	"github.com/spf13/afero"
)

// Source is a resolved template.
type Source struct {
	// Name is the normalized relative name the template was resolved by.
	Name string
	// Path is the file the name resolved to.
	Path    string
	Content string
	ModTime time.Time
}

// Resolver finds templates and reports whether a resolved template changed
// on its backend since it was read.
type Resolver interface {
	Resolve(name string) (*Source, error)
	IsStale(src *Source) bool
}

// FS resolves names against search roots on an afero filesystem.
type FS struct {
	fs    afero.Fs
	roots []string
}

// New returns a resolver over fsys searching roots in order. A nil fsys
// means the OS filesystem.
func New(fsys afero.Fs, roots ...string) *FS {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FS{fs: fsys, roots: roots}
}

// Roots returns the search roots in lookup order.
func (r *FS) Roots() []string {
	return append([]string(nil), r.roots...)
}

// Normalize splits name on '/', drops empty and '.' segments and joins the
// rest back. '..' segments are kept and resolved by the filesystem.
func Normalize(name string) string {
	var pieces []string
	for _, piece := range strings.Split(name, "/") {
		if piece != "" && piece != "." {
			pieces = append(pieces, piece)
		}
	}
	return strings.Join(pieces, "/")
}

// Resolve returns the first file named name under the search roots. The
// returned error is TEMPLATE_NOT_FOUND naming name as given.
func (r *FS) Resolve(name string) (*Source, error) {
	logger := logging.GetLogger("resolver")
	normalized := Normalize(name)
	if normalized == "" {
		return nil, errors.TemplateNotFound(name)
	}

	for _, root := range r.roots {
		filename := filepath.Join(root, filepath.FromSlash(normalized))
		content, info, err := r.read(filename)
		if err != nil {
			logger.Trace().Err(err).Str("path", filename).Msg("template candidate skipped")
			continue
		}

		logger.Debug().
			Str("template", name).
			Str("path", filename).
			Msg("resolved template")
		return &Source{
			Name:    normalized,
			Path:    filename,
			Content: content,
			ModTime: info.ModTime(),
		}, nil
	}

	return nil, errors.TemplateNotFound(name).WithDetail("roots", r.Roots())
}

// read opens, stats and reads filename, closing it on every path.
func (r *FS) read(filename string) (string, fs.FileInfo, error) {
	f, err := r.fs.Open(filename)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() {
		return "", nil, &fs.PathError{Op: "read", Path: filename, Err: stderrors.New("is a directory")}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return string(data), info, nil
}

// IsStale reports whether src's file changed since it was resolved. A file
// that can no longer be stat'ed counts as stale.
func (r *FS) IsStale(src *Source) bool {
	if src == nil {
		return true
	}
	info, err := r.fs.Stat(src.Path)
	if err != nil {
		return true
	}
	return !info.ModTime().Equal(src.ModTime)
}
