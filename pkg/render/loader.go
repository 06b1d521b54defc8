package render

import (
	"io"
	"strings"

	"github.com/arthur-debert/slack-send/pkg/resolver"
)

type cached struct {
	src  *resolver.Source
	scan *Scan
}

// loader plugs a resolver into pongo2 as a TemplateLoader. It keeps the
// sources it resolved and reuses them until the resolver reports them
// stale, and records what every render touched.
type loader struct {
	resolver resolver.Resolver
	cache    map[string]*cached

	// per render
	requested map[string]string
	failed    error
	scans     map[string]*Scan
}

func newLoader(r resolver.Resolver) *loader {
	return &loader{
		resolver: r,
		cache:    make(map[string]*cached),
	}
}

func (l *loader) begin() {
	l.requested = make(map[string]string)
	l.failed = nil
	l.scans = make(map[string]*Scan)
}

// Abs ignores base: includes resolve against the search roots, not
// against the including template.
func (l *loader) Abs(base, name string) string {
	normalized := resolver.Normalize(name)
	if _, ok := l.requested[normalized]; !ok {
		l.requested[normalized] = name
	}
	return normalized
}

func (l *loader) Get(path string) (io.Reader, error) {
	key := resolver.Normalize(path)
	if entry, ok := l.cache[key]; ok && !l.resolver.IsStale(entry.src) {
		l.scans[key] = entry.scan
		return strings.NewReader(entry.src.Content), nil
	}

	requested, ok := l.requested[key]
	if !ok {
		requested = path
	}
	src, err := l.resolver.Resolve(requested)
	if err != nil {
		// pongo2 replaces loader errors with its own message
		if l.failed == nil {
			l.failed = err
		}
		return nil, err
	}

	entry := &cached{src: src, scan: ScanReferences(src.Name, src.Content)}
	l.cache[key] = entry
	l.scans[key] = entry.scan
	return strings.NewReader(src.Content), nil
}
