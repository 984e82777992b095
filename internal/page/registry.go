package page

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitetree/internal/foundation"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/pathconv"
)

// Depth selects how far All descends below a directory.
type Depth int

const (
	// DepthAny finds descriptors in subdirectories at any depth.
	DepthAny Depth = iota
	// DepthOne finds descriptors in immediate subdirectories only.
	DepthOne
)

// Option configures a Registry.
type Option func(*Registry)

// WithRecorder sets the metrics recorder used for cache and scan counters.
func WithRecorder(r metrics.Recorder) Option {
	return func(reg *Registry) {
		if r != nil {
			reg.recorder = r
		}
	}
}

// Registry resolves permalinks to pages below a content root and caches the
// result for its lifetime.
type Registry struct {
	root     string
	pages    map[string]*Page
	recorder metrics.Recorder
}

// NewRegistry creates a registry rooted at the content directory root.
func NewRegistry(root string, opts ...Option) *Registry {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	r := &Registry{
		root:     filepath.Clean(root),
		pages:    make(map[string]*Page),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the absolute content root.
func (r *Registry) Root() string { return r.root }

// Len returns the number of cached pages.
func (r *Registry) Len() int { return len(r.pages) }

// Reset drops every cached page.
func (r *Registry) Reset() {
	clear(r.pages)
}

// Find returns the page for permalink. Cached pages are returned as is; on a
// miss the content root is searched and the result cached. When several
// directories match, the first in lexical glob order wins.
func (r *Registry) Find(permalink string) (*Page, error) {
	key := pathconv.Normalize(permalink)
	if p, ok := r.pages[key]; ok {
		r.recorder.IncCacheLookup(true)
		return p, nil
	}
	r.recorder.IncCacheLookup(false)

	p, err := r.search(key)
	if err != nil {
		return nil, err
	}
	r.pages[key] = p
	return p, nil
}

// Lookup is Find for traversal code: a missing page is None with a nil error.
func (r *Registry) Lookup(permalink string) (foundation.Option[*Page], error) {
	p, err := r.Find(permalink)
	if errors.Is(err, ErrPageNotFound) {
		return foundation.None[*Page](), nil
	}
	if err != nil {
		return foundation.None[*Page](), err
	}
	return foundation.Some(p), nil
}

func (r *Registry) search(permalink string) (*Page, error) {
	r.recorder.IncDiskScan(metrics.ScanFind)
	pattern := pathconv.PermalinkToSearchPattern(r.root, permalink)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, scanFailed(pattern, err)
	}
	for _, m := range matches {
		if !isDescriptorFile(m) {
			continue
		}
		if pathconv.MatchesPermalink(r.root, filepath.Dir(m), permalink) {
			slog.Debug("Resolved page", logfields.Permalink(permalink), logfields.Path(m))
			return r.newPage(m), nil
		}
	}
	return nil, notFound(permalink, r.root)
}

// All returns the pages whose descriptors live below dir, in lexical walk
// order. dir itself is not included. All does not touch the cache.
func (r *Registry) All(dir string, depth Depth) ([]*Page, error) {
	r.recorder.IncDiskScan(metrics.ScanAll)
	if depth == DepthOne {
		matches, err := filepath.Glob(filepath.Join(pathconv.QuoteGlob(dir), "*", "*"+pathconv.DescriptorExt))
		if err != nil {
			return nil, scanFailed(dir, err)
		}
		pages := make([]*Page, 0, len(matches))
		for _, m := range matches {
			if isDescriptorFile(m) && !hidden(filepath.Base(filepath.Dir(m))) {
				pages = append(pages, r.newPage(m))
			}
		}
		return pages, nil
	}

	dir = filepath.Clean(dir)
	var pages []*Page
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Dir(path) == dir || !d.Type().IsRegular() || !pathconv.IsDescriptor(d.Name()) {
			return nil
		}
		pages = append(pages, r.newPage(path))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, scanFailed(dir, err)
	}
	return pages, nil
}

func (r *Registry) newPage(descriptor string) *Page {
	if abs, err := filepath.Abs(descriptor); err == nil {
		descriptor = abs
	}
	return &Page{DiskPath: descriptor, reg: r}
}

func isDescriptorFile(path string) bool {
	if !pathconv.IsDescriptor(path) {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
