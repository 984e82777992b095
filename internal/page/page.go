package page

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitetree/internal/descriptor"
	"git.home.luguber.info/inful/sitetree/internal/foundation"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/markdown"
	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/pathconv"
)

// Page is one content directory identified by its descriptor file.
type Page struct {
	// DiskPath is the absolute path of the descriptor file.
	DiskPath string

	reg *Registry
}

// Asset is a plain file exposed to templates and copied by the exporter.
type Asset struct {
	Name     string `json:"name" yaml:"name"`
	Path     string `json:"path" yaml:"path"`
	DiskPath string `json:"disk_path" yaml:"disk_path"`
}

// Dir returns the page directory.
func (p *Page) Dir() string { return filepath.Dir(p.DiskPath) }

// Permalink returns the page's web path, e.g. "/about/team/".
func (p *Page) Permalink() string {
	return pathconv.DiskPathToPermalink(p.reg.root, p.Dir())
}

func (p *Page) String() string { return p.Permalink() }

// Slug returns the last permalink segment.
func (p *Page) Slug() string { return pathconv.SlugOf(p.Permalink()) }

// Name returns a display name derived from the slug.
func (p *Page) Name() string { return pathconv.NameOf(p.Slug()) }

// IsFloating reports whether the page directory has no ordering prefix.
func (p *Page) IsFloating() bool { return pathconv.IsFloating(p.Dir()) }

// TemplateName is the descriptor basename without its extension.
func (p *Page) TemplateName() string {
	base := filepath.Base(p.DiskPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WritePath is the output path for nested export.
func (p *Page) WritePath() string { return p.Permalink() + "index.html" }

// FlatWritePath is the output path for flat export.
func (p *Page) FlatWritePath() string {
	return strings.TrimSuffix(p.Permalink(), "/") + ".html"
}

// Equal reports whether both pages share a permalink.
func (p *Page) Equal(other *Page) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Permalink() == other.Permalink()
}

// UpdatedAt returns the descriptor modification time.
func (p *Page) UpdatedAt() (time.Time, error) {
	fi, err := os.Stat(p.DiskPath)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

// CreatedAt returns the descriptor status-change time where the platform
// exposes one, and the modification time otherwise.
func (p *Page) CreatedAt() (time.Time, error) {
	fi, err := os.Stat(p.DiskPath)
	if err != nil {
		return time.Time{}, err
	}
	return changeTime(fi), nil
}

// Parent resolves the page one permalink segment up. Root-level pages and
// pages whose parent directory has no descriptor have none.
func (p *Page) Parent() (foundation.Option[*Page], error) {
	parentLink, ok := pathconv.ParentPermalink(p.Permalink()).Get()
	if !ok {
		return foundation.None[*Page](), nil
	}
	parent, err := p.reg.Lookup(parentLink)
	if err != nil {
		return foundation.None[*Page](), err
	}
	return parent.Filter(func(candidate *Page) bool { return !candidate.Equal(p) }), nil
}

// Siblings returns the pages next to this one, excluding itself. A page
// stored in the content root itself has no siblings.
func (p *Page) Siblings() ([]*Page, error) {
	return p.siblings(p.reg.All)
}

// Children returns the non-floating pages directly below this one, sorted by
// disk path. The sort is plain string order, so "10.x" precedes "2.x".
func (p *Page) Children() ([]*Page, error) {
	return p.children(p.reg.All)
}

// Ancestors returns the pages above this one, root first. Intermediate
// directories without a descriptor are skipped.
func (p *Page) Ancestors() ([]*Page, error) {
	links := pathconv.AncestorPermalinks(p.Permalink())
	out := make([]*Page, 0, len(links))
	for i := len(links) - 1; i >= 0; i-- {
		anc, err := p.reg.Lookup(links[i])
		if err != nil {
			return nil, err
		}
		if a, ok := anc.Get(); ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type scanFunc func(dir string, depth Depth) ([]*Page, error)

func (p *Page) siblings(scan scanFunc) ([]*Page, error) {
	if p.Dir() == p.reg.root {
		return nil, nil
	}
	all, err := scan(filepath.Dir(p.Dir()), DepthOne)
	if err != nil {
		return nil, err
	}
	out := make([]*Page, 0, len(all))
	for _, s := range all {
		if !s.Equal(p) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *Page) children(scan scanFunc) ([]*Page, error) {
	all, err := scan(p.Dir(), DepthOne)
	if err != nil {
		return nil, err
	}
	out := make([]*Page, 0, len(all))
	for _, c := range all {
		if !c.IsFloating() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DiskPath < out[j].DiskPath })
	return out, nil
}

// Assets lists every non-descriptor file below the page directory, child
// page directories included, sorted by path. Hidden files are skipped.
func (p *Page) Assets() ([]Asset, error) {
	p.reg.recorder.IncDiskScan(metrics.ScanAssets)
	dir := p.Dir()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && !pathconv.IsDescriptor(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, scanFailed(dir, err)
	}
	sort.Strings(files)
	out := make([]Asset, 0, len(files))
	for _, f := range files {
		out = append(out, p.reg.asset(f))
	}
	return out, nil
}

// DiskAssets maps each immediate subdirectory without a descriptor to the
// regular files directly inside it.
func (p *Page) DiskAssets() (map[string][]Asset, error) {
	p.reg.recorder.IncDiskScan(metrics.ScanDiskAssets)
	entries, err := os.ReadDir(p.Dir())
	if err != nil {
		return nil, scanFailed(p.Dir(), err)
	}
	buckets := make(map[string][]Asset)
	for _, e := range entries {
		if !e.IsDir() || hidden(e.Name()) {
			continue
		}
		bucketDir := filepath.Join(p.Dir(), e.Name())
		inner, err := os.ReadDir(bucketDir)
		if err != nil {
			return nil, scanFailed(bucketDir, err)
		}
		if containsDescriptor(inner) {
			continue
		}
		files := make([]Asset, 0, len(inner))
		for _, f := range inner {
			if f.Type().IsRegular() && !hidden(f.Name()) {
				files = append(files, p.reg.asset(filepath.Join(bucketDir, f.Name())))
			}
		}
		buckets[e.Name()] = files
	}
	return buckets, nil
}

// Content parses the descriptor. It reads the file on every call.
func (p *Page) Content() (map[string]any, error) {
	fields, _, err := p.readContent()
	return fields, err
}

// Source returns the raw descriptor bytes.
func (p *Page) Source() ([]byte, error) {
	// #nosec G304 -- DiskPath comes from a scan of the content root
	data, err := os.ReadFile(p.DiskPath)
	if err != nil {
		return nil, ferrors.FileSystemError("read descriptor").WithCause(err).WithContext("path", p.DiskPath).Build()
	}
	return data, nil
}

func (p *Page) readContent() (map[string]any, []byte, error) {
	data, err := p.Source()
	if err != nil {
		return nil, nil, err
	}
	fields, err := descriptor.Parse(data)
	if err != nil {
		return nil, data, contentFormat(p.Permalink(), p.DiskPath, err)
	}
	return fields, data, nil
}

// FormattedContent is Content with every multi-line string rendered as
// Markdown. Single-line strings and other values are left untouched.
func (p *Page) FormattedContent(md markdown.Converter) (map[string]any, error) {
	fields, err := p.Content()
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		s, ok := v.(string)
		if !ok || !strings.Contains(s, "\n") {
			continue
		}
		html, err := md.Convert(s)
		if err != nil {
			return nil, fmt.Errorf("format %q of %s: %w", k, p.Permalink(), err)
		}
		fields[k] = html
	}
	return fields, nil
}

func (r *Registry) asset(file string) Asset {
	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}
	return Asset{
		Name:     pathconv.TitleOf(file),
		Path:     pathconv.AssetPath(r.root, file),
		DiskPath: file,
	}
}

func containsDescriptor(entries []fs.DirEntry) bool {
	for _, e := range entries {
		if !e.IsDir() && pathconv.IsDescriptor(e.Name()) {
			return true
		}
	}
	return false
}
