package page

import (
	"maps"
	"path/filepath"

	"git.home.luguber.info/inful/sitetree/internal/markdown"
)

// Environment carries the inputs a render context takes from outside the page.
type Environment struct {
	// Site holds site-wide globals. They override every other key.
	Site map[string]any
	// Navigation is inserted verbatim under "navigation".
	Navigation any
	// Markdown formats multi-line content values; nil means markdown.Default().
	Markdown markdown.Converter
	// Scans shares directory scans between renders of one pass. When nil,
	// each RenderContext call uses its own memo.
	Scans *ScanMemo
}

// RenderContext assembles the flat map handed to templates. Later layers win:
// structural fields, then formatted content, then disk asset buckets, then
// site globals.
func (p *Page) RenderContext(env Environment) (map[string]any, error) {
	md := env.Markdown
	if md == nil {
		md = markdown.Default()
	}
	scans := env.Scans
	if scans == nil || scans.reg != p.reg {
		scans = NewScanMemo(p.reg)
	}

	children, err := scans.Children(p)
	if err != nil {
		return nil, err
	}
	siblings, err := scans.Siblings(p)
	if err != nil {
		return nil, err
	}
	parentOpt, err := p.Parent()
	if err != nil {
		return nil, err
	}
	var parent any
	if pp, ok := parentOpt.Get(); ok {
		parent = pp
	}
	ancestors, err := p.Ancestors()
	if err != nil {
		return nil, err
	}
	updated, err := p.UpdatedAt()
	if err != nil {
		return nil, scanFailed(p.DiskPath, err)
	}
	created, err := p.CreatedAt()
	if err != nil {
		return nil, scanFailed(p.DiskPath, err)
	}

	ctx := map[string]any{
		"slug":       p.Slug(),
		"permalink":  p.Permalink(),
		"name":       p.Name(),
		"children":   children,
		"siblings":   siblings,
		"parent":     parent,
		"ancestors":  ancestors,
		"navigation": env.Navigation,
		"updated_at": updated,
		"created_at": created,
	}

	content, err := p.FormattedContent(md)
	if err != nil {
		return nil, err
	}
	maps.Copy(ctx, content)

	buckets, err := p.DiskAssets()
	if err != nil {
		return nil, err
	}
	for name, files := range buckets {
		ctx[name] = files
	}

	maps.Copy(ctx, env.Site)
	return ctx, nil
}

// ScanMemo shares All results across one generation pass, so the children
// scan of a parent also answers the siblings scan of each of its children.
// Results are never refreshed; start a new memo for the next pass. Returned
// slices are shared and must not be modified.
type ScanMemo struct {
	reg   *Registry
	cache map[scanKey][]*Page
}

type scanKey struct {
	dir   string
	depth Depth
}

// NewScanMemo returns an empty memo over reg.
func NewScanMemo(reg *Registry) *ScanMemo {
	return &ScanMemo{reg: reg, cache: make(map[scanKey][]*Page)}
}

// Registry returns the registry the memo scans.
func (m *ScanMemo) Registry() *Registry { return m.reg }

// All is Registry.All, answered from the memo after the first call for a
// directory and depth.
func (m *ScanMemo) All(dir string, depth Depth) ([]*Page, error) {
	key := scanKey{dir: filepath.Clean(dir), depth: depth}
	if pages, ok := m.cache[key]; ok {
		return pages, nil
	}
	pages, err := m.reg.All(key.dir, depth)
	if err != nil {
		return nil, err
	}
	m.cache[key] = pages
	return pages, nil
}

// Children is Page.Children through the memo.
func (m *ScanMemo) Children(p *Page) ([]*Page, error) { return p.children(m.All) }

// Siblings is Page.Siblings through the memo.
func (m *ScanMemo) Siblings(p *Page) ([]*Page, error) { return p.siblings(m.All) }
