// Package navigation builds the site-wide navigation tree handed to every
// render context.
package navigation

import (
	"sort"

	"git.home.luguber.info/inful/sitetree/internal/page"
)

// IndexSlug is the slug of the home page, which navigation leaves out.
const IndexSlug = "index"

// Item is one navigation entry.
type Item struct {
	Name      string `json:"name" yaml:"name"`
	Permalink string `json:"permalink" yaml:"permalink"`
	Children  []Item `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tree lists the top-level ordered pages of the content root, each with its
// ordered children. Scans go through the memo so later renders of the same
// pass reuse them.
func Tree(scans *page.ScanMemo) ([]Item, error) {
	top, err := scans.All(scans.Registry().Root(), page.DepthOne)
	if err != nil {
		return nil, err
	}
	top = ordered(top)

	items := make([]Item, 0, len(top))
	for _, p := range top {
		if p.Slug() == IndexSlug {
			continue
		}
		children, err := scans.Children(p)
		if err != nil {
			return nil, err
		}
		item := Item{Name: p.Name(), Permalink: p.Permalink()}
		for _, c := range children {
			item.Children = append(item.Children, Item{Name: c.Name(), Permalink: c.Permalink()})
		}
		items = append(items, item)
	}
	return items, nil
}

func ordered(pages []*page.Page) []*page.Page {
	out := make([]*page.Page, 0, len(pages))
	for _, p := range pages {
		if !p.IsFloating() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DiskPath < out[j].DiskPath })
	return out
}
