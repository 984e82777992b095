package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitetree/internal/page"
	"git.home.luguber.info/inful/sitetree/internal/source"
)

// TreeCmd implements the 'tree' command.
type TreeCmd struct{}

func (t *TreeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	reg := page.NewRegistry(source.New(cfg.Content).Root())
	return printTree(g.Out, reg, reg.Root(), 0)
}

// printTree lists ordered pages first, then floating ones, recursing into each.
func printTree(w io.Writer, reg *page.Registry, dir string, depth int) error {
	pages, err := reg.All(dir, page.DepthOne)
	if err != nil {
		return err
	}
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].IsFloating() != pages[j].IsFloating() {
			return !pages[i].IsFloating()
		}
		return pages[i].DiskPath < pages[j].DiskPath
	})
	for _, p := range pages {
		mark := ""
		if p.IsFloating() {
			mark = " [floating]"
		}
		if _, err := fmt.Fprintf(w, "%s%s  %s%s\n", strings.Repeat("  ", depth), p.Name(), p.Permalink(), mark); err != nil {
			return err
		}
		if err := printTree(w, reg, p.Dir(), depth+1); err != nil {
			return err
		}
	}
	return nil
}
