package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitetree/internal/source"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Output     string `short:"o" name:"output" help:"Output directory (overrides output.directory)"`
	Flat       bool   `name:"flat" help:"Write pages as <permalink>.html instead of nested index.html files"`
	CheckLinks bool   `name:"check-links" help:"Verify internal links after publishing"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if p.Output != "" {
		cfg.Output.Directory = p.Output
	}
	cfg.Output.Flat = cfg.Output.Flat || p.Flat
	cfg.Output.CheckLinks = cfg.Output.CheckLinks || p.CheckLinks

	ctx, cancel := signalContext()
	defer cancel()

	contentRoot, err := source.New(cfg.Content).Sync(ctx)
	if err != nil {
		return err
	}
	rt, err := openRuntime(cfg, g.Version)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	report, err := rt.exporter(contentRoot).Publish(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Published %d pages and %d assets to %s in %s (build %s)\n",
		len(report.Pages), report.Assets, report.Output, report.Duration.Round(time.Millisecond), report.BuildID)
	for _, b := range report.BrokenLinks {
		_, _ = fmt.Fprintf(g.Out, "broken link: %s -> %s\n", b.Source, b.URL)
	}
	return nil
}
