package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/preview"
	"git.home.luguber.info/inful/sitetree/internal/source"
)

// PreviewCmd serves the site locally and rebuilds it when files change.
type PreviewCmd struct {
	Port int `name:"port" help:"Preview server port (overrides preview.port)"`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if p.Port > 0 {
		cfg.Preview.Port = p.Port
	}
	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return err
	}

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

	srv := preview.New(preview.Options{
		Builder:      rt.exporter(contentRoot),
		OutputDir:    cfg.Output.Directory,
		ContentDir:   contentRoot,
		TemplatesDir: cfg.Templates.Dir,
		PublicDir:    cfg.Public.Dir,
		Addr:         fmt.Sprintf(":%d", cfg.Preview.Port),
		Debounce:     debounce,
		Metrics:      metrics.HTTPHandler(rt.registry),
	})
	_, _ = fmt.Fprintf(g.Out, "Preview at http://localhost:%d\n", cfg.Preview.Port)
	return srv.Run(ctx)
}
