package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitetree/internal/config"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/scheduler"
	"git.home.luguber.info/inful/sitetree/internal/source"
)

// ServeCmd keeps the published site in step with its content source.
type ServeCmd struct {
	Interval string `name:"interval" help:"Republish interval, e.g. 5m (overrides preview.interval)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	interval, err := s.interval(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	rt, err := openRuntime(cfg, g.Version)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	sched, err := scheduler.New()
	if err != nil {
		return err
	}
	task := scheduler.SyncAndPublish(source.New(cfg.Content), func(ctx context.Context, contentRoot string) error {
		_, err := rt.exporter(contentRoot).Publish(ctx)
		return err
	})
	if _, err := sched.Every(interval, "publish", task); err != nil {
		return err
	}

	sched.Start(ctx)
	slog.Info("Serving site", logfields.Output(cfg.Output.Directory), slog.Duration("interval", interval))
	<-ctx.Done()
	return sched.Stop()
}

func (s *ServeCmd) interval(cfg *config.Config) (time.Duration, error) {
	if s.Interval != "" {
		cfg.Preview.Interval = s.Interval
		if err := cfg.Validate(); err != nil {
			return 0, err
		}
	}
	return cfg.IntervalDuration()
}
