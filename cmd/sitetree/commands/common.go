// Package commands implements the sitetree subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitetree/internal/config"
	"git.home.luguber.info/inful/sitetree/internal/eventstore"
	"git.home.luguber.info/inful/sitetree/internal/export"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/notify"
)

// Global carries process-wide values into every command.
type Global struct {
	Version string
	Out     io.Writer
}

// CLI is the root command and its global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitetree.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Write an example configuration and skeleton site"`
	Publish PublishCmd `cmd:"" help:"Publish the site to the output directory"`
	Resolve ResolveCmd `cmd:"" help:"Print the render context of one page"`
	Tree    TreeCmd    `cmd:"" help:"Print the page hierarchy"`
	Preview PreviewCmd `cmd:"" help:"Serve the site locally and rebuild on change"`
	Serve   ServeCmd   `cmd:"" help:"Sync the content source and republish on an interval"`
	History HistoryCmd `cmd:"" help:"List recent publish runs"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	setupLogging(level, config.LogFormatText)
	return nil
}

func setupLogging(level slog.Level, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the configuration and applies its logging section unless
// --verbose already forced debug output.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if !c.Verbose {
		setupLogging(cfg.Logging.Level.SlogLevel(), cfg.Logging.Format)
	}
	slog.Debug("Loaded configuration", logfields.Path(c.Config))
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// runtime owns the collaborators shared by publishing commands.
type runtime struct {
	cfg      *config.Config
	version  string
	registry *prom.Registry
	recorder metrics.Recorder
	history  eventstore.Store
	notifier notify.Notifier
}

func openRuntime(cfg *config.Config, version string) (*runtime, error) {
	rt := &runtime{cfg: cfg, version: version, registry: prom.NewRegistry(), notifier: notify.Nop{}}
	rt.recorder = metrics.NewPrometheusRecorder(rt.registry)

	if cfg.History.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		rt.history = store
	}
	if cfg.Notify.URL != "" {
		n, err := notify.NewNATSNotifier(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.notifier = n
	}
	return rt, nil
}

func (rt *runtime) exporter(contentRoot string) *export.Exporter {
	return export.New(export.Options{
		ContentRoot:  contentRoot,
		TemplatesDir: rt.cfg.Templates.Dir,
		PublicDir:    rt.cfg.Public.Dir,
		OutputDir:    rt.cfg.Output.Directory,
		Flat:         rt.cfg.Output.Flat,
		Clean:        rt.cfg.Output.ShouldClean(),
		CheckLinks:   rt.cfg.Output.CheckLinks,
		Site:         rt.cfg.Site,
		Version:      rt.version,
		Recorder:     rt.recorder,
		History:      rt.history,
		Notifier:     rt.notifier,
	})
}

func (rt *runtime) Close() error {
	var first error
	if rt.history != nil {
		first = rt.history.Close()
	}
	if err := rt.notifier.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
