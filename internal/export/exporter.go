package export

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitetree/internal/eventstore"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/linkcheck"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/markdown"
	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/navigation"
	"git.home.luguber.info/inful/sitetree/internal/notify"
	"git.home.luguber.info/inful/sitetree/internal/page"
	"git.home.luguber.info/inful/sitetree/internal/render"
)

// Options configures an Exporter.
type Options struct {
	ContentRoot  string
	TemplatesDir string
	PublicDir    string
	OutputDir    string

	// Flat writes "/about/team.html" instead of "/about/team/index.html".
	Flat bool
	// Clean removes OutputDir before publishing.
	Clean bool
	// CheckLinks verifies internal links of the written site.
	CheckLinks bool

	Site    map[string]any
	Version string

	Markdown markdown.Converter
	Recorder metrics.Recorder
	History  eventstore.Store
	Notifier notify.Notifier
}

// Exporter publishes a content tree.
type Exporter struct {
	opts Options
}

// New creates an Exporter, filling in no-op collaborators.
func New(opts Options) *Exporter {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Markdown == nil {
		opts.Markdown = markdown.Default()
	}
	return &Exporter{opts: opts}
}

// run holds the state of one publish or process invocation.
type run struct {
	opts    Options
	reg     *page.Registry
	scans   *page.ScanMemo
	builder *render.Builder
	report  *Report
}

// Publish writes the complete site and returns a report of what was written.
func (e *Exporter) Publish(ctx context.Context) (*Report, error) {
	r, err := e.newRun()
	if err != nil {
		return nil, err
	}
	log := slog.With(logfields.BuildID(r.report.BuildID))
	log.Info("Publishing site", logfields.Path(e.opts.ContentRoot), logfields.Output(e.opts.OutputDir))

	started, evErr := eventstore.NewPublishStarted(r.report.BuildID, eventstore.PublishStartedData{
		ContentRoot: e.opts.ContentRoot,
		Output:      e.opts.OutputDir,
		Flat:        e.opts.Flat,
	})
	e.record(ctx, started, evErr)

	stage, err := e.execute(ctx, r, publishStages(e.opts))
	r.report.Duration = time.Since(r.report.Start)
	e.opts.Recorder.ObservePublishDuration(r.report.Duration)

	if err != nil {
		e.opts.Recorder.IncPublishOutcome(metrics.OutcomeFailed)
		failed, evErr := eventstore.NewPublishFailed(r.report.BuildID, eventstore.PublishFailedData{
			Stage:      string(stage),
			Error:      err.Error(),
			DurationMS: r.report.Duration.Milliseconds(),
		})
		e.record(ctx, failed, evErr)
		log.Error("Publish failed", logfields.Stage(string(stage)), logfields.Error(err))
		return r.report, err
	}

	e.opts.Recorder.IncPublishOutcome(metrics.OutcomeSuccess)
	e.opts.Recorder.SetPagesPublished(len(r.report.Pages))
	completed, evErr := eventstore.NewPublishCompleted(r.report.BuildID, eventstore.PublishCompletedData{
		Pages:       len(r.report.Pages),
		Assets:      r.report.Assets,
		BrokenLinks: len(r.report.BrokenLinks),
		DurationMS:  r.report.Duration.Milliseconds(),
	})
	e.record(ctx, completed, evErr)
	if err := e.opts.Notifier.Published(ctx, notify.PublishedEvent{
		BuildID:     r.report.BuildID,
		Output:      e.opts.OutputDir,
		Pages:       len(r.report.Pages),
		Assets:      r.report.Assets,
		BrokenLinks: len(r.report.BrokenLinks),
		DurationMS:  r.report.Duration.Milliseconds(),
	}); err != nil {
		log.Warn("Publish notification failed", logfields.Error(err))
	}
	log.Info("Published site",
		logfields.Count(len(r.report.Pages)),
		logfields.DurationMS(float64(r.report.Duration.Milliseconds())))
	return r.report, nil
}

// Process prepares the output directory with public files and page assets
// without rendering pages.
func (e *Exporter) Process(ctx context.Context) error {
	r, err := e.newRun()
	if err != nil {
		return err
	}
	_, err = e.execute(ctx, r, processStages())
	return err
}

// Registry returns a fresh registry for the configured content root.
func (e *Exporter) Registry() *page.Registry {
	return page.NewRegistry(e.opts.ContentRoot, page.WithRecorder(e.opts.Recorder))
}

// Builder returns a render builder wired to reg, with navigation computed from it.
// Navigation and every render of the builder share one scan memo.
func (e *Exporter) Builder(reg *page.Registry) (*render.Builder, error) {
	scans := page.NewScanMemo(reg)
	nav, err := navigation.Tree(scans)
	if err != nil {
		return nil, err
	}
	return render.NewBuilder(e.opts.TemplatesDir, page.Environment{
		Site:       e.opts.Site,
		Navigation: nav,
		Markdown:   e.opts.Markdown,
		Scans:      scans,
	}), nil
}

func (e *Exporter) newRun() (*run, error) {
	reg := e.Registry()
	builder, err := e.Builder(reg)
	if err != nil {
		return nil, err
	}
	return &run{
		opts:    e.opts,
		reg:     reg,
		scans:   builder.Env.Scans,
		builder: builder,
		report:  &Report{BuildID: uuid.NewString(), Start: time.Now(), Output: e.opts.OutputDir},
	}, nil
}

func (e *Exporter) execute(ctx context.Context, r *run, stages []StageDef) (StageName, error) {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return st.Name, canceled(st.Name, err)
		}
		slog.Info("Stage started", logfields.Stage(string(st.Name)), logfields.BuildID(r.report.BuildID))
		t0 := time.Now()
		err := st.Fn(r, ctx)
		e.opts.Recorder.ObserveStageDuration(string(st.Name), time.Since(t0))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return st.Name, canceled(st.Name, err)
			}
			return st.Name, err
		}
	}
	return "", nil
}

func canceled(stage StageName, err error) error {
	return ferrors.NewError(ferrors.CategoryRuntime, "publish canceled").
		WithCause(err).
		WithContext("stage", string(stage)).
		Build()
}

func (e *Exporter) record(ctx context.Context, ev eventstore.Event, err error) {
	if e.opts.History == nil {
		return
	}
	if err == nil {
		err = eventstore.Emit(context.WithoutCancel(ctx), e.opts.History, ev)
	}
	if err != nil {
		slog.Warn("Failed to record publish history", logfields.Error(err))
	}
}

func (r *run) checkLinks(_ context.Context) error {
	broken, err := linkcheck.Check(r.opts.OutputDir)
	if err != nil {
		return err
	}
	for _, b := range broken {
		slog.Warn("Broken link", logfields.Path(b.Source), logfields.URL(b.URL))
	}
	r.report.BrokenLinks = broken
	return nil
}
