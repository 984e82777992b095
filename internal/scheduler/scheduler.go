// Package scheduler runs periodic republish jobs for the serve command.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context) error

// Scheduler wraps a gocron scheduler. Runs of the same job never overlap.
type Scheduler struct {
	scheduler gocron.Scheduler

	mu  sync.RWMutex
	ctx context.Context
}

// New creates a stopped scheduler.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, ctx: context.Background()}, nil
}

// Every schedules task at a fixed interval, starting immediately once the
// scheduler runs. It returns the job ID.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) (string, error) {
	if interval <= 0 {
		return "", ferrors.ValidationError("interval must be > 0").WithContext("job", name).Build()
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.execute, name, task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create job %s: %w", name, err)
	}
	return job.ID().String(), nil
}

// Start begins running jobs. Tasks receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) execute(name string, task Task) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	slog.Info("Executing scheduled job", slog.String("job", name))
	if err := task(ctx); err != nil {
		// Fatal errors need a content or config fix; the rest may clear up by the next run.
		if classified, ok := ferrors.AsClassified(err); ok && classified.IsFatal() {
			slog.Error("Scheduled job failed; fix required before next run",
				slog.String("job", name), slog.String("category", string(classified.Category())), logfields.Error(err))
			return
		}
		slog.Warn("Scheduled job failed; will run again at next interval", slog.String("job", name), logfields.Error(err))
		return
	}
	slog.Debug("Scheduled job finished", slog.String("job", name),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}

// Syncer refreshes the content tree and returns its root.
type Syncer interface {
	Sync(ctx context.Context) (string, error)
}

// SyncAndPublish returns a task that syncs the content source and then
// publishes from the root it reports.
func SyncAndPublish(src Syncer, publish func(ctx context.Context, root string) error) Task {
	return func(ctx context.Context) error {
		root, err := src.Sync(ctx)
		if err != nil {
			return err
		}
		return publish(ctx, root)
	}
}
