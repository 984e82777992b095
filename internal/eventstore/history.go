package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// Build statuses reported in a BuildSummary.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BuildSummary is the folded view of one publish run.
type BuildSummary struct {
	BuildID      string        `json:"build_id" yaml:"build_id"`
	Status       string        `json:"status" yaml:"status"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Output       string        `json:"output,omitempty" yaml:"output,omitempty"`
	Pages        int           `json:"pages" yaml:"pages"`
	Assets       int           `json:"assets" yaml:"assets"`
	BrokenLinks  int           `json:"broken_links" yaml:"broken_links"`
	ErrorStage   string        `json:"error_stage,omitempty" yaml:"error_stage,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// Builds returns up to limit summaries, newest first. A limit <= 0 returns all.
func Builds(ctx context.Context, s Store, limit int) ([]BuildSummary, error) {
	ids, err := s.RecentBuildIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]BuildSummary, 0, len(ids))
	for _, id := range ids {
		b, _, err := Build(ctx, s, id)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Build folds the events of one run into its summary and also returns the
// events themselves. An unknown id is a not-found error.
func Build(ctx context.Context, s Store, buildID string) (BuildSummary, []Event, error) {
	events, err := s.GetByBuildID(ctx, buildID)
	if err != nil {
		return BuildSummary{}, nil, err
	}
	if len(events) == 0 {
		return BuildSummary{}, nil, ferrors.NotFoundError("no publish run with this id").
			WithContext("build_id", buildID).
			Build()
	}
	b := BuildSummary{BuildID: buildID, Status: StatusRunning, StartedAt: events[0].Timestamp()}
	for _, e := range events {
		if err := apply(&b, e); err != nil {
			return BuildSummary{}, nil, err
		}
	}
	return b, events, nil
}

func apply(b *BuildSummary, e Event) error {
	switch e.Type() {
	case TypePublishStarted:
		var d PublishStartedData
		if err := json.Unmarshal(e.Payload(), &d); err != nil {
			return fmt.Errorf("decode %s: %w", e.Type(), err)
		}
		b.StartedAt = e.Timestamp()
		b.Output = d.Output
	case TypePublishCompleted:
		var d PublishCompletedData
		if err := json.Unmarshal(e.Payload(), &d); err != nil {
			return fmt.Errorf("decode %s: %w", e.Type(), err)
		}
		finish(b, e.Timestamp(), d.DurationMS, StatusCompleted)
		b.Pages, b.Assets, b.BrokenLinks = d.Pages, d.Assets, d.BrokenLinks
	case TypePublishFailed:
		var d PublishFailedData
		if err := json.Unmarshal(e.Payload(), &d); err != nil {
			return fmt.Errorf("decode %s: %w", e.Type(), err)
		}
		finish(b, e.Timestamp(), d.DurationMS, StatusFailed)
		b.ErrorStage, b.ErrorMessage = d.Stage, d.Error
	}
	return nil
}

func finish(b *BuildSummary, at time.Time, durationMS int64, status string) {
	b.Status = status
	b.FinishedAt = &at
	b.Duration = time.Duration(durationMS) * time.Millisecond
}
