package metrics

import "time"

// ScanKind labels the filesystem scans performed while resolving pages.
type ScanKind string

const (
	ScanFind       ScanKind = "find"
	ScanAll        ScanKind = "all"
	ScanAssets     ScanKind = "assets"
	ScanDiskAssets ScanKind = "disk_assets"
)

// Outcome labels the final status of a publish run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Recorder defines observability hooks for the page registry and the exporter.
type Recorder interface {
	IncCacheLookup(hit bool)
	IncDiskScan(kind ScanKind)
	ObserveStageDuration(stage string, d time.Duration)
	ObservePublishDuration(d time.Duration)
	IncPublishOutcome(outcome Outcome)
	SetPagesPublished(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncCacheLookup(bool)                        {}
func (NoopRecorder) IncDiskScan(ScanKind)                       {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObservePublishDuration(time.Duration)       {}
func (NoopRecorder) IncPublishOutcome(Outcome)                  {}
func (NoopRecorder) SetPagesPublished(int)                      {}
