package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPermalink  = "permalink"
	KeyPath       = "path"
	KeyTemplate   = "template"
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyURL        = "url"
	KeyOutput     = "output"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Permalink(p string) slog.Attr    { return slog.String(KeyPermalink, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Output(dir string) slog.Attr     { return slog.String(KeyOutput, dir) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
