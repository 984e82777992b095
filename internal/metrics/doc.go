// Package metrics provides observability hooks for page resolution and publishing.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	reg := page.NewRegistry(root, page.WithRecorder(metrics.NewPrometheusRecorder(promReg)))
//
// PrometheusRecorder registers its collectors on a caller-provided registry;
// HTTPHandler exposes that registry for scraping (the preview server mounts it
// at /metrics).
package metrics
