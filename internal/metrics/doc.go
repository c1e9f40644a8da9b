// Package metrics provides observability hooks for the grdesk state container.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	s, err := store.New(builtins, store.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the supplied registry and
// HTTPHandler serves that registry for scraping.
package metrics
