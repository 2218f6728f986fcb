// Package metrics is the observability sink of the pipeline.
//
// Producers emit Event values ({name, value, tags, timestamp}) through a Sink. Emission
// never blocks: the Recorder buffers events on a bounded channel and drops them when the
// buffer is full. A background loop folds events into Prometheus metric families, served
// in the text exposition format on GET /metrics.
//
// Names ending in "_total" are counters (values add up); everything else is a gauge
// (last value wins).
package metrics
