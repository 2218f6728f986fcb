package metrics

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Event is one metric observation.
type Event struct {
	Name      string
	Value     float64
	Tags      map[string]string
	Timestamp time.Time
}

// Sink receives metric events. Emit must not block.
type Sink interface {
	Emit(ev Event)
}

// Nop discards every event.
type Nop struct{}

// Emit implements Sink.
func (Nop) Emit(Event) {}

const namespace = "sports_pipeline"

type series struct {
	labels map[string]string
	value  float64
}

// Recorder aggregates events into counters and gauges.
type Recorder struct {
	ch      chan Event
	dropped atomic.Int64

	mu       sync.Mutex
	families map[string]map[string]*series // name -> label signature -> series
}

// NewRecorder creates a Recorder with the given event buffer size.
func NewRecorder(buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Recorder{
		ch:       make(chan Event, buffer),
		families: make(map[string]map[string]*series),
	}
}

// Emit queues ev for aggregation. When the buffer is full the event is dropped and counted.
func (r *Recorder) Emit(ev Event) {
	select {
	case r.ch <- ev:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns how many events were dropped because the buffer was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Run folds queued events until ctx is cancelled, then drains what is left.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev := <-r.ch:
					r.Record(ev)
				default:
					return
				}
			}
		case ev := <-r.ch:
			r.Record(ev)
		}
	}
}

// Record folds ev synchronously.
func (r *Recorder) Record(ev Event) {
	if ev.Name == "" {
		return
	}
	sig := signature(ev.Tags)

	r.mu.Lock()
	defer r.mu.Unlock()

	fam, ok := r.families[ev.Name]
	if !ok {
		fam = make(map[string]*series)
		r.families[ev.Name] = fam
	}
	s, ok := fam[sig]
	if !ok {
		labels := make(map[string]string, len(ev.Tags))
		for k, v := range ev.Tags {
			labels[k] = v
		}
		s = &series{labels: labels}
		fam[sig] = s
	}
	if isCounter(ev.Name) {
		s.value += ev.Value
	} else {
		s.value = ev.Value
	}
}

// Value returns the current value of a series. Used by tests and the status endpoint.
func (r *Recorder) Value(name string, tags map[string]string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.families[name][signature(tags)]; ok {
		return s.value
	}
	return 0
}

// Gather returns the recorded families sorted by name, series sorted by label signature.
func (r *Recorder) Gather() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		fam := r.families[name]
		sigs := make([]string, 0, len(fam))
		for sig := range fam {
			sigs = append(sigs, sig)
		}
		sort.Strings(sigs)

		mType := dto.MetricType_GAUGE
		if isCounter(name) {
			mType = dto.MetricType_COUNTER
		}
		mf := &dto.MetricFamily{
			Name: ptr(namespace + "_" + name),
			Help: ptr(helpFor(name)),
			Type: &mType,
		}
		for _, sig := range sigs {
			s := fam[sig]
			m := &dto.Metric{Label: labelPairs(s.labels)}
			v := s.value
			if mType == dto.MetricType_COUNTER {
				m.Counter = &dto.Counter{Value: &v}
			} else {
				m.Gauge = &dto.Gauge{Value: &v}
			}
			mf.Metric = append(mf.Metric, m)
		}
		out = append(out, mf)
	}
	return out
}

// WriteText writes all families in the Prometheus text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	for _, mf := range r.Gather() {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// ContentType is the Content-Type of WriteText output.
func ContentType() string {
	return string(expfmt.NewFormat(expfmt.TypeTextPlain))
}

func isCounter(name string) bool {
	return strings.HasSuffix(name, "_total")
}

func helpFor(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

func signature(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
		b.WriteByte(0)
	}
	return b.String()
}

func labelPairs(labels map[string]string) []*dto.LabelPair {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]*dto.LabelPair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, &dto.LabelPair{Name: ptr(k), Value: ptr(labels[k])})
	}
	return pairs
}

func ptr[T any](v T) *T { return &v }
