// Package metrics provides a small Prometheus-compatible metrics collector for
// mentionbot. It renders text/plain exposition format without pulling in
// prometheus/client_golang.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the global metrics collector.
var Collector = NewMetricsCollector()

// MetricsCollector aggregates counters, gauges, and histograms.
type MetricsCollector struct {
	counters   sync.Map // key -> *Counter
	gauges     sync.Map // key -> *Gauge
	histograms sync.Map // key -> *Histogram
	startTime  time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{startTime: time.Now()}
}

// Uptime returns how long the collector has been running.
func (c *MetricsCollector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

func (c *Counter) Inc() { c.value.Add(1) }
func (c *Counter) Add(n int64) { c.value.Add(n) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

func (g *Gauge) Set(v int64) { g.value.Store(v) }
func (g *Gauge) Inc() { g.value.Add(1) }
func (g *Gauge) Dec() { g.value.Add(-1) }
func (g *Gauge) Value() int64 { return g.value.Load() }

// Histogram tracks the distribution of values. Buckets are cumulative.
type Histogram struct {
	name    string
	help    string
	labels  string
	mu      sync.Mutex
	count   int64
	sum     float64
	buckets []histBucket
}

type histBucket struct {
	le    float64
	count int64
}

func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	for i := range h.buckets {
		if v <= h.buckets[i].le {
			h.buckets[i].count++
		}
	}
}

// ObserveSince records the seconds elapsed since start.
func (h *Histogram) ObserveSince(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Count returns the number of observations.
func (h *Histogram) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// --- Registration helpers ---

// Counter returns or creates a counter. labels is a rendered label set such as `outcome="sent"`.
func (c *MetricsCollector) Counter(name, help, labels string) *Counter {
	key := name + "{" + labels + "}"
	if v, ok := c.counters.Load(key); ok {
		return v.(*Counter)
	}
	ctr := &Counter{name: name, help: help, labels: labels}
	actual, _ := c.counters.LoadOrStore(key, ctr)
	return actual.(*Counter)
}

func (c *MetricsCollector) Gauge(name, help, labels string) *Gauge {
	key := name + "{" + labels + "}"
	if v, ok := c.gauges.Load(key); ok {
		return v.(*Gauge)
	}
	g := &Gauge{name: name, help: help, labels: labels}
	actual, _ := c.gauges.LoadOrStore(key, g)
	return actual.(*Gauge)
}

// Histogram returns or creates a histogram. A +Inf bucket is appended when missing.
func (c *MetricsCollector) Histogram(name, help, labels string, buckets []float64) *Histogram {
	key := name + "{" + labels + "}"
	if v, ok := c.histograms.Load(key); ok {
		return v.(*Histogram)
	}
	bs := append([]float64(nil), buckets...)
	sort.Float64s(bs)
	if len(bs) == 0 || !math.IsInf(bs[len(bs)-1], 1) {
		bs = append(bs, math.Inf(1))
	}
	hb := make([]histBucket, len(bs))
	for i, b := range bs {
		hb[i] = histBucket{le: b}
	}
	h := &Histogram{name: name, help: help, labels: labels, buckets: hb}
	actual, _ := c.histograms.LoadOrStore(key, h)
	return actual.(*Histogram)
}

// --- Prometheus text rendering ---

// sortedValues returns the map's values ordered by key so output is stable.
func sortedValues(m *sync.Map) []any {
	var keys []string
	vals := make(map[string]any)
	m.Range(func(k, v any) bool {
		keys = append(keys, k.(string))
		vals[k.(string)] = v
		return true
	})
	sort.Strings(keys)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, vals[k])
	}
	return out
}

func sample(name, labels string) string {
	if labels == "" {
		return name
	}
	return name + "{" + labels + "}"
}

// Render writes all metrics in Prometheus text format.
func (c *MetricsCollector) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# HELP mentionbot_uptime_seconds Time since start in seconds\n")
	fmt.Fprintf(&sb, "# TYPE mentionbot_uptime_seconds gauge\n")
	fmt.Fprintf(&sb, "mentionbot_uptime_seconds %d\n", int64(c.Uptime().Seconds()))

	helpWritten := make(map[string]bool)
	for _, v := range sortedValues(&c.counters) {
		ctr := v.(*Counter)
		if !helpWritten[ctr.name] {
			fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s counter\n", ctr.name, ctr.help, ctr.name)
			helpWritten[ctr.name] = true
		}
		fmt.Fprintf(&sb, "%s %d\n", sample(ctr.name, ctr.labels), ctr.Value())
	}

	for _, v := range sortedValues(&c.gauges) {
		g := v.(*Gauge)
		if !helpWritten[g.name] {
			fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s gauge\n", g.name, g.help, g.name)
			helpWritten[g.name] = true
		}
		fmt.Fprintf(&sb, "%s %d\n", sample(g.name, g.labels), g.Value())
	}

	for _, v := range sortedValues(&c.histograms) {
		h := v.(*Histogram)
		h.mu.Lock()
		if !helpWritten[h.name] {
			fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
			helpWritten[h.name] = true
		}
		for _, b := range h.buckets {
			le := fmt.Sprintf("%g", b.le)
			if math.IsInf(b.le, 1) {
				le = "+Inf"
			}
			labels := `le="` + le + `"`
			if h.labels != "" {
				labels = h.labels + "," + labels
			}
			fmt.Fprintf(&sb, "%s %d\n", sample(h.name+"_bucket", labels), b.count)
		}
		fmt.Fprintf(&sb, "%s %f\n", sample(h.name+"_sum", h.labels), h.sum)
		fmt.Fprintf(&sb, "%s %d\n", sample(h.name+"_count", h.labels), h.count)
		h.mu.Unlock()
	}
	return sb.String()
}

// Handler returns an http.HandlerFunc that renders metrics in Prometheus text format.
func (c *MetricsCollector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		fmt.Fprint(w, c.Render())
	}
}

// --- Pre-defined metrics used across the application ---

var (
	EventsTotal        = Collector.Counter("mentionbot_events_total", "Inbound events received from the transport", "")
	InvalidEventsTotal = Collector.Counter("mentionbot_invalid_events_total", "Inbound events dropped as invalid", "")
	InFlight           = Collector.Gauge("mentionbot_events_in_flight", "Events currently being handled", "")

	CompletionLatency = Collector.Histogram("mentionbot_completion_seconds", "Completion call latency in seconds", "",
		[]float64{0.5, 1, 2, 5, 10, 30, 60, 120})
)

// Outcome returns the counter for a reply outcome label (no_action, sent, failed).
func Outcome(outcome string) *Counter {
	return Collector.Counter("mentionbot_outcomes_total", "Reply decisions by outcome", `outcome="`+outcome+`"`)
}
