// Package metrics keeps process-wide summary counters and serves them in the
// Prometheus text exposition format.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

type counter struct {
	name string
	help string
	n    atomic.Uint64
}

func (c *counter) inc() { c.n.Add(1) }

func (c *counter) writeTo(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", c.name, c.help, c.name, c.name, c.n.Load())
}

var (
	cacheHits    = &counter{name: "summary_cache_hits_total", help: "Summaries served from the document record"}
	cacheMisses  = &counter{name: "summary_cache_misses_total", help: "Summary requests that required generation"}
	generated    = &counter{name: "summary_generated_total", help: "Summaries generated"}
	failed       = &counter{name: "summary_failed_total", help: "Summary generations that failed"}
	shared       = &counter{name: "summary_shared_total", help: "Summary requests that joined an in-flight generation"}
	counters     = []*counter{cacheHits, cacheMisses, generated, failed, shared}
	durationHist = newHistogram("summary_generation_duration_ms", "Summary generation duration in milliseconds",
		250, 500, 1000, 2000, 5000, 10000, 20000, 30000, 60000)
)

func IncSummaryCacheHit()  { cacheHits.inc() }
func IncSummaryCacheMiss() { cacheMisses.inc() }
func IncSummaryGenerated() { generated.inc() }
func IncSummaryFailed()    { failed.inc() }

// IncSummaryShared counts a caller that joined a generation already in flight.
func IncSummaryShared() { shared.inc() }

// ObserveSummaryDurationMs records a generation duration. Negative values clamp to zero.
func ObserveSummaryDurationMs(ms float64) {
	durationHist.observe(max(ms, 0))
}

// Handler serves Render at text/plain; version=0.0.4.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/plain; version=0.0.4", []byte(Render()))
	}
}

func Render() string {
	var sb strings.Builder
	for _, c := range counters {
		c.writeTo(&sb)
	}
	durationHist.writeTo(&sb)
	return sb.String()
}

// histogram stores per-bucket counts; writeTo emits them cumulatively.
type histogram struct {
	name   string
	help   string
	bounds []float64

	mu     sync.Mutex
	counts []uint64
	total  uint64
	sum    float64
}

func newHistogram(name, help string, bounds ...float64) *histogram {
	sort.Float64s(bounds)
	return &histogram{name: name, help: help, bounds: bounds, counts: make([]uint64, len(bounds))}
}

func (h *histogram) observe(v float64) {
	i := sort.SearchFloat64s(h.bounds, v)
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < len(h.counts) {
		h.counts[i]++
	}
	h.total++
	h.sum += v
}

func (h *histogram) writeTo(w io.Writer) {
	h.mu.Lock()
	counts := append([]uint64(nil), h.counts...)
	total, sum := h.total, h.sum
	h.mu.Unlock()

	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
	var running uint64
	for i, le := range h.bounds {
		running += counts[i]
		fmt.Fprintf(w, "%s_bucket{le=%q} %d\n", h.name, strconv.FormatFloat(le, 'f', -1, 64), running)
	}
	fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", h.name, total)
	fmt.Fprintf(w, "%s_sum %s\n%s_count %d\n", h.name, strconv.FormatFloat(sum, 'f', -1, 64), h.name, total)
}
