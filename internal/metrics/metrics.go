package metrics

import (
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    documentsProcessed = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfpreview",
            Name:      "documents_processed_total",
            Help:      "Documents processed by result (success, invalid, failed)",
        },
        []string{"result"},
    )

    pagesRendered = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfpreview",
            Name:      "pages_rendered_total",
            Help:      "Total pages rasterized",
        },
    )

    renderLatency = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "pdfpreview",
            Name:      "page_render_duration_seconds",
            Help:      "Duration of single page rasterization",
            Buckets:   prometheus.DefBuckets,
        },
    )

    pagesExported = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfpreview",
            Name:      "pages_exported_total",
            Help:      "Total preview PNG files written",
        },
    )

    slotAdvances = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfpreview",
            Name:      "slot_advances_total",
            Help:      "Clicks that advanced a preview slot to the next page",
        },
    )

    candidates = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfpreview",
            Name:      "candidates_evaluated_total",
            Help:      "Cover candidates evaluated by result (accepted, rejected, error)",
        },
        []string{"result"},
    )
)

var once sync.Once

// Init registers collectors. Safe to call more than once.
func Init() {
    once.Do(func() {
        prometheus.MustRegister(documentsProcessed, pagesRendered, renderLatency, pagesExported, slotAdvances, candidates)
    })
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncDocument(result string) { documentsProcessed.WithLabelValues(result).Inc() }

func ObserveRender(dur time.Duration) {
    pagesRendered.Inc()
    renderLatency.Observe(dur.Seconds())
}

func AddExported(n int) { pagesExported.Add(float64(n)) }
func IncSlotAdvance()    { slotAdvances.Inc() }
func IncCandidate(result string) { candidates.WithLabelValues(result).Inc() }
