package metrics

import (
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    operations = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "doctools",
            Name:      "operations_total",
            Help:      "Tool operations by tool and result (success or error kind)",
        },
        []string{"tool", "result"},
    )

    operationLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "doctools",
            Name:      "operation_duration_seconds",
            Help:      "Duration of tool operations",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"tool"},
    )

    pagesTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "doctools",
            Name:      "pages_total",
            Help:      "Pages produced by tool",
        },
        []string{"tool"},
    )

    outputBytes = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "doctools",
            Name:      "output_bytes",
            Help:      "Size of produced artifacts",
            Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
        },
        []string{"tool"},
    )

    busyRejections = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "doctools",
            Name:      "busy_rejections_total",
            Help:      "Requests refused because the tool was already processing",
        },
        []string{"tool"},
    )

    workbenches = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "doctools",
            Name:      "workbenches",
            Help:      "Live workbench sessions",
        },
    )

    once sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
    once.Do(func() {
        prometheus.MustRegister(operations, operationLatency, pagesTotal, outputBytes, busyRejections, workbenches)
    })
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

// ObserveOperation records one finished operation. result is "success" or an error kind.
func ObserveOperation(tool, result string, dur time.Duration) {
    operations.WithLabelValues(tool, result).Inc()
    operationLatency.WithLabelValues(tool).Observe(dur.Seconds())
}

func AddPages(tool string, n int) {
    if n > 0 { pagesTotal.WithLabelValues(tool).Add(float64(n)) }
}

func ObserveOutput(tool string, size int) { outputBytes.WithLabelValues(tool).Observe(float64(size)) }

func IncBusy(tool string) { busyRejections.WithLabelValues(tool).Inc() }

func SetWorkbenches(n int) { workbenches.Set(float64(n)) }
