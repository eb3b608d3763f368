package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/msmt-labs/mssmt/lib"
)

// Metrics collects Prometheus counters and gauges describing tree activity. It has
// no dependency on mssmt.Tree itself - callers record events around the operations
// they perform so the tree package stays a pure, telemetry-free value type
type Metrics struct {
	Inserts      prometheus.Counter
	Gets         prometheus.Counter
	Deletes      prometheus.Counter
	NotFound     prometheus.Counter
	ProofsIssued prometheus.Counter
	ProofDepth   prometheus.Histogram
	TotalSum     prometheus.Gauge
	TreeSize     prometheus.Gauge
}

// NewMetrics() registers every metric on the default Prometheus registry
func NewMetrics() *Metrics {
	return &Metrics{
		Inserts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mssmt_inserts_total",
			Help: "Total number of successful Insert() operations",
		}),
		Gets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mssmt_gets_total",
			Help: "Total number of Get() operations",
		}),
		Deletes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mssmt_deletes_total",
			Help: "Total number of successful Delete() operations",
		}),
		NotFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mssmt_not_found_total",
			Help: "Total number of Get()/Delete() calls that returned NOT_FOUND",
		}),
		ProofsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mssmt_proofs_issued_total",
			Help: "Total number of MerkleProof() calls",
		}),
		ProofDepth: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mssmt_proof_depth",
			Help:    "Number of siblings returned by MerkleProof()",
			Buckets: prometheus.LinearBuckets(0, 16, 17), // 0..256 in steps of 16
		}),
		TotalSum: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mssmt_total_sum",
			Help: "The tree's current total_sum(root)",
		}),
		TreeSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mssmt_tree_size",
			Help: "The number of live leaves last observed in the tree",
		}),
	}
}

// Serve() starts a blocking HTTP server exposing /metrics on addr
func Serve(addr string, log lib.LoggerI) lib.ErrorI {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Infof("prometheus metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		return lib.NewError(lib.NoCode, lib.MainModule, err.Error())
	}
	return nil
}
