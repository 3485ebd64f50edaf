package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rangeSplits = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fundify_fetch_range_splits_total",
		Help: "Number of times an eth_getLogs range was narrowed after the node refused it",
	},
)

func RangeSplitInc() {
	rangeSplits.Inc()
}
