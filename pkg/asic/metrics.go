package asic

import "github.com/prometheus/client_golang/prometheus"

const SubSystem = "asic"

var metricCallFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "switchd",
		Subsystem: SubSystem,
		Name:      "call_failures_total",
		Help:      "total number of driver calls that returned a non-OK status",
	},
)

func init() {
	prometheus.MustRegister(metricCallFailuresTotal)
}
