package portresource

import "github.com/prometheus/client_golang/prometheus"

const SubSystem = "portresource"

var metricProgramsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "switchd",
		Subsystem: SubSystem,
		Name:      "programs_total",
		Help:      "total number of committed flexport transactions",
	},
)

func init() {
	prometheus.MustRegister(metricProgramsTotal)
}
