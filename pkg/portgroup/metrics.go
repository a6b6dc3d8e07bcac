package portgroup

import "github.com/prometheus/client_golang/prometheus"

const SubSystem = "portgroup"

var (
	metricLaneTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "switchd",
			Subsystem: SubSystem,
			Name:      "lane_transitions_total",
			Help:      "total number of completed lane mode transitions",
		},
		[]string{"strategy"},
	)

	metricTransitionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "switchd",
			Subsystem: SubSystem,
			Name:      "lane_transition_failures_total",
			Help:      "total number of lane mode transitions that failed partway",
		},
		[]string{"strategy"},
	)

	metricLaneRegisterWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "switchd",
			Subsystem: SubSystem,
			Name:      "lane_register_writes_total",
			Help:      "total number of lane-count register writes issued by the legacy strategy",
		},
	)
)

func init() {
	prometheus.MustRegister(metricLaneTransitionsTotal)
	prometheus.MustRegister(metricTransitionFailuresTotal)
	prometheus.MustRegister(metricLaneRegisterWritesTotal)
}
