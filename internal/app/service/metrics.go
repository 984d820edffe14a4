package service

import "github.com/prometheus/client_golang/prometheus"

var (
	identityResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_identity_resolutions_total",
			Help: "Credential resolutions by outcome",
		},
		[]string{"outcome"},
	)

	taskAccessDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_task_access_decisions_total",
			Help: "Task authorization decisions by operation and result",
		},
		[]string{"operation", "decision"},
	)
)

func init() {
	prometheus.MustRegister(identityResolutions, taskAccessDecisions)
}
