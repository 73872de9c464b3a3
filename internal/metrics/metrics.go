package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bulkdelete"

var (
	// ObjectsDeleted counts successful deletes per object type.
	ObjectsDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_deleted_total",
			Help:      "Objects deleted, by object type.",
		},
		[]string{"object_type"},
	)

	// ObjectsFailed counts failed or skipped deletes per object type.
	ObjectsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_failed_total",
			Help:      "Objects that could not be deleted, by object type.",
		},
		[]string{"object_type"},
	)

	ResumesScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resumes_scheduled_total",
			Help:      "Resume events scheduled, by object type.",
		},
		[]string{"object_type"},
	)

	Sessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Session outcomes: denied, cancelled, confirmed, completed.",
		},
		[]string{"outcome"},
	)

	InvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Time spent handling one inbound event.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"function"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ObjectsDeleted, ObjectsFailed, ResumesScheduled, Sessions, InvocationDuration)
	})
}
