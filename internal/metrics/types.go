package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	Registrations      *prometheus.CounterVec
	Promotions         prometheus.Counter
	Draws              *prometheus.CounterVec
	Votes              prometheus.Counter
	MatchesRecorded    prometheus.Counter
	MatchesFinished    prometheus.Counter
	Rejections         *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	EventsPublished    *prometheus.CounterVec
	StartupTimeSeconds prometheus.Gauge
}
