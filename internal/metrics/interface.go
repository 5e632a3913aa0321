package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncRegistrations(status string)
	IncPromotions()
	IncDraws(kind string)
	IncVotes()
	IncMatchesRecorded()
	IncMatchesFinished()
	IncRejections(operation string)
	ObserveOperationDuration(operation string, duration float64)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	IncEventsPublished(topic string)
	SetStartupTime(duration float64)
}
