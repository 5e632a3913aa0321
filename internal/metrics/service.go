package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "football_registrations_total",
			Help: "Registration decisions by resulting status.",
		}, []string{"status"}),
		Promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "football_queue_promotions_total",
			Help: "The total number of queued players offered a freed slot.",
		}),
		Draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "football_draws_total",
			Help: "Team draws started, by kind (auto, voting, manual).",
		}, []string{"kind"}),
		Votes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "football_votes_total",
			Help: "The total number of variant votes cast.",
		}),
		MatchesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "football_matches_recorded_total",
			Help: "The total number of match scores recorded.",
		}),
		MatchesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "football_matches_finished_total",
			Help: "The total number of match cycles torn down after rating and payment.",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "football_rejections_total",
			Help: "Operations rejected by validation, authorization or stale state.",
		}, []string{"operation"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "football_operation_duration_seconds",
			Help:    "The duration of lifecycle operations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "football_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "football_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "football_events_published_total",
			Help: "Lifecycle events published, by topic.",
		}, []string{"topic"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "football_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.Registrations,
		s.Promotions,
		s.Draws,
		s.Votes,
		s.MatchesRecorded,
		s.MatchesFinished,
		s.Rejections,
		s.OperationDuration,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.EventsPublished,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncRegistrations(status string) {
	s.Registrations.WithLabelValues(status).Inc()
}

func (s *Service) IncPromotions() {
	s.Promotions.Inc()
}

func (s *Service) IncDraws(kind string) {
	s.Draws.WithLabelValues(kind).Inc()
}

func (s *Service) IncVotes() {
	s.Votes.Inc()
}

func (s *Service) IncMatchesRecorded() {
	s.MatchesRecorded.Inc()
}

func (s *Service) IncMatchesFinished() {
	s.MatchesFinished.Inc()
}

func (s *Service) IncRejections(operation string) {
	s.Rejections.WithLabelValues(operation).Inc()
}

func (s *Service) ObserveOperationDuration(operation string, duration float64) {
	s.OperationDuration.WithLabelValues(operation).Observe(duration)
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) IncEventsPublished(topic string) {
	s.EventsPublished.WithLabelValues(topic).Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
