package http

import (
	"net/http"

	"github.com/Valikazar/football-magager-bot/internal/config"
	"github.com/Valikazar/football-magager-bot/internal/http/handlers"
	"github.com/Valikazar/football-magager-bot/internal/inngest"
	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
)

func NewServer(services handlers.Services, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, pubsub pubsub.PubSubClient, inngestClient inngest.InngestClient) *Server {
	server := &Server{
		Services:       services,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		InngestClient:  inngestClient,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(handlers.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/api/inngest", s.InngestClient.Serve())

	s.Router.Handle("POST /slack/command", Chain(handlers.FootballCommandHandler(s.Services, s.Cfg.Slack.SigningSecret), paramsMiddleware))
	s.Router.Handle("POST /slack/interactions", Chain(handlers.InteractionsHandler(s.Services, s.Cfg.Slack.SigningSecret), paramsMiddleware))
	s.Router.Handle("POST /pubsub/match-finished", Chain(handlers.MatchFinishedHandler(s.InngestClient, s.pubsub), paramsMiddleware))
	s.Router.Handle("POST /pubsub/teams-committed", Chain(handlers.TeamsCommittedHandler(s.pubsub), paramsMiddleware))

	apiAuth := authMiddleware(s.Cfg.APIToken)
	s.Router.Handle("GET /api/chats/{channel}/roster", Chain(handlers.RosterHandler(s.Services), paramsMiddleware, apiAuth))
	s.Router.Handle("GET /api/chats/{channel}/state", Chain(handlers.StateHandler(s.Services), paramsMiddleware, apiAuth))
	s.Router.Handle("GET /api/chats/{channel}/settings", Chain(handlers.SettingsHandler(s.Services), paramsMiddleware, apiAuth))
	s.Router.Handle("GET /api/chats/{channel}/votes", Chain(handlers.TallyHandler(s.Services), paramsMiddleware, apiAuth))
	for name, op := range handlers.Operations() {
		s.Router.Handle("POST /api/chats/{channel}/"+name, Chain(handlers.OperationHandler(s.Services, name, op), paramsMiddleware, apiAuth))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
