package http

import (
	"net/http"

	"github.com/Valikazar/football-magager-bot/internal/config"
	"github.com/Valikazar/football-magager-bot/internal/http/handlers"
	"github.com/Valikazar/football-magager-bot/internal/inngest"
	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
)

type Server struct {
	Services       handlers.Services
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	InngestClient  inngest.InngestClient
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}
