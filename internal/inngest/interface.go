package inngest

import (
	"context"
	"net/http"

	"github.com/Valikazar/football-magager-bot/internal/pubsub"
)

type InngestClient interface {
	Serve() http.Handler
	// SendMatchFinished triggers the post-match summary workflow.
	SendMatchFinished(ctx context.Context, ev pubsub.MatchFinished) error
}
