package inngest

import (
	"context"
	"net/http"
	"sync"

	"github.com/Valikazar/football-magager-bot/internal/pubsub"
)

var _ InngestClient = (*Mock)(nil)

// Mock records triggered workflows.
type Mock struct {
	mu sync.Mutex

	SendMatchFinishedFunc  func(ev pubsub.MatchFinished) error
	SendMatchFinishedCalls []pubsub.MatchFinished
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchFinishedCalls = nil
}

func (m *Mock) Serve() http.Handler {
	return http.NotFoundHandler()
}

func (m *Mock) SendMatchFinished(_ context.Context, ev pubsub.MatchFinished) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchFinishedCalls = append(m.SendMatchFinishedCalls, ev)
	if m.SendMatchFinishedFunc != nil {
		return m.SendMatchFinishedFunc(ev)
	}
	return nil
}
