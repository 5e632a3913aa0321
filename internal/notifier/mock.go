package notifier

import (
	"context"
	"sync"

	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendRosterCalls          []roster.Board
	SendPromotionOfferCalls  []roster.Registration
	SendDraftStatusCalls     []*draft.State
	SendVariantsCalls        [][]draft.Variant
	SendVoteTallyCalls       []Tally
	SendTeamsCommittedCalls  []string
	SendDuplicatePromptCalls []results.Match
	SendScoringPromptCalls   []ScoringPrompt
	SendCardPromptCalls      []CardPrompt
	SendRatingPromptCalls    []RatingPrompt
	SendPaymentReportCalls   []PaymentReport
	SendMatchFinishedCalls   []MatchSummary
	SendMatchStatsCalls      []MatchSummary

	// Err, when set, is returned by every method after recording the call.
	Err error
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRosterCalls = nil
	m.SendPromotionOfferCalls = nil
	m.SendDraftStatusCalls = nil
	m.SendVariantsCalls = nil
	m.SendVoteTallyCalls = nil
	m.SendTeamsCommittedCalls = nil
	m.SendDuplicatePromptCalls = nil
	m.SendScoringPromptCalls = nil
	m.SendCardPromptCalls = nil
	m.SendRatingPromptCalls = nil
	m.SendPaymentReportCalls = nil
	m.SendMatchFinishedCalls = nil
	m.SendMatchStatsCalls = nil
	m.Err = nil
}

func (m *Mock) SendRoster(_ context.Context, _ chat.Key, board roster.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRosterCalls = append(m.SendRosterCalls, board)
	return m.Err
}

func (m *Mock) SendPromotionOffer(_ context.Context, _ chat.Key, reg roster.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendPromotionOfferCalls = append(m.SendPromotionOfferCalls, reg)
	return m.Err
}

func (m *Mock) SendDraftStatus(_ context.Context, _ chat.Key, st *draft.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendDraftStatusCalls = append(m.SendDraftStatusCalls, st.Clone())
	return m.Err
}

func (m *Mock) SendVariants(_ context.Context, _ chat.Key, variants []draft.Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendVariantsCalls = append(m.SendVariantsCalls, variants)
	return m.Err
}

func (m *Mock) SendVoteTally(_ context.Context, _ chat.Key, tally Tally) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendVoteTallyCalls = append(m.SendVoteTallyCalls, tally)
	return m.Err
}

func (m *Mock) SendTeamsCommitted(_ context.Context, _ chat.Key, _ *draft.State, variantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendTeamsCommittedCalls = append(m.SendTeamsCommittedCalls, variantID)
	return m.Err
}

func (m *Mock) SendDuplicatePrompt(_ context.Context, _ chat.Key, existing results.Match, _ draft.PendingScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendDuplicatePromptCalls = append(m.SendDuplicatePromptCalls, existing)
	return m.Err
}

func (m *Mock) SendScoringPrompt(_ context.Context, _ chat.Key, p ScoringPrompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendScoringPromptCalls = append(m.SendScoringPromptCalls, p)
	return m.Err
}

func (m *Mock) SendCardPrompt(_ context.Context, _ chat.Key, p CardPrompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendCardPromptCalls = append(m.SendCardPromptCalls, p)
	return m.Err
}

func (m *Mock) SendRatingPrompt(_ context.Context, _ chat.Key, p RatingPrompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRatingPromptCalls = append(m.SendRatingPromptCalls, p)
	return m.Err
}

func (m *Mock) SendPaymentReport(_ context.Context, _ chat.Key, p PaymentReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendPaymentReportCalls = append(m.SendPaymentReportCalls, p)
	return m.Err
}

func (m *Mock) SendMatchFinished(_ context.Context, _ chat.Key, s MatchSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchFinishedCalls = append(m.SendMatchFinishedCalls, s)
	return m.Err
}

func (m *Mock) SendMatchStats(_ context.Context, _ chat.Key, s MatchSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchStatsCalls = append(m.SendMatchStatsCalls, s)
	return m.Err
}
