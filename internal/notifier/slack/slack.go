package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier renders lifecycle prompts as Block Kit messages in the chat's channel or thread.
type Notifier struct {
	api     slackClient
	metrics metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:     slack.New(token),
		metrics: metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:     api,
		metrics: metrics,
	}
}

func (s *Notifier) sendMessage(ctx context.Context, key chat.Key, message slack.Message) error {
	if notifier.IsDryRun(ctx) {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "chat", key, "message", string(jsonMsg))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	options := []slack.MsgOption{slack.MsgOptionBlocks(message.Blocks.BlockSet...)}
	if key.ThreadID != "" {
		options = append(options, slack.MsgOptionTS(key.ThreadID))
	}
	channelID, timestamp, err := s.api.PostMessageContext(ctx, key.ChannelID, options...)
	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "chat", key)
		return fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Debug("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return nil
}

func (s *Notifier) SendRoster(ctx context.Context, key chat.Key, board roster.Board) error {
	return s.sendMessage(ctx, key, formatRoster(board))
}

func (s *Notifier) SendPromotionOffer(ctx context.Context, key chat.Key, reg roster.Registration) error {
	return s.sendMessage(ctx, key, formatPromotionOffer(reg))
}

func (s *Notifier) SendDraftStatus(ctx context.Context, key chat.Key, st *draft.State) error {
	return s.sendMessage(ctx, key, formatDraftStatus(st))
}

func (s *Notifier) SendVariants(ctx context.Context, key chat.Key, variants []draft.Variant) error {
	return s.sendMessage(ctx, key, formatVariants(variants))
}

func (s *Notifier) SendVoteTally(ctx context.Context, key chat.Key, tally notifier.Tally) error {
	return s.sendMessage(ctx, key, formatVoteTally(tally))
}

func (s *Notifier) SendTeamsCommitted(ctx context.Context, key chat.Key, st *draft.State, variantID string) error {
	return s.sendMessage(ctx, key, formatTeamsCommitted(st, variantID))
}

func (s *Notifier) SendDuplicatePrompt(ctx context.Context, key chat.Key, existing results.Match, pending draft.PendingScore) error {
	return s.sendMessage(ctx, key, formatDuplicatePrompt(existing, pending))
}

func (s *Notifier) SendScoringPrompt(ctx context.Context, key chat.Key, p notifier.ScoringPrompt) error {
	return s.sendMessage(ctx, key, formatScoringPrompt(p))
}

func (s *Notifier) SendCardPrompt(ctx context.Context, key chat.Key, p notifier.CardPrompt) error {
	return s.sendMessage(ctx, key, formatCardPrompt(p))
}

func (s *Notifier) SendRatingPrompt(ctx context.Context, key chat.Key, p notifier.RatingPrompt) error {
	return s.sendMessage(ctx, key, formatRatingPrompt(p))
}

func (s *Notifier) SendPaymentReport(ctx context.Context, key chat.Key, p notifier.PaymentReport) error {
	return s.sendMessage(ctx, key, formatPaymentReport(p))
}

func (s *Notifier) SendMatchFinished(ctx context.Context, key chat.Key, m notifier.MatchSummary) error {
	return s.sendMessage(ctx, key, formatMatchFinished(m))
}

func (s *Notifier) SendMatchStats(ctx context.Context, key chat.Key, m notifier.MatchSummary) error {
	return s.sendMessage(ctx, key, formatMatchStats(m))
}
