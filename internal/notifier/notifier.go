package notifier

import (
	"context"

	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
)

// Notifier defines a high-level interface for rendering lifecycle prompts and announcements.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
// Implementations receive structured data only; all user-facing text is theirs.
type Notifier interface {
	// Registration
	SendRoster(ctx context.Context, key chat.Key, board roster.Board) error
	SendPromotionOffer(ctx context.Context, key chat.Key, reg roster.Registration) error

	// Draw
	SendDraftStatus(ctx context.Context, key chat.Key, st *draft.State) error
	SendVariants(ctx context.Context, key chat.Key, variants []draft.Variant) error
	SendVoteTally(ctx context.Context, key chat.Key, tally Tally) error
	SendTeamsCommitted(ctx context.Context, key chat.Key, st *draft.State, variantID string) error

	// Scoring and rating
	SendDuplicatePrompt(ctx context.Context, key chat.Key, existing results.Match, pending draft.PendingScore) error
	SendScoringPrompt(ctx context.Context, key chat.Key, p ScoringPrompt) error
	SendCardPrompt(ctx context.Context, key chat.Key, p CardPrompt) error
	SendRatingPrompt(ctx context.Context, key chat.Key, p RatingPrompt) error
	SendPaymentReport(ctx context.Context, key chat.Key, p PaymentReport) error
	SendMatchFinished(ctx context.Context, key chat.Key, s MatchSummary) error
	// SendMatchStats posts the per-player breakdown of a finished match.
	SendMatchStats(ctx context.Context, key chat.Key, s MatchSummary) error
}

type dryRunKey struct{}

// WithDryRun marks ctx so that notifiers render but do not deliver.
func WithDryRun(ctx context.Context, dryRun bool) context.Context {
	return context.WithValue(ctx, dryRunKey{}, dryRun)
}

// IsDryRun reports whether ctx was marked with WithDryRun.
func IsDryRun(ctx context.Context) bool {
	v, _ := ctx.Value(dryRunKey{}).(bool)
	return v
}
