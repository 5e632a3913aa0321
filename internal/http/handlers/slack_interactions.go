package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/processor"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	internalslack "github.com/Valikazar/football-magager-bot/internal/slack"
	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"
)

// interaction handles one button press. value is the button's value.
type interaction func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error

func ids(value string, n int, fn func(ids []int64) error) error {
	parsed, err := internalslack.ParseValue(value, n)
	if err != nil {
		return err
	}
	return fn(parsed)
}

func discard[T any](_ T, err error) error {
	return err
}

var interactions = map[internalslack.ActionID]interaction{
	internalslack.ActionRegister: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return discard(svc.Registration.Register(ctx, key, actor, roster.Position(value)))
	},
	internalslack.ActionUnregister: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ string) error {
		return svc.Registration.Unregister(ctx, key, actor)
	},
	internalslack.ActionNotComing: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ string) error {
		return svc.Registration.SetNotComing(ctx, key, actor)
	},
	internalslack.ActionConfirmPromotion: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 1, func(v []int64) error { return svc.Registration.ConfirmPromotion(ctx, key, actor, v[0]) })
	},
	internalslack.ActionDeclinePromotion: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 1, func(v []int64) error { return svc.Registration.DeclinePromotion(ctx, key, actor, v[0]) })
	},
	internalslack.ActionPick: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 1, func(v []int64) error { return discard(svc.Draw.Pick(ctx, key, actor, v[0])) })
	},
	internalslack.ActionVote: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return discard(svc.Voting.Cast(ctx, key, actor, value))
	},
	internalslack.ActionForceFinish: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ string) error {
		return discard(svc.Voting.ForceFinish(ctx, key, actor))
	},
	internalslack.ActionDuplicate: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return discard(svc.Processor.ResolveDuplicate(ctx, key, actor, processor.Decision(value)))
	},
	internalslack.ActionToggleAutogoal: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ string) error {
		return discard(svc.Processor.ToggleAutogoal(ctx, key, actor))
	},
	internalslack.ActionScorer: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 1, func(v []int64) error { return discard(svc.Processor.PickScorer(ctx, key, actor, v[0])) })
	},
	internalslack.ActionAssist: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 1, func(v []int64) error { return discard(svc.Processor.PickAssist(ctx, key, actor, v[0])) })
	},
	internalslack.ActionNoAssist: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ string) error {
		return discard(svc.Processor.NoAssist(ctx, key, actor))
	},
	internalslack.ActionPenalty: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ string) error {
		return discard(svc.Processor.MarkPenalty(ctx, key, actor))
	},
	internalslack.ActionCardPlayer: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 1, func(v []int64) error { return discard(svc.Processor.PickCardPlayer(ctx, key, actor, v[0])) })
	},
	internalslack.ActionCardColor: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return discard(svc.Processor.PickCardColor(ctx, key, actor, draft.Card(value)))
	},
	internalslack.ActionFinishCards: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ string) error {
		return discard(svc.Processor.FinishCards(ctx, key, actor))
	},
	internalslack.ActionRateStart: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 1, func(v []int64) error { return discard(svc.Processor.StartTeamRating(ctx, key, actor, v[0])) })
	},
	internalslack.ActionRatePick: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 2, func(v []int64) error { return discard(svc.Processor.RatePick(ctx, key, actor, v[0], v[1])) })
	},
	internalslack.ActionRateScore: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 3, func(v []int64) error {
			return discard(svc.Processor.RateScore(ctx, key, actor, v[0], v[1], int(v[2])))
		})
	},
	internalslack.ActionDefender: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 2, func(v []int64) error { return discard(svc.Processor.PickDefender(ctx, key, actor, v[0], v[1])) })
	},
	internalslack.ActionPayment: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, value string) error {
		return ids(value, 2, func(v []int64) error {
			return svc.Processor.SetPayment(ctx, key, actor, v[0], roster.PaymentState(v[1]))
		})
	},
	internalslack.ActionConfirmAll: func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ string) error {
		return svc.Processor.ConfirmAllPayments(ctx, key, actor)
	},
}

// InteractionsHandler serves Slack block action callbacks. Rejections are
// answered with an ephemeral message through the callback's response URL.
func InteractionsHandler(svc Services, signingSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := verifySlackRequest(r, signingSecret); err != nil {
			log.Warn("Rejected Slack interaction", "error", err)
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		var cb slack.InteractionCallback
		if err := json.Unmarshal([]byte(r.FormValue("payload")), &cb); err != nil {
			log.Error("Failed to unmarshal interaction payload", "error", err)
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		if cb.Type != slack.InteractionTypeBlockActions {
			w.WriteHeader(http.StatusOK)
			return
		}

		key := chat.NewKey(cb.Channel.ID, cb.Message.ThreadTimestamp)
		actor := auth.Actor{AccountID: cb.User.ID, Name: cb.User.Name}
		for _, action := range cb.ActionCallback.BlockActions {
			id := internalslack.ParseActionID(action.ActionID)
			handle, ok := interactions[id]
			if !ok {
				log.Warn("Unknown Slack action", "action", action.ActionID)
				continue
			}
			log.Info("Received Slack action", "action", id, "chat", key, "user", actor.AccountID)
			err := handle(r.Context(), svc, key, actor, action.Value)
			if err == nil {
				continue
			}
			if !apperrors.IsRejection(err) {
				log.Error("Slack action failed", "action", id, "chat", key, "error", err)
			}
			if cb.ResponseURL != "" {
				reply := &slack.WebhookMessage{Text: userMessage(err), ResponseType: "ephemeral"}
				if err := slack.PostWebhookContext(r.Context(), cb.ResponseURL, reply); err != nil {
					log.Error("Failed to answer Slack action", "error", err)
				}
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
