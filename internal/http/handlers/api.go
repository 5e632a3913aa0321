package handlers

import (
	"context"
	"net/http"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/draw"
	"github.com/Valikazar/football-magager-bot/internal/processor"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Request is the body of every operation endpoint. Each operation reads the
// fields it needs.
type Request struct {
	Actor     auth.Actor          `json:"actor"`
	PlayerID  int64               `json:"player_id"`
	Team      int64               `json:"team"`
	Position  roster.Position     `json:"position" validate:"omitempty,oneof=attacker defender goalkeeper"`
	Name      string              `json:"name"`
	Value     string              `json:"value"`
	Text      string              `json:"text"`
	Minute    int                 `json:"minute" validate:"min=0,max=130"`
	Grade     int                 `json:"grade" validate:"omitempty,min=1,max=5"`
	VariantID string              `json:"variant_id"`
	Decision  processor.Decision  `json:"decision" validate:"omitempty,oneof=overwrite new cancel"`
	Color     draft.Card          `json:"color" validate:"omitempty,oneof=yellow red"`
	Payment   roster.PaymentState `json:"payment" validate:"min=0,max=2"`
	Captains  []int64             `json:"captains" validate:"omitempty,len=2"`
	Draw      draw.Request        `json:"draw"`
}

// Operation runs one named lifecycle operation for the chat key.
type Operation func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error)

type ok struct {
	OK bool `json:"ok"`
}

func done(err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return ok{OK: true}, nil
}

// Operations lists the operation endpoints by path.
func Operations() map[string]Operation {
	return map[string]Operation{
		"register": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			position := req.Position
			if position == "" {
				position = roster.Attacker
			}
			return svc.Registration.Register(ctx, key, req.Actor, position)
		},
		"legionnaire": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			position := req.Position
			if position == "" {
				position = roster.Attacker
			}
			return svc.Registration.AddLegionnaire(ctx, key, req.Actor, req.Name, position)
		},
		"unregister": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return done(svc.Registration.Unregister(ctx, key, req.Actor))
		},
		"not-coming": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return done(svc.Registration.SetNotComing(ctx, key, req.Actor))
		},
		"remove": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return done(svc.Registration.ForceRemove(ctx, key, req.Actor, req.PlayerID))
		},
		"promote": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			if err := auth.Require(ctx, svc.Auth, req.Actor, key); err != nil {
				return nil, err
			}
			return svc.Registration.PromoteFromQueue(ctx, key)
		},
		"promotion/confirm": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return done(svc.Registration.ConfirmPromotion(ctx, key, req.Actor, req.PlayerID))
		},
		"promotion/decline": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return done(svc.Registration.DeclinePromotion(ctx, key, req.Actor, req.PlayerID))
		},
		"settings": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			if err := auth.Require(ctx, svc.Auth, req.Actor, key); err != nil {
				return nil, err
			}
			if err := svc.Settings.Set(ctx, key, req.Name, req.Value); err != nil {
				return nil, err
			}
			return svc.Settings.Get(ctx, key)
		},
		"draw/vote": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Draw.StartVoting(ctx, key, req.Actor, req.Draw)
		},
		"draw/draft": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Draw.StartDraft(ctx, key, req.Actor, req.Captains)
		},
		"draw/pick": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Draw.Pick(ctx, key, req.Actor, req.PlayerID)
		},
		"clear": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return done(svc.Draw.Clear(ctx, key, req.Actor))
		},
		"votes": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Voting.Cast(ctx, key, req.Actor, req.VariantID)
		},
		"votes/finish": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Voting.ForceFinish(ctx, key, req.Actor)
		},
		"score": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.EnterScore(ctx, key, req.Actor, req.Text)
		},
		"score/duplicate": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.ResolveDuplicate(ctx, key, req.Actor, req.Decision)
		},
		"scoring/autogoal": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.ToggleAutogoal(ctx, key, req.Actor)
		},
		"scoring/scorer": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.PickScorer(ctx, key, req.Actor, req.PlayerID)
		},
		"scoring/minute": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.EnterMinute(ctx, key, req.Actor, req.Minute)
		},
		"scoring/assist": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.PickAssist(ctx, key, req.Actor, req.PlayerID)
		},
		"scoring/no-assist": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.NoAssist(ctx, key, req.Actor)
		},
		"scoring/penalty": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.MarkPenalty(ctx, key, req.Actor)
		},
		"cards/player": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.PickCardPlayer(ctx, key, req.Actor, req.PlayerID)
		},
		"cards/color": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.PickCardColor(ctx, key, req.Actor, req.Color)
		},
		"cards/minute": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.EnterCardMinute(ctx, key, req.Actor, req.Minute)
		},
		"cards/finish": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.FinishCards(ctx, key, req.Actor)
		},
		"rating/start": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.StartTeamRating(ctx, key, req.Actor, req.Team)
		},
		"rating/pick": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.RatePick(ctx, key, req.Actor, req.Team, req.PlayerID)
		},
		"rating/score": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.RateScore(ctx, key, req.Actor, req.Team, req.PlayerID, req.Grade)
		},
		"rating/defender": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return svc.Processor.PickDefender(ctx, key, req.Actor, req.Team, req.PlayerID)
		},
		"payments": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return done(svc.Processor.SetPayment(ctx, key, req.Actor, req.PlayerID, req.Payment))
		},
		"payments/confirm-all": func(ctx context.Context, svc Services, key chat.Key, req Request) (any, error) {
			return done(svc.Processor.ConfirmAllPayments(ctx, key, req.Actor))
		},
	}
}

// chatKey reads the chat from the {channel} path value and the thread query parameter.
func chatKey(r *http.Request) (chat.Key, error) {
	channel := r.PathValue("channel")
	if channel == "" {
		return chat.Key{}, apperrors.Invalidf("missing channel")
	}
	return chat.NewKey(channel, r.URL.Query().Get("thread")), nil
}

// OperationHandler decodes and validates a Request and runs op with it.
func OperationHandler(svc Services, name string, op Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := chatKey(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req Request
		if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.Invalidf("invalid JSON: %v", err))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, apperrors.Invalidf("%v", err))
			return
		}
		log.Debug("Running operation", "op", name, "chat", key, "actor", req.Actor.AccountID)
		out, err := op(r.Context(), svc, key, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func RosterHandler(svc Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := chatKey(r)
		if err != nil {
			writeError(w, err)
			return
		}
		board, err := svc.Registration.Board(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}

// StateHandler returns the in-flight session of the chat, 404 when there is none.
func StateHandler(svc Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := chatKey(r)
		if err != nil {
			writeError(w, err)
			return
		}
		st, err := svc.Drafts.Get(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		if st == nil {
			writeError(w, apperrors.ErrNoTeamData)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func SettingsHandler(svc Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := chatKey(r)
		if err != nil {
			writeError(w, err)
			return
		}
		s, err := svc.Settings.Get(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func TallyHandler(svc Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := chatKey(r)
		if err != nil {
			writeError(w, err)
			return
		}
		tally, err := svc.Voting.Tally(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tally)
	}
}
