package processor

import (
	"context"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/results"
)

func cards(st *draft.State, want draft.CardStep) (*draft.Cards, error) {
	if st.Phase != draft.PhaseCards || st.Cards == nil {
		return nil, apperrors.Stalef("cards are not being entered")
	}
	if st.Cards.Step != want {
		return nil, apperrors.Stalef("expected a card %s, not a %s", st.Cards.Step, want)
	}
	return st.Cards, nil
}

func cardEvent(c draft.Card) results.EventType {
	if c == draft.Red {
		return results.EventRedCard
	}
	return results.EventYellowCard
}

// PickCardPlayer starts a card entry for playerID.
func (p *Processor) PickCardPlayer(ctx context.Context, key chat.Key, admin auth.Actor, playerID int64) (*draft.State, error) {
	return p.run(ctx, key, "pick_card_player", admin, true, func(ctx context.Context, x *step) error {
		c, err := cards(x.st, draft.CardPickPlayer)
		if err != nil {
			return err
		}
		if _, ok := x.st.Member(playerID); !ok {
			return apperrors.Invalidf("player %d did not play", playerID)
		}
		c.PlayerID = playerID
		c.Step = draft.CardPickColor
		return nil
	})
}

// PickCardColor books the card. With card times tracked the event waits for a minute.
func (p *Processor) PickCardColor(ctx context.Context, key chat.Key, admin auth.Actor, color draft.Card) (*draft.State, error) {
	return p.run(ctx, key, "pick_card_color", admin, true, func(ctx context.Context, x *step) error {
		c, err := cards(x.st, draft.CardPickColor)
		if err != nil {
			return err
		}
		d := results.Delta{}
		switch color {
		case draft.Yellow:
			d.YellowCards = 1
		case draft.Red:
			d.RedCards = 1
		default:
			return apperrors.Invalidf("unknown card %q", color)
		}
		historyID, err := p.results.UpsertHistory(ctx, x.st.MatchID, c.PlayerID, d)
		if err != nil {
			return err
		}
		c.HistoryID = historyID
		c.Color = color
		if x.settings.TrackCardTimes {
			c.Step = draft.CardPickMinute
			return nil
		}
		if _, err := p.results.AppendEvent(ctx, historyID, cardEvent(color), nil); err != nil {
			return err
		}
		resetCard(c)
		return nil
	})
}

// EnterCardMinute logs the booked card at minute. The floor is shared with goals.
func (p *Processor) EnterCardMinute(ctx context.Context, key chat.Key, admin auth.Actor, minute int) (*draft.State, error) {
	return p.run(ctx, key, "enter_card_minute", admin, true, func(ctx context.Context, x *step) error {
		c, err := cards(x.st, draft.CardPickMinute)
		if err != nil {
			return err
		}
		if err := checkMinute(minute); err != nil {
			return err
		}
		if _, err := p.results.AppendEvent(ctx, c.HistoryID, cardEvent(c.Color), &minute); err != nil {
			return err
		}
		x.st.LastMinute = minute
		resetCard(c)
		return nil
	})
}

// FinishCards ends card entry. A card booked but still waiting for its minute
// is logged without one; a player picked without a color is dropped.
func (p *Processor) FinishCards(ctx context.Context, key chat.Key, admin auth.Actor) (*draft.State, error) {
	return p.run(ctx, key, "finish_cards", admin, true, func(ctx context.Context, x *step) error {
		st := x.st
		if st.Phase != draft.PhaseCards || st.Cards == nil {
			return apperrors.Stalef("cards are not being entered")
		}
		if c := st.Cards; c.Step == draft.CardPickMinute {
			if _, err := p.results.AppendEvent(ctx, c.HistoryID, cardEvent(c.Color), nil); err != nil {
				return err
			}
		}
		st.Cards = nil
		st.Phase = draft.PhaseRating
		return nil
	})
}

func resetCard(c *draft.Cards) {
	c.Step = draft.CardPickPlayer
	c.PlayerID = 0
	c.HistoryID = 0
	c.Color = ""
}
