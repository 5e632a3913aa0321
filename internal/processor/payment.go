package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/payment"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
	"github.com/charmbracelet/log"
)

// errNotWaiting aborts the payment gate without writing the state.
var errNotWaiting = errors.New("match is not waiting for payments")

// SetPayment changes the payment state of playerID. Players mark their own
// payment; confirming or changing someone else's needs an admin. When the
// match only waits for payments, the change may complete the cycle.
func (p *Processor) SetPayment(ctx context.Context, key chat.Key, actor auth.Actor, playerID int64, state roster.PaymentState) error {
	if state < roster.Unpaid || state > roster.Confirmed {
		p.metrics.IncRejections("set_payment")
		return apperrors.Invalidf("unknown payment state %d", state)
	}
	reg, err := p.roster.GetRegistration(ctx, playerID, key)
	if err != nil {
		return err
	}
	admin, err := p.isAdmin(ctx, key, actor)
	if err != nil {
		return err
	}
	own := reg.Player.AccountID != "" && reg.Player.AccountID == actor.AccountID
	switch {
	case admin:
	case state == roster.Confirmed:
		p.metrics.IncRejections("set_payment")
		return fmt.Errorf("only admins confirm payments: %w", apperrors.ErrUnauthorized)
	case !own:
		p.metrics.IncRejections("set_payment")
		return fmt.Errorf("payment of player %d belongs to someone else: %w", playerID, apperrors.ErrNotYourAction)
	}

	if err := p.roster.SetPaymentState(ctx, playerID, key, state); err != nil {
		return err
	}
	log.Info("Payment updated", "chat", key, "player", playerID, "state", state, "actor", actor.AccountID)
	return p.paymentChanged(ctx, key)
}

// ConfirmAllPayments confirms every active registrant's payment.
func (p *Processor) ConfirmAllPayments(ctx context.Context, key chat.Key, admin auth.Actor) error {
	if err := auth.Require(ctx, p.auth, admin, key); err != nil {
		p.metrics.IncRejections("confirm_all_payments")
		return err
	}
	regs, err := p.roster.ListRegistrations(ctx, key)
	if err != nil {
		return err
	}
	for _, r := range payment.Active(regs) {
		if r.Payment == roster.Confirmed {
			continue
		}
		if err := p.roster.SetPaymentState(ctx, r.PlayerID, key, roster.Confirmed); err != nil {
			return err
		}
	}
	log.Info("All payments confirmed", "chat", key, "admin", admin.AccountID)
	return p.paymentChanged(ctx, key)
}

// paymentChanged tears the match down when it only waited for payments and
// they are now complete, otherwise refreshes the payment report.
func (p *Processor) paymentChanged(ctx context.Context, key chat.Key) error {
	s, err := p.settings.Get(ctx, key)
	if err != nil {
		return err
	}
	var last *draft.State
	_, err = p.drafts.Update(ctx, key, func(st *draft.State) (*draft.State, error) {
		if st == nil || st.Phase != draft.PhaseAwaitingPayment {
			return nil, errNotWaiting
		}
		paid, err := p.paid(ctx, key, s)
		if err != nil {
			return nil, err
		}
		if !paid {
			return nil, errNotWaiting
		}
		last = st
		return nil, nil
	})
	switch {
	case errors.Is(err, errNotWaiting):
		st, err := p.drafts.Get(ctx, key)
		if err != nil {
			return err
		}
		var matchID int64
		if st != nil {
			matchID = st.MatchID
		}
		p.report(ctx, key, "payment", p.sendPaymentReport(ctx, key, matchID, s))
		return nil
	case err != nil:
		return err
	}
	return p.teardown(ctx, key, last, s)
}

func (p *Processor) sendPaymentReport(ctx context.Context, key chat.Key, matchID int64, s settings.Settings) error {
	if !s.CostIsSet() {
		return nil
	}
	regs, err := p.roster.ListRegistrations(ctx, key)
	if err != nil {
		return err
	}
	unpaid, claimed, confirmed := payment.Split(regs)
	return p.notifier.SendPaymentReport(ctx, key, notifier.PaymentReport{
		MatchID:     matchID,
		Cost:        payment.PlayerCost(s, len(payment.Active(regs))),
		Unpaid:      unpaid,
		Claimed:     claimed,
		Confirmed:   confirmed,
		NeedConfirm: s.RequirePaymentConfirmation,
	})
}
