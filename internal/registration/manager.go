// Package registration turns the configured player count into admission
// decisions and runs the single-slot promotion gate of the waiting queue.
package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
	"github.com/charmbracelet/log"
	"github.com/elliotchance/pie/v2"
)

// Manager owns admission and queue promotion. All mutations of one chat are
// serialized so that two registrations near the slot boundary cannot both be
// admitted.
type Manager struct {
	roster   roster.Store
	settings settings.Store
	auth     auth.Authorizer
	notifier notifier.Notifier
	metrics  metrics.Metrics
	locks    *chat.Locker
}

// NewManager creates a registration Manager.
func NewManager(r roster.Store, s settings.Store, a auth.Authorizer, n notifier.Notifier, m metrics.Metrics) *Manager {
	return &Manager{
		roster:   r,
		settings: s,
		auth:     a,
		notifier: n,
		metrics:  m,
		locks:    chat.NewLocker(),
	}
}

func validPosition(p roster.Position) bool {
	return p == roster.Attacker || p == roster.Defender || p == roster.Goalkeeper
}

// Register signs actor up for the open match of key.
func (m *Manager) Register(ctx context.Context, key chat.Key, actor auth.Actor, position roster.Position) (roster.Registration, error) {
	if actor.AccountID == "" {
		return roster.Registration{}, apperrors.Invalidf("registration needs an account")
	}
	player, err := m.roster.EnsurePlayer(ctx, actor.AccountID, actor.Name)
	if err != nil {
		return roster.Registration{}, err
	}
	return m.RegisterPlayer(ctx, key, player.ID, position)
}

// AddLegionnaire creates a guest player managed by admin and registers them.
func (m *Manager) AddLegionnaire(ctx context.Context, key chat.Key, admin auth.Actor, name string, position roster.Position) (roster.Registration, error) {
	if err := auth.Require(ctx, m.auth, admin, key); err != nil {
		return roster.Registration{}, err
	}
	if name == "" {
		return roster.Registration{}, apperrors.Invalidf("legionnaire needs a name")
	}
	player, err := m.roster.EnsurePlayer(ctx, "", name)
	if err != nil {
		return roster.Registration{}, err
	}
	return m.RegisterPlayer(ctx, key, player.ID, position)
}

// RegisterPlayer admits playerID as active or queued. A player who is already
// registered keeps their status and only changes position.
func (m *Manager) RegisterPlayer(ctx context.Context, key chat.Key, playerID int64, position roster.Position) (roster.Registration, error) {
	if !validPosition(position) {
		return roster.Registration{}, apperrors.Invalidf("unknown position %q", position)
	}
	unlock := m.locks.Lock(key)
	defer unlock()

	st, err := m.settings.Get(ctx, key)
	if err != nil {
		return roster.Registration{}, err
	}
	regs, err := m.roster.ListRegistrations(ctx, key)
	if err != nil {
		return roster.Registration{}, err
	}

	status := roster.StatusActive
	existing, found := findRegistration(regs, playerID)
	if found && existing.Status != roster.StatusNotComing {
		status = existing.Status
	} else {
		profile, err := m.roster.GetProfile(ctx, playerID, key)
		if err != nil {
			return roster.Registration{}, err
		}
		if !profile.IsCore {
			others := pie.Filter(regs, func(r roster.Registration) bool { return r.PlayerID != playerID })
			occupied, err := m.occupancy(ctx, key, st, others)
			if err != nil {
				return roster.Registration{}, err
			}
			if occupied >= st.PlayerCount {
				status = roster.StatusQueue
			}
		}
	}

	if err := m.roster.UpsertRegistration(ctx, playerID, key, position, status); err != nil {
		return roster.Registration{}, err
	}
	reg, err := m.roster.GetRegistration(ctx, playerID, key)
	if err != nil {
		return roster.Registration{}, err
	}
	if !st.IsActive {
		if err := m.settings.Set(ctx, key, "is_active", "1"); err != nil {
			log.Warn("Failed to mark chat active", "chat", key, "error", err)
		}
	}
	log.Info("Player registered", "chat", key, "player", playerID, "status", status, "position", position)
	m.metrics.IncRegistrations(string(status))
	m.announce(ctx, key, st)
	return reg, nil
}

// Unregister removes actor's registration and offers a freed slot to the queue.
func (m *Manager) Unregister(ctx context.Context, key chat.Key, actor auth.Actor) error {
	player, err := m.roster.FindPlayerByAccount(ctx, actor.AccountID)
	if err != nil {
		return err
	}
	return m.remove(ctx, key, player.ID)
}

// ForceRemove lets an admin remove any registration.
func (m *Manager) ForceRemove(ctx context.Context, key chat.Key, admin auth.Actor, playerID int64) error {
	if err := auth.Require(ctx, m.auth, admin, key); err != nil {
		return err
	}
	return m.remove(ctx, key, playerID)
}

func (m *Manager) remove(ctx context.Context, key chat.Key, playerID int64) error {
	unlock := m.locks.Lock(key)
	defer unlock()

	if err := m.roster.DeleteRegistration(ctx, playerID, key); err != nil {
		return err
	}
	log.Info("Registration removed", "chat", key, "player", playerID)
	if _, err := m.promote(ctx, key); err != nil {
		return err
	}
	st, err := m.settings.Get(ctx, key)
	if err != nil {
		return err
	}
	m.announce(ctx, key, st)
	return nil
}

// SetNotComing records that actor declined this match. For core players this
// releases their reserved slot.
func (m *Manager) SetNotComing(ctx context.Context, key chat.Key, actor auth.Actor) error {
	if actor.AccountID == "" {
		return apperrors.Invalidf("not-coming needs an account")
	}
	player, err := m.roster.EnsurePlayer(ctx, actor.AccountID, actor.Name)
	if err != nil {
		return err
	}

	unlock := m.locks.Lock(key)
	defer unlock()

	position := roster.Attacker
	existing, err := m.roster.GetRegistration(ctx, player.ID, key)
	switch {
	case err == nil:
		position = existing.Position
	case !errors.Is(err, apperrors.ErrNotFound):
		return err
	}
	if err := m.roster.UpsertRegistration(ctx, player.ID, key, position, roster.StatusNotComing); err != nil {
		return err
	}
	log.Info("Player not coming", "chat", key, "player", player.ID)
	m.metrics.IncRegistrations(string(roster.StatusNotComing))
	if _, err := m.promote(ctx, key); err != nil {
		return err
	}
	st, err := m.settings.Get(ctx, key)
	if err != nil {
		return err
	}
	m.announce(ctx, key, st)
	return nil
}

// PromoteFromQueue offers a free slot to the queue. It returns the registration
// now holding the confirmation gate, or nil when nothing was offered.
func (m *Manager) PromoteFromQueue(ctx context.Context, key chat.Key) (*roster.Registration, error) {
	unlock := m.locks.Lock(key)
	defer unlock()
	return m.promote(ctx, key)
}

func (m *Manager) promote(ctx context.Context, key chat.Key) (*roster.Registration, error) {
	st, err := m.settings.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	regs, err := m.roster.ListRegistrations(ctx, key)
	if err != nil {
		return nil, err
	}
	occupied, err := m.occupancy(ctx, key, st, regs)
	if err != nil {
		return nil, err
	}
	if occupied >= st.PlayerCount {
		return nil, nil
	}

	board := roster.NewBoard(regs, st.PlayerCount, occupied)
	var next roster.Registration
	switch {
	case len(board.Pending) > 0:
		next = board.Pending[0]
	case len(board.Queue) > 0:
		next = board.Queue[0]
		if err := m.roster.SetRegistrationStatus(ctx, next.PlayerID, key, roster.StatusPendingConfirm); err != nil {
			return nil, err
		}
		next.Status = roster.StatusPendingConfirm
		m.metrics.IncPromotions()
		log.Info("Queue promotion offered", "chat", key, "player", next.PlayerID)
	default:
		return nil, nil
	}

	if err := m.notifier.SendPromotionOffer(ctx, key, next); err != nil {
		log.Error("Failed to send promotion offer", "chat", key, "player", next.PlayerID, "error", err)
	}
	return &next, nil
}

// ConfirmPromotion accepts a promotion offer. Only the offered player or an admin may act.
func (m *Manager) ConfirmPromotion(ctx context.Context, key chat.Key, actor auth.Actor, playerID int64) error {
	unlock := m.locks.Lock(key)
	defer unlock()

	reg, err := m.pendingFor(ctx, key, actor, playerID)
	if err != nil {
		return err
	}
	if err := m.roster.SetRegistrationStatus(ctx, reg.PlayerID, key, roster.StatusActive); err != nil {
		return err
	}
	log.Info("Queue promotion confirmed", "chat", key, "player", playerID)
	m.metrics.IncRegistrations(string(roster.StatusActive))
	st, err := m.settings.Get(ctx, key)
	if err != nil {
		return err
	}
	m.announce(ctx, key, st)
	return nil
}

// DeclinePromotion drops the offered registration and passes the slot on.
func (m *Manager) DeclinePromotion(ctx context.Context, key chat.Key, actor auth.Actor, playerID int64) error {
	unlock := m.locks.Lock(key)
	defer unlock()

	reg, err := m.pendingFor(ctx, key, actor, playerID)
	if err != nil {
		return err
	}
	if err := m.roster.DeleteRegistration(ctx, reg.PlayerID, key); err != nil {
		return err
	}
	log.Info("Queue promotion declined", "chat", key, "player", playerID)
	if _, err := m.promote(ctx, key); err != nil {
		return err
	}
	st, err := m.settings.Get(ctx, key)
	if err != nil {
		return err
	}
	m.announce(ctx, key, st)
	return nil
}

// pendingFor re-validates a confirm/decline button against stored state.
func (m *Manager) pendingFor(ctx context.Context, key chat.Key, actor auth.Actor, playerID int64) (roster.Registration, error) {
	reg, err := m.roster.GetRegistration(ctx, playerID, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return roster.Registration{}, apperrors.Stalef("registration of player %d is gone", playerID)
	}
	if err != nil {
		return roster.Registration{}, err
	}
	if reg.Status != roster.StatusPendingConfirm {
		return roster.Registration{}, apperrors.Stalef("registration of player %d is %s", playerID, reg.Status)
	}
	if reg.Player.AccountID != "" && reg.Player.AccountID == actor.AccountID {
		return reg, nil
	}
	admin, err := m.auth.IsPrivileged(ctx, actor.AccountID, key)
	if err != nil {
		return roster.Registration{}, fmt.Errorf("failed to check privileges: %w", err)
	}
	if !admin {
		return roster.Registration{}, apperrors.ErrNotYourAction
	}
	return reg, nil
}

// Board returns the current registrations grouped by status.
func (m *Manager) Board(ctx context.Context, key chat.Key) (roster.Board, error) {
	st, err := m.settings.Get(ctx, key)
	if err != nil {
		return roster.Board{}, err
	}
	regs, err := m.roster.ListRegistrations(ctx, key)
	if err != nil {
		return roster.Board{}, err
	}
	occupied, err := m.occupancy(ctx, key, st, regs)
	if err != nil {
		return roster.Board{}, err
	}
	return roster.NewBoard(regs, st.PlayerCount, occupied), nil
}

// occupancy counts active registrations plus, in core-team mode, core players
// who hold an implicit reservation: not active and not declined.
func (m *Manager) occupancy(ctx context.Context, key chat.Key, st settings.Settings, regs []roster.Registration) (int, error) {
	occupied := len(pie.Filter(regs, func(r roster.Registration) bool { return r.Status == roster.StatusActive }))
	if !st.CoreTeamMode {
		return occupied, nil
	}
	cores, err := m.roster.ListCorePlayers(ctx, key)
	if err != nil {
		return 0, err
	}
	for _, c := range cores {
		r, ok := findRegistration(regs, c.PlayerID)
		if !ok || (r.Status != roster.StatusActive && r.Status != roster.StatusNotComing) {
			occupied++
		}
	}
	return occupied, nil
}

func (m *Manager) announce(ctx context.Context, key chat.Key, st settings.Settings) {
	regs, err := m.roster.ListRegistrations(ctx, key)
	if err != nil {
		log.Error("Failed to list registrations for roster update", "chat", key, "error", err)
		return
	}
	occupied, err := m.occupancy(ctx, key, st, regs)
	if err != nil {
		log.Error("Failed to compute occupancy", "chat", key, "error", err)
		return
	}
	if err := m.notifier.SendRoster(ctx, key, roster.NewBoard(regs, st.PlayerCount, occupied)); err != nil {
		log.Error("Failed to send roster", "chat", key, "error", err)
	}
}

func findRegistration(regs []roster.Registration, playerID int64) (roster.Registration, bool) {
	idx := pie.FindFirstUsing(regs, func(r roster.Registration) bool { return r.PlayerID == playerID })
	if idx < 0 {
		return roster.Registration{}, false
	}
	return regs[idx], true
}
