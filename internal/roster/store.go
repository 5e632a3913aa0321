package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// New creates a new roster Store backed by db.
func New(db *sql.DB) Store {
	return &store{
		db:  db,
		now: time.Now,
	}
}

// stamp returns a strictly increasing timestamp so that queue order is stable
// even for registrations written within the same clock tick.
func (s *store) stamp(ctx context.Context, key chat.Key) (int64, error) {
	ts := s.now().UnixNano()
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(updated_at) FROM registrations WHERE channel_id = ? AND thread_id = ?`,
		key.ChannelID, key.ThreadID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to read queue stamp: %w", err)
	}
	if last.Valid && ts <= last.Int64 {
		ts = last.Int64 + 1
	}
	return ts, nil
}

func (s *store) EnsurePlayer(ctx context.Context, accountID, name string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accountID != "" {
		p, err := s.findByAccount(ctx, accountID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return Player{}, err
		}
	}

	var account any
	if accountID != "" {
		account = accountID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO players (account_id, name, created_at) VALUES (?, ?, ?)`,
		account, name, s.now().Unix())
	if err != nil {
		return Player{}, fmt.Errorf("failed to insert player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Player{}, fmt.Errorf("failed to read player id: %w", err)
	}
	log.Info("Created player", "id", id, "name", name, "legionnaire", accountID == "")
	return Player{ID: id, AccountID: accountID, Name: name}, nil
}

func (s *store) GetPlayer(ctx context.Context, playerID int64) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Player
	var account sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT id, account_id, name FROM players WHERE id = ?`, playerID).
		Scan(&p.ID, &account, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, fmt.Errorf("player %d: %w", playerID, apperrors.ErrNotFound)
	}
	if err != nil {
		return Player{}, fmt.Errorf("failed to get player: %w", err)
	}
	p.AccountID = account.String
	return p, nil
}

func (s *store) FindPlayerByAccount(ctx context.Context, accountID string) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByAccount(ctx, accountID)
}

func (s *store) findByAccount(ctx context.Context, accountID string) (Player, error) {
	var p Player
	err := s.db.QueryRowContext(ctx, `SELECT id, account_id, name FROM players WHERE account_id = ?`, accountID).
		Scan(&p.ID, &p.AccountID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	if err != nil {
		return Player{}, fmt.Errorf("failed to find player by account: %w", err)
	}
	return p, nil
}

// GetProfile returns the stored profile or the defaults when none exists yet.
func (s *store) GetProfile(ctx context.Context, playerID int64, key chat.Key) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := DefaultProfile(playerID, key)
	var isCore int
	err := s.db.QueryRowContext(ctx, `
		SELECT display_name, attack, defense, speed, goalkeeping, is_core
		FROM player_profiles WHERE player_id = ? AND channel_id = ? AND thread_id = ?`,
		playerID, key.ChannelID, key.ThreadID).
		Scan(&p.DisplayName, &p.Attack, &p.Defense, &p.Speed, &p.Goalkeeping, &isCore)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	p.IsCore = isCore == 1
	return p, nil
}

func (s *store) UpsertProfile(ctx context.Context, profile Profile) error {
	if err := validate.StructCtx(ctx, profile); err != nil {
		return fmt.Errorf("%w: profile validation failed: %v", apperrors.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_profiles (player_id, channel_id, thread_id, display_name, attack, defense, speed, goalkeeping, is_core)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_id, channel_id, thread_id) DO UPDATE SET
			display_name = excluded.display_name,
			attack = excluded.attack,
			defense = excluded.defense,
			speed = excluded.speed,
			goalkeeping = excluded.goalkeeping,
			is_core = excluded.is_core`,
		profile.PlayerID, profile.Key.ChannelID, profile.Key.ThreadID, profile.DisplayName,
		profile.Attack, profile.Defense, profile.Speed, profile.Goalkeeping, boolToInt(profile.IsCore))
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	log.Debug("Upserted profile", "player", profile.PlayerID, "chat", profile.Key)
	return nil
}

func (s *store) ListCorePlayers(ctx context.Context, key chat.Key) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, display_name, attack, defense, speed, goalkeeping
		FROM player_profiles
		WHERE channel_id = ? AND thread_id = ? AND is_core = 1
		ORDER BY player_id`, key.ChannelID, key.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list core players: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p := Profile{Key: key, IsCore: true}
		if err := rows.Scan(&p.PlayerID, &p.DisplayName, &p.Attack, &p.Defense, &p.Speed, &p.Goalkeeping); err != nil {
			return nil, fmt.Errorf("failed to scan core player: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

const registrationColumns = `
	r.player_id, r.position, r.payment, r.status, r.updated_at,
	p.account_id, p.name,
	COALESCE(pp.display_name, ''), COALESCE(pp.attack, 50), COALESCE(pp.defense, 50),
	COALESCE(pp.speed, 50), COALESCE(pp.goalkeeping, 50), COALESCE(pp.is_core, 0)`

const registrationJoin = `
	FROM registrations r
	JOIN players p ON p.id = r.player_id
	LEFT JOIN player_profiles pp
		ON pp.player_id = r.player_id AND pp.channel_id = r.channel_id AND pp.thread_id = r.thread_id`

func scanRegistration(scanner interface{ Scan(...any) error }, key chat.Key) (Registration, error) {
	var (
		r       Registration
		account sql.NullString
		updated int64
		isCore  int
	)
	err := scanner.Scan(
		&r.PlayerID, &r.Position, &r.Payment, &r.Status, &updated,
		&account, &r.Player.Name,
		&r.Profile.DisplayName, &r.Profile.Attack, &r.Profile.Defense,
		&r.Profile.Speed, &r.Profile.Goalkeeping, &isCore,
	)
	if err != nil {
		return Registration{}, err
	}
	r.Key = key
	r.UpdatedAt = time.Unix(0, updated)
	r.Player.ID = r.PlayerID
	r.Player.AccountID = account.String
	r.Profile.PlayerID = r.PlayerID
	r.Profile.Key = key
	r.Profile.IsCore = isCore == 1
	return r, nil
}

func (s *store) ListRegistrations(ctx context.Context, key chat.Key) ([]Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+registrationColumns+registrationJoin+`
		WHERE r.channel_id = ? AND r.thread_id = ?
		ORDER BY r.updated_at ASC, r.player_id ASC`, key.ChannelID, key.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var regs []Registration
	for rows.Next() {
		r, err := scanRegistration(rows, key)
		if err != nil {
			log.Error("Failed to scan registration row", "error", err)
			continue
		}
		regs = append(regs, r)
	}
	return regs, rows.Err()
}

func (s *store) GetRegistration(ctx context.Context, playerID int64, key chat.Key) (Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+registrationColumns+registrationJoin+`
		WHERE r.player_id = ? AND r.channel_id = ? AND r.thread_id = ?`,
		playerID, key.ChannelID, key.ThreadID)
	r, err := scanRegistration(row, key)
	if errors.Is(err, sql.ErrNoRows) {
		return Registration{}, fmt.Errorf("registration of player %d: %w", playerID, apperrors.ErrNotFound)
	}
	if err != nil {
		return Registration{}, fmt.Errorf("failed to get registration: %w", err)
	}
	return r, nil
}

// UpsertRegistration writes a registration. The payment state survives a
// re-registration and the timestamp only moves when the status changes.
func (s *store) UpsertRegistration(ctx context.Context, playerID int64, key chat.Key, position Position, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.stamp(ctx, key)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO registrations (player_id, channel_id, thread_id, position, payment, status, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(player_id, channel_id, thread_id) DO UPDATE SET
			position = excluded.position,
			updated_at = CASE WHEN registrations.status = excluded.status
				THEN registrations.updated_at ELSE excluded.updated_at END,
			status = excluded.status`,
		playerID, key.ChannelID, key.ThreadID, position, status, ts)
	if err != nil {
		return fmt.Errorf("failed to upsert registration: %w", err)
	}
	log.Debug("Upserted registration", "player", playerID, "chat", key, "status", status)
	return nil
}

func (s *store) SetRegistrationStatus(ctx context.Context, playerID int64, key chat.Key, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.stamp(ctx, key)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE registrations SET status = ?, updated_at = ?
		WHERE player_id = ? AND channel_id = ? AND thread_id = ?`,
		status, ts, playerID, key.ChannelID, key.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	return expectOne(res, playerID)
}

func (s *store) SetPaymentState(ctx context.Context, playerID int64, key chat.Key, state PaymentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE registrations SET payment = ?
		WHERE player_id = ? AND channel_id = ? AND thread_id = ?`,
		state, playerID, key.ChannelID, key.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to update payment state: %w", err)
	}
	return expectOne(res, playerID)
}

func (s *store) DeleteRegistration(ctx context.Context, playerID int64, key chat.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM registrations WHERE player_id = ? AND channel_id = ? AND thread_id = ?`,
		playerID, key.ChannelID, key.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return nil
}

func (s *store) ClearRegistrations(ctx context.Context, key chat.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM registrations WHERE channel_id = ? AND thread_id = ?`, key.ChannelID, key.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to clear registrations: %w", err)
	}
	n, _ := res.RowsAffected()
	log.Info("Cleared registrations", "chat", key, "count", n)
	return nil
}

func expectOne(res sql.Result, playerID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("registration of player %d: %w", playerID, apperrors.ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
