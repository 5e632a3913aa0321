package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
)

const matchColumns = `id, channel_id, thread_id, played_at, skill_label, score, championship, created_at`

// New creates a results Store backed by db.
func New(db *sql.DB) Store {
	return &store{
		db:  sqlx.NewDb(db, "sqlite3"),
		now: time.Now,
	}
}

func (s *store) CreateMatch(ctx context.Context, m NewMatch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (channel_id, thread_id, played_at, skill_label, score, championship, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Key.ChannelID, m.Key.ThreadID, m.PlayedAt.Unix(), m.SkillLabel, m.Score, m.Championship, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert match: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read match id: %w", err)
	}
	log.Info("Created match", "id", id, "chat", m.Key, "score", m.Score)
	return id, nil
}

func (s *store) FindMatchNear(ctx context.Context, key chat.Key, at time.Time, championship *string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := int64(DuplicateWindow / time.Second)
	var row matchRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+matchColumns+` FROM matches
		 WHERE channel_id = ? AND thread_id = ?
		   AND played_at BETWEEN ? AND ?
		   AND championship IS ?
		 ORDER BY ABS(played_at - ?), id DESC LIMIT 1`,
		key.ChannelID, key.ThreadID, at.Unix()-window, at.Unix()+window, championship, at.Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match near %s: %w", at, err)
	}
	m := row.toMatch()
	return &m, nil
}

func (s *store) OverwriteMatch(ctx context.Context, id int64, score, skillLabel string, championship *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin overwrite: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE matches SET score = ?, skill_label = ?, championship = ? WHERE id = ?`,
		score, skillLabel, championship, id)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("match %d: %w", id, apperrors.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM match_events WHERE history_id IN (SELECT id FROM match_history WHERE match_id = ?)`, id); err != nil {
		return fmt.Errorf("failed to clear events of match %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM match_history WHERE match_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear history of match %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit overwrite: %w", err)
	}
	log.Info("Overwrote match", "id", id, "score", score)
	return nil
}

func (s *store) GetMatch(ctx context.Context, id int64) (Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row matchRow
	err := s.db.GetContext(ctx, &row, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Match{}, fmt.Errorf("match %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return Match{}, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return row.toMatch(), nil
}

func (s *store) SeasonNumber(ctx context.Context, id int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM matches m
		 JOIN matches cur ON cur.id = ?
		 WHERE m.channel_id = cur.channel_id AND m.thread_id = cur.thread_id
		   AND m.championship IS cur.championship AND m.id <= cur.id`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to count season matches: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("match %d: %w", id, apperrors.ErrNotFound)
	}
	return n, nil
}

func (s *store) UpsertHistory(ctx context.Context, matchID, playerID int64, d Delta) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.db.GetContext(ctx, &id,
		`INSERT INTO match_history
		   (match_id, player_id, team, points, goals, autogoals, assists, yellow_cards, red_cards, best_defender, is_captain)
		 VALUES (?, ?, ?, COALESCE(?, 0), ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(match_id, player_id) DO UPDATE SET
		   team = CASE WHEN excluded.team != '' THEN excluded.team ELSE team END,
		   points = COALESCE(?, points),
		   goals = goals + excluded.goals,
		   autogoals = autogoals + excluded.autogoals,
		   assists = assists + excluded.assists,
		   yellow_cards = yellow_cards + excluded.yellow_cards,
		   red_cards = red_cards + excluded.red_cards,
		   best_defender = MAX(best_defender, excluded.best_defender),
		   is_captain = MAX(is_captain, excluded.is_captain)
		 RETURNING id`,
		matchID, playerID, d.Team, d.Points, d.Goals, d.Autogoals, d.Assists, d.YellowCards, d.RedCards,
		boolToInt(d.BestDefender), boolToInt(d.IsCaptain), d.Points)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert history for player %d: %w", playerID, err)
	}
	log.Debug("Upserted match history", "match", matchID, "player", playerID, "history", id)
	return id, nil
}

func (s *store) ListHistory(ctx context.Context, matchID int64) ([]History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := []History{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, match_id, player_id, team, points, goals, autogoals, assists,
		        yellow_cards, red_cards, best_defender, is_captain
		 FROM match_history WHERE match_id = ? ORDER BY id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history of match %d: %w", matchID, err)
	}
	return rows, nil
}

func (s *store) PointsHistory(ctx context.Context, key chat.Key, playerIDs []int64) (map[int64][]float64, error) {
	out := make(map[int64][]float64, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args, err := sqlx.In(
		`SELECT h.player_id, h.points FROM match_history h
		 JOIN matches m ON m.id = h.match_id
		 WHERE m.channel_id = ? AND m.thread_id = ? AND h.is_captain = 0 AND h.player_id IN (?)
		 ORDER BY h.id`, key.ChannelID, key.ThreadID, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build points query: %w", err)
	}
	var rows []struct {
		PlayerID int64   `db:"player_id"`
		Points   float64 `db:"points"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load points history: %w", err)
	}
	for _, r := range rows {
		out[r.PlayerID] = append(out[r.PlayerID], r.Points)
	}
	return out, nil
}

func (s *store) AppendEvent(ctx context.Context, historyID int64, typ EventType, minute *int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO match_events (history_id, event_type, minute, created_at) VALUES (?, ?, ?, ?)`,
		historyID, string(typ), minute, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to append %s event: %w", typ, err)
	}
	return res.LastInsertId()
}

func (s *store) AnnotateEvent(ctx context.Context, eventID int64, assistPlayerID *int64, penalty bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE match_events SET assist_player_id = ?, is_penalty = ? WHERE id = ?`,
		assistPlayerID, boolToInt(penalty), eventID)
	if err != nil {
		return fmt.Errorf("failed to annotate event %d: %w", eventID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	return nil
}

func (s *store) ListEvents(ctx context.Context, matchID int64) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := []Event{}
	err := s.db.SelectContext(ctx, &events,
		`SELECT e.id, e.history_id, h.player_id, e.event_type, e.minute, e.assist_player_id, e.is_penalty
		 FROM match_events e JOIN match_history h ON h.id = e.history_id
		 WHERE h.match_id = ? ORDER BY e.id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events of match %d: %w", matchID, err)
	}
	return events, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
