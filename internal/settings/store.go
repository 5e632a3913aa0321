package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/charmbracelet/log"
)

// New creates a settings Store backed by db.
func New(db *sql.DB) Store {
	return &store{db: db}
}

func (s *store) Get(ctx context.Context, key chat.Key) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM match_settings WHERE channel_id = ? AND thread_id = ?`,
		key.ChannelID, key.ThreadID)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	st := Defaults()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Settings{}, fmt.Errorf("failed to scan setting: %w", err)
		}
		set, ok := fields[name]
		if !ok {
			log.Warn("Ignoring unknown setting", "name", name, "chat", key)
			continue
		}
		if err := set(&st, value); err != nil {
			log.Warn("Ignoring malformed setting", "name", name, "value", value, "error", err)
		}
	}
	if err := rows.Err(); err != nil {
		return Settings{}, fmt.Errorf("failed to iterate settings: %w", err)
	}
	return st, nil
}

func (s *store) Set(ctx context.Context, key chat.Key, name, value string) error {
	current, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := apply(ctx, &current, name, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO match_settings (channel_id, thread_id, name, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT(channel_id, thread_id, name) DO UPDATE SET value = excluded.value`,
		key.ChannelID, key.ThreadID, name, value)
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", name, err)
	}
	log.Debug("Setting updated", "chat", key, "name", name, "value", value)
	return nil
}
