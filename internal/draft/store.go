package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/charmbracelet/log"
)

type store struct {
	db    *sql.DB
	locks *chat.Locker
	now   func() time.Time
}

// New creates a draft Store backed by db.
func New(db *sql.DB) Store {
	return &store{
		db:    db,
		locks: chat.NewLocker(),
		now:   time.Now,
	}
}

func (s *store) Get(ctx context.Context, key chat.Key) (*State, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM draft_states WHERE channel_id = ? AND thread_id = ?`,
		key.ChannelID, key.ThreadID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft state: %w", err)
	}
	return Decode([]byte(data))
}

func (s *store) Set(ctx context.Context, key chat.Key, st *State) error {
	st.Revision++
	data, err := Encode(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO draft_states (channel_id, thread_id, version, revision, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(channel_id, thread_id) DO UPDATE SET
		   version = excluded.version, revision = excluded.revision,
		   data = excluded.data, updated_at = excluded.updated_at`,
		key.ChannelID, key.ThreadID, st.Version, st.Revision, string(data), s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save draft state: %w", err)
	}
	return nil
}

func (s *store) Clear(ctx context.Context, key chat.Key) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM draft_states WHERE channel_id = ? AND thread_id = ?`, key.ChannelID, key.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to clear draft state: %w", err)
	}
	log.Debug("Cleared draft state", "chat", key)
	return nil
}

func (s *store) Update(ctx context.Context, key chat.Key, fn UpdateFunc) (*State, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	cur, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var arg *State
	if cur != nil {
		arg = cur.Clone()
	}
	next, err := fn(arg)
	if err != nil {
		return nil, err
	}

	if next == nil {
		if cur != nil {
			return nil, s.Clear(ctx, key)
		}
		return nil, nil
	}

	var expected int64
	if cur != nil {
		expected = cur.Revision
	}
	next.Revision = expected + 1
	data, err := Encode(next)
	if err != nil {
		return nil, err
	}

	var res sql.Result
	if cur == nil {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO draft_states (channel_id, thread_id, version, revision, data, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(channel_id, thread_id) DO NOTHING`,
			key.ChannelID, key.ThreadID, next.Version, next.Revision, string(data), s.now().Unix())
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE draft_states SET version = ?, revision = ?, data = ?, updated_at = ?
			 WHERE channel_id = ? AND thread_id = ? AND revision = ?`,
			next.Version, next.Revision, string(data), s.now().Unix(), key.ChannelID, key.ThreadID, expected)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write draft state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("draft state of %s at revision %d: %w", key, expected, apperrors.ErrConflict)
	}
	return next, nil
}
