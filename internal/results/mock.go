package results

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/chat"
)

var _ Store = (*MockStore)(nil)

// MockStore is an in-memory Store with the same semantics as the SQL store.
type MockStore struct {
	mu      sync.Mutex
	matches map[int64]Match
	history map[int64]*History
	events  map[int64]*Event
	nextID  int64

	CreateMatchCalls    []NewMatch
	OverwriteMatchCalls []int64
}

// NewMock creates an empty MockStore.
func NewMock() *MockStore {
	m := &MockStore{}
	m.Reset()
	return m
}

func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = make(map[int64]Match)
	m.history = make(map[int64]*History)
	m.events = make(map[int64]*Event)
	m.nextID = 0
	m.CreateMatchCalls = nil
	m.OverwriteMatchCalls = nil
}

func (m *MockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MockStore) CreateMatch(_ context.Context, nm NewMatch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateMatchCalls = append(m.CreateMatchCalls, nm)
	id := m.id()
	m.matches[id] = Match{
		ID:           id,
		Key:          nm.Key,
		PlayedAt:     nm.PlayedAt.UTC().Truncate(time.Second),
		SkillLabel:   nm.SkillLabel,
		Score:        nm.Score,
		Championship: nm.Championship,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	return id, nil
}

func sameLabel(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *MockStore) FindMatchNear(_ context.Context, key chat.Key, at time.Time, championship *string) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *Match
	var bestDist time.Duration
	for _, match := range m.matches {
		if match.Key != key || !sameLabel(match.Championship, championship) {
			continue
		}
		dist := match.PlayedAt.Sub(at.Truncate(time.Second)).Abs()
		if dist > DuplicateWindow {
			continue
		}
		if best == nil || dist < bestDist || (dist == bestDist && match.ID > best.ID) {
			found := match
			best, bestDist = &found, dist
		}
	}
	return best, nil
}

func (m *MockStore) OverwriteMatch(_ context.Context, id int64, score, skillLabel string, championship *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OverwriteMatchCalls = append(m.OverwriteMatchCalls, id)
	match, ok := m.matches[id]
	if !ok {
		return fmt.Errorf("match %d: %w", id, apperrors.ErrNotFound)
	}
	match.Score, match.SkillLabel, match.Championship = score, skillLabel, championship
	m.matches[id] = match
	for hid, h := range m.history {
		if h.MatchID != id {
			continue
		}
		for eid, e := range m.events {
			if e.HistoryID == hid {
				delete(m.events, eid)
			}
		}
		delete(m.history, hid)
	}
	return nil
}

func (m *MockStore) GetMatch(_ context.Context, id int64) (Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[id]
	if !ok {
		return Match{}, fmt.Errorf("match %d: %w", id, apperrors.ErrNotFound)
	}
	return match, nil
}

func (m *MockStore) SeasonNumber(_ context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.matches[id]
	if !ok {
		return 0, fmt.Errorf("match %d: %w", id, apperrors.ErrNotFound)
	}
	n := 0
	for _, match := range m.matches {
		if match.Key == cur.Key && sameLabel(match.Championship, cur.Championship) && match.ID <= id {
			n++
		}
	}
	return n, nil
}

func (m *MockStore) UpsertHistory(_ context.Context, matchID, playerID int64, d Delta) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.matches[matchID]; !ok {
		return 0, fmt.Errorf("match %d: %w", matchID, apperrors.ErrNotFound)
	}
	var h *History
	for _, row := range m.history {
		if row.MatchID == matchID && row.PlayerID == playerID {
			h = row
			break
		}
	}
	if h == nil {
		h = &History{ID: m.id(), MatchID: matchID, PlayerID: playerID}
		m.history[h.ID] = h
	}
	if d.Team != "" {
		h.Team = d.Team
	}
	if d.Points != nil {
		h.Points = *d.Points
	}
	h.Goals += d.Goals
	h.Autogoals += d.Autogoals
	h.Assists += d.Assists
	h.YellowCards += d.YellowCards
	h.RedCards += d.RedCards
	h.BestDefender = h.BestDefender || d.BestDefender
	h.IsCaptain = h.IsCaptain || d.IsCaptain
	return h.ID, nil
}

func (m *MockStore) ListHistory(_ context.Context, matchID int64) ([]History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []History{}
	for _, h := range m.history {
		if h.MatchID == matchID {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) PointsHistory(_ context.Context, key chat.Key, playerIDs []int64) (map[int64][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[int64]bool, len(playerIDs))
	for _, id := range playerIDs {
		want[id] = true
	}
	rows := make([]*History, 0, len(m.history))
	for _, h := range m.history {
		if want[h.PlayerID] && !h.IsCaptain && m.matches[h.MatchID].Key == key {
			rows = append(rows, h)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	out := make(map[int64][]float64, len(playerIDs))
	for _, h := range rows {
		out[h.PlayerID] = append(out[h.PlayerID], float64(h.Points))
	}
	return out, nil
}

func (m *MockStore) AppendEvent(_ context.Context, historyID int64, typ EventType, minute *int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.history[historyID]
	if !ok {
		return 0, fmt.Errorf("history %d: %w", historyID, apperrors.ErrNotFound)
	}
	e := &Event{ID: m.id(), HistoryID: historyID, PlayerID: h.PlayerID, Type: typ}
	if minute != nil {
		v := *minute
		e.Minute = &v
	}
	m.events[e.ID] = e
	return e.ID, nil
}

func (m *MockStore) AnnotateEvent(_ context.Context, eventID int64, assistPlayerID *int64, penalty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	if assistPlayerID != nil {
		v := *assistPlayerID
		e.AssistPlayerID = &v
	} else {
		e.AssistPlayerID = nil
	}
	e.IsPenalty = penalty
	return nil
}

func (m *MockStore) ListEvents(_ context.Context, matchID int64) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Event{}
	for _, e := range m.events {
		if h, ok := m.history[e.HistoryID]; ok && h.MatchID == matchID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
