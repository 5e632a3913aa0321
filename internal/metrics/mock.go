package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	registrations      map[string]int
	promotions         int
	draws              map[string]int
	votes              int
	matchesRecorded    int
	matchesFinished    int
	rejections         map[string]int
	operationDurations map[string][]float64
	slackNotifSent     int
	slackNotifFailed   int
	eventsPublished    map[string]int
	startupTime        float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	m := &Mock{}
	m.Reset()
	return m
}

// Reset clears all recorded values.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = make(map[string]int)
	m.draws = make(map[string]int)
	m.rejections = make(map[string]int)
	m.operationDurations = make(map[string][]float64)
	m.eventsPublished = make(map[string]int)
	m.promotions, m.votes, m.matchesRecorded, m.matchesFinished = 0, 0, 0, 0
	m.slackNotifSent, m.slackNotifFailed, m.startupTime = 0, 0, 0
}

func (m *Mock) IncRegistrations(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations[status]++
}

func (m *Mock) IncPromotions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promotions++
}

func (m *Mock) IncDraws(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draws[kind]++
}

func (m *Mock) IncVotes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes++
}

func (m *Mock) IncMatchesRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesRecorded++
}

func (m *Mock) IncMatchesFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesFinished++
}

func (m *Mock) IncRejections(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections[operation]++
}

func (m *Mock) ObserveOperationDuration(operation string, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operationDurations[operation] = append(m.operationDurations[operation], duration)
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) IncEventsPublished(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsPublished[topic]++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Registrations returns how many registrations ended in status.
func (m *Mock) Registrations(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registrations[status]
}

// Promotions returns the number of times IncPromotions was called.
func (m *Mock) Promotions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.promotions
}

// Draws returns the number of draws of kind.
func (m *Mock) Draws(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draws[kind]
}

// Votes returns the number of times IncVotes was called.
func (m *Mock) Votes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.votes
}

// MatchesRecorded returns the number of times IncMatchesRecorded was called.
func (m *Mock) MatchesRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesRecorded
}

// MatchesFinished returns the number of times IncMatchesFinished was called.
func (m *Mock) MatchesFinished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesFinished
}

// Rejections returns the number of rejections recorded for operation.
func (m *Mock) Rejections(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rejections[operation]
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

// EventsPublished returns the number of events published to topic.
func (m *Mock) EventsPublished(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsPublished[topic]
}
