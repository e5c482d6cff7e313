package traffic

import (
	"math"
	"sort"
	"sync"
)

// EventType indicates what kind of change happened in the traffic model.
type EventType int

const (
	EventIntensityChanged EventType = iota
	EventConnectionBlocked
	EventConnectionUnblocked
)

// Event is emitted to subscribers when the model mutates.
type Event struct {
	Type EventType
	// Intensity is the global intensity after the mutation.
	Intensity float64
	// From/To identify the affected connection for block and unblock
	// events; both are empty for intensity changes.
	From string
	To   string
}

// BlockedConnection is one directed pair in the blocked set.
type BlockedConnection struct {
	From string
	To   string
}

// Model is the shared mutable traffic overlay: a global congestion
// intensity in [0,1] plus a set of blocked directed connections.
//
// The model is owned by the serving layer and shared across planning
// requests. Reads and writes are individually locked; a search re-queries
// the model per edge expansion and never holds the lock across its run,
// so a mutation mid-search may be observed by some expansions and not
// others. Traffic is advisory, so that is acceptable.
type Model struct {
	mu        sync.RWMutex
	intensity float64
	blocked   map[BlockedConnection]struct{}

	subs []func(Event)
}

// NewModel constructs a model with the given starting intensity, clamped
// to [0,1], and no blocked connections.
func NewModel(intensity float64) *Model {
	return &Model{
		intensity: clampIntensity(intensity),
		blocked:   make(map[BlockedConnection]struct{}),
	}
}

// Multiplier returns the congestion multiplier for one directed
// connection: +Inf when the pair is blocked (the edge does not exist for
// this request), otherwise 1 + intensity. Intensity 0 means free flow.
func (m *Model) Multiplier(from, to string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, blocked := m.blocked[BlockedConnection{From: from, To: to}]; blocked {
		return math.Inf(1)
	}
	return 1.0 + m.intensity
}

// Intensity returns the current global intensity.
func (m *Model) Intensity() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.intensity
}

// IsBlocked reports whether the directed pair is currently blocked.
func (m *Model) IsBlocked(from, to string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, blocked := m.blocked[BlockedConnection{From: from, To: to}]
	return blocked
}

// BlockedConnections returns a sorted snapshot of the blocked set.
func (m *Model) BlockedConnections() []BlockedConnection {
	m.mu.RLock()
	out := make([]BlockedConnection, 0, len(m.blocked))
	for bc := range m.blocked {
		out = append(out, bc)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// SetGlobalIntensity updates the global intensity, clamped to [0,1]. The
// new value is visible to any multiplier query issued afterwards.
func (m *Model) SetGlobalIntensity(intensity float64) {
	m.mu.Lock()
	m.intensity = clampIntensity(intensity)
	event := Event{Type: EventIntensityChanged, Intensity: m.intensity}
	subs := append([]func(Event){}, m.subs...)
	m.mu.Unlock()

	notify(subs, event)
}

// BlockConnection marks a directed pair as blocked. Blocking an already
// blocked pair is a no-op and emits no event.
func (m *Model) BlockConnection(from, to string) {
	m.mu.Lock()
	key := BlockedConnection{From: from, To: to}
	if _, exists := m.blocked[key]; exists {
		m.mu.Unlock()
		return
	}
	m.blocked[key] = struct{}{}
	event := Event{Type: EventConnectionBlocked, Intensity: m.intensity, From: from, To: to}
	subs := append([]func(Event){}, m.subs...)
	m.mu.Unlock()

	notify(subs, event)
}

// UnblockConnection removes a directed pair from the blocked set.
// Unblocking a pair that is not blocked is a no-op and emits no event.
func (m *Model) UnblockConnection(from, to string) {
	m.mu.Lock()
	key := BlockedConnection{From: from, To: to}
	if _, exists := m.blocked[key]; !exists {
		m.mu.Unlock()
		return
	}
	delete(m.blocked, key)
	event := Event{Type: EventConnectionUnblocked, Intensity: m.intensity, From: from, To: to}
	subs := append([]func(Event){}, m.subs...)
	m.mu.Unlock()

	notify(subs, event)
}

// Subscribe registers a callback for model events. It returns an
// unsubscribe function. Callbacks run synchronously on the mutating
// goroutine, after the model's lock has been released.
func (m *Model) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
	idx := len(m.subs) - 1

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < 0 || idx >= len(m.subs) {
			return
		}
		m.subs = append(m.subs[:idx], m.subs[idx+1:]...)
		idx = -1
	}
}

// Notify subscribers outside the lock to avoid deadlocks.
func notify(subs []func(Event), event Event) {
	for _, fn := range subs {
		fn(event)
	}
}

func clampIntensity(x float64) float64 {
	return math.Max(0.0, math.Min(1.0, x))
}
