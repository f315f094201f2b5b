package observability

import (
	"sort"
	"sync"
)

// Metrics provides basic in-memory counters for lifecycle transitions,
// notification deliveries and failed ops API requests.
type Metrics struct {
	mu            sync.Mutex
	transitions   map[string]int64
	notifications map[string]int64
	httpErrors    map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		transitions:   make(map[string]int64),
		notifications: make(map[string]int64),
		httpErrors:    make(map[string]int64),
	}
}

// RecordTransition counts a handled action by its outcome code.
func (m *Metrics) RecordTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[action+"|"+outcome]++
}

// RecordNotification counts a side-channel delivery attempt.
func (m *Metrics) RecordNotification(kind string, ok bool) {
	if m == nil {
		return
	}
	key := kind + "|ok"
	if !ok {
		key = kind + "|failed"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[key]++
}

// RecordError counts a failed ops API request.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.httpErrors[method+" "+path+"|"+code]++
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Transitions   map[string]int64 `json:"transitions"`
	Notifications map[string]int64 `json:"notifications"`
	HTTPErrors    map[string]int64 `json:"http_errors"`
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Transitions:   map[string]int64{},
		Notifications: map[string]int64{},
		HTTPErrors:    map[string]int64{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.transitions {
		snap.Transitions[k] = v
	}
	for k, v := range m.notifications {
		snap.Notifications[k] = v
	}
	for k, v := range m.httpErrors {
		snap.HTTPErrors[k] = v
	}
	return snap
}

// Keys returns the sorted transition keys, mostly useful for tests and logs.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Transitions))
	for k := range s.Transitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
