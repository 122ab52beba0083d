package api

import (
	"sort"
	"sync"
	"time"
)

// CycleStatus is the last observed cycle summary for one vehicle connection.
type CycleStatus struct {
	Conn        string    `json:"conn"`
	Cycles      uint64    `json:"cycles"`
	Failures    uint64    `json:"failures"`
	Cte         float64   `json:"cte"`
	Epsi        float64   `json:"epsi"`
	Speed       float64   `json:"speed"`
	Steer       float64   `json:"steer"`
	Throttle    float64   `json:"throttle"`
	SolveMillis float64   `json:"solve_ms"`
	LastError   string    `json:"last_error,omitempty"`
	Updated     time.Time `json:"updated"`
}

// Status aggregates per-connection cycle summaries for the status endpoint.
// Connections update their own entry only; reads snapshot the whole map.
type Status struct {
	mu    sync.Mutex
	conns map[string]CycleStatus
}

func NewStatus() *Status {
	return &Status{conns: make(map[string]CycleStatus)}
}

func (s *Status) Update(cs CycleStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs.Updated = time.Now()
	s.conns[cs.Conn] = cs
}

func (s *Status) Remove(conn string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Status) Snapshot() []CycleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]CycleStatus, 0, len(s.conns))
	for _, cs := range s.conns {
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Conn < out[j].Conn })
	return out
}
