// Package effect keeps the timed modifiers of a session.
package effect

import "time"

type Kind string

const (
	Shield     Kind = "shield"
	Speed      Kind = "speed"
	Freeze     Kind = "freeze"
	Multiplier Kind = "multiplier"
	Phase      Kind = "phase"
)

var Kinds = []Kind{Shield, Speed, Freeze, Multiplier, Phase}

func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Manager maps each effect to its remaining time. An effect is active
// exactly while its timer is above zero.
type Manager struct {
	remaining map[Kind]time.Duration
}

func NewManager() *Manager {
	return &Manager{remaining: make(map[Kind]time.Duration)}
}

// Activate starts k for d. Re-acquiring an active effect resets it to d,
// durations never add up.
func (m *Manager) Activate(k Kind, d time.Duration) {
	if d <= 0 || !k.Valid() {
		return
	}
	m.remaining[k] = d
}

func (m *Manager) Active(k Kind) bool {
	return m.remaining[k] > 0
}

func (m *Manager) Remaining(k Kind) time.Duration {
	return m.remaining[k]
}

// Tick advances every running timer by step, floored at zero, and returns
// the effects that ran out on this tick. An effect is reported once.
func (m *Manager) Tick(step time.Duration) []Kind {
	var expired []Kind
	for _, k := range Kinds {
		left, ok := m.remaining[k]
		if !ok {
			continue
		}
		left -= step
		if left <= 0 {
			delete(m.remaining, k)
			expired = append(expired, k)
			continue
		}
		m.remaining[k] = left
	}
	return expired
}

// Clear drops every running effect without reporting expiry.
func (m *Manager) Clear() {
	for k := range m.remaining {
		delete(m.remaining, k)
	}
}

// Millis lists active effects with their remaining milliseconds.
func (m *Manager) Millis() map[string]int {
	out := make(map[string]int, len(m.remaining))
	for k, left := range m.remaining {
		out[string(k)] = int(left / time.Millisecond)
	}
	return out
}
