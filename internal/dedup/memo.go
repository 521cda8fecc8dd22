// Package dedup holds the per-turn memo that keeps one logical event from
// firing twice when multiple detection paths observe it. The memo is an
// explicit object handed to whoever needs it, never package state, and it
// is cleared on every turn or round advance.
package dedup

import (
	"fmt"
	"sync"

	"github.com/vttforge/areatrigger/internal/domain/area"
)

// Memo is the ephemeral (area, target, trigger) guard
type Memo struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewMemo creates an empty memo
func NewMemo() *Memo {
	return &Memo{seen: make(map[string]bool)}
}

// FirstFire records the key and reports whether this is its first firing
// since the last Clear.
func (m *Memo) FirstFire(areaID, targetID string, kind area.TriggerKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s|%s|%s", areaID, targetID, kind)
	if m.seen[key] {
		return false
	}
	m.seen[key] = true
	return true
}

// Clear wipes the memo. Called on every turn or round advance.
func (m *Memo) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = make(map[string]bool)
}

// Len returns the number of recorded keys
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
