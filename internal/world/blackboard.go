// Package world holds the mutable host state that plans are made against
// and executed on.
package world

import (
	"sort"
	"sync"

	"github.com/joeycumines/goap/internal/goap"
)

// Blackboard provides a thread-safe key-value store shared by validators,
// condition expressions and executing actions.
//
// Usage: Create with new(Blackboard). The internal map is lazily initialized
// on the first write operation.
type Blackboard struct {
	mu   sync.RWMutex
	data map[string]any
}

// init initializes the blackboard's internal map if needed.
// Called with the write lock held.
func (b *Blackboard) init() {
	if b.data == nil {
		b.data = make(map[string]any)
	}
}

// Get retrieves a value from the blackboard.
// Returns nil if the key doesn't exist.
func (b *Blackboard) Get(key string) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil
	}
	return b.data[key]
}

// Bool returns the value of key if it holds a bool.
func (b *Blackboard) Bool(key string) (value, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok = b.data[key].(bool)
	return value, ok
}

// Set stores a value in the blackboard.
func (b *Blackboard) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	b.data[key] = value
}

// Has returns true if the key exists in the blackboard.
func (b *Blackboard) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return false
	}
	_, ok := b.data[key]
	return ok
}

// Delete removes a key from the blackboard.
func (b *Blackboard) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return
	}
	delete(b.data, key)
}

// Keys returns all keys in the blackboard, sorted.
func (b *Blackboard) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil
	}
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear removes all entries from the blackboard.
func (b *Blackboard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[string]any)
}

// Len returns the number of keys in the blackboard.
func (b *Blackboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Snapshot returns a shallow copy of the blackboard data, never nil.
//
// Mutable values (slices, maps, pointers) are shared with the blackboard;
// callers that modify them must copy first.
func (b *Blackboard) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make(map[string]any, len(b.data))
	for k, v := range b.data {
		result[k] = v
	}
	return result
}

// Merge stores every entry of values under a single lock.
func (b *Blackboard) Merge(values map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	for k, v := range values {
		b.data[k] = v
	}
}

// ApplyConditions writes each condition to the blackboard as a bool entry.
func (b *Blackboard) ApplyConditions(conds []goap.Condition) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	for _, c := range conds {
		b.data[c.Fact] = c.Value
	}
}

// Facts projects the blackboard onto the facts registered with p. Every
// registered fact with a bool entry becomes known; facts with no entry, or a
// non-bool one, stay unknown. Facts are never registered by this call.
func (b *Blackboard) Facts(p *goap.ActionPlanner) goap.WorldState {
	names := p.Facts()
	s := p.WorldState()
	b.mu.RLock()
	defer b.mu.RUnlock()
	for i, name := range names {
		if v, ok := b.data[name].(bool); ok {
			s.Assign(i, v)
		}
	}
	return s
}
