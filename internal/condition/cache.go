package condition

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// DefaultCacheSize is the default maximum number of compiled programs kept
// by the expression cache.
const DefaultCacheSize = 1000

// programs is the process-wide cache of compiled expressions, keyed by
// source text. Compiled programs do not depend on any blackboard, so every
// Expr shares it.
var programs = NewProgramCache(DefaultCacheSize)

// SetCacheSize sets the maximum size of the expression cache, evicting the
// least recently used programs if it shrinks. Values below 1 are treated as 1.
func SetCacheSize(size int) {
	programs.Resize(size)
}

// CacheSize returns the maximum size of the expression cache.
func CacheSize() int {
	programs.mu.RLock()
	defer programs.mu.RUnlock()
	return programs.maxSize
}

// ClearCache drops every cached program.
func ClearCache() {
	programs.Clear()
}

// CacheStats reports the expression cache statistics.
func CacheStats() (size int, hits, misses int64) {
	size, hits, misses, _ = programs.Stats()
	return size, hits, misses
}

// ProgramCache is a thread-safe LRU cache of compiled expr-lang programs.
type ProgramCache struct {
	mu        sync.RWMutex
	cache     map[string]*list.Element
	lru       *list.List
	maxSize   int
	hitCount  int64
	missCount int64
}

type cacheEntry struct {
	expression string
	program    *vm.Program
}

// NewProgramCache creates a cache holding at most maxSize programs.
func NewProgramCache(maxSize int) *ProgramCache {
	if maxSize < 1 {
		maxSize = DefaultCacheSize
	}
	return &ProgramCache{
		cache:   make(map[string]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get retrieves a compiled program, marking it most recently used.
// Takes the write lock since it reorders the list and counts hits.
func (c *ProgramCache) Get(expression string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.cache[expression]
	if !ok {
		c.missCount++
		return nil, false
	}
	c.hitCount++
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).program, true
}

// Put adds or replaces a compiled program, evicting the least recently used
// entry when over capacity.
func (c *ProgramCache) Put(expression string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[expression]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).program = program
		return
	}
	c.cache[expression] = c.lru.PushFront(&cacheEntry{
		expression: expression,
		program:    program,
	})
	c.evictLocked()
}

// Resize changes the maximum size, evicting immediately if needed.
func (c *ProgramCache) Resize(maxSize int) {
	if maxSize < 1 {
		maxSize = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = maxSize
	c.evictLocked()
}

func (c *ProgramCache) evictLocked() {
	for c.lru.Len() > c.maxSize {
		elem := c.lru.Back()
		delete(c.cache, elem.Value.(*cacheEntry).expression)
		c.lru.Remove(elem)
	}
}

// Clear removes all entries. Statistics are kept.
func (c *ProgramCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the current number of entries.
func (c *ProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// Stats returns cache statistics for monitoring.
func (c *ProgramCache) Stats() (size int, hits, misses int64, ratio float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if total := c.hitCount + c.missCount; total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}
	return c.lru.Len(), c.hitCount, c.missCount, ratio
}

func (c *ProgramCache) String() string {
	size, hits, misses, ratio := c.Stats()
	return fmt.Sprintf("ProgramCache{size=%d, hits=%d, misses=%d, hit_ratio=%.2f%%}",
		size, hits, misses, ratio*100)
}
