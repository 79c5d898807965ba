// Package cache keeps fetched Reddit content in memory so that repeated
// analyses of the same user within one process skip the network.
package cache

import (
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kalambet/persona/internal/analysis"
)

// Entry is one cached collection.
type Entry struct {
	Posts    []analysis.ContentItem
	Comments []analysis.ContentItem
}

// Cache stores collections by key. Implementations are safe for concurrent use.
type Cache interface {
	Get(key string) (Entry, bool)
	Put(key string, e Entry)
	Clear()
	Len() int
}

// Key identifies a collection by username and the requested limits.
// Usernames are case-insensitive on Reddit.
func Key(username string, postLimit, commentLimit int) string {
	return fmt.Sprintf("%s:%d:%d", strings.ToLower(username), postLimit, commentLimit)
}

// New returns an unbounded cache when maxEntries <= 0 and an LRU cache
// holding at most maxEntries collections otherwise.
func New(maxEntries int) (Cache, error) {
	if maxEntries <= 0 {
		return NewMemory(), nil
	}
	return NewLRU(maxEntries)
}

// Memory is an unbounded map-backed cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory returns an empty unbounded cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *Memory) Put(key string, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// LRU evicts the least recently used collection once full.
type LRU struct {
	c *lru.Cache[string, Entry]
}

// NewLRU returns an LRU cache holding at most size collections.
func NewLRU(size int) (*LRU, error) {
	c, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	return &LRU{c: c}, nil
}

func (l *LRU) Get(key string) (Entry, bool) { return l.c.Get(key) }
func (l *LRU) Put(key string, e Entry)     { l.c.Add(key, e) }
func (l *LRU) Clear()                      { l.c.Purge() }
func (l *LRU) Len() int                    { return l.c.Len() }
