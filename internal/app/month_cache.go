package app

import (
	"sync"
	"time"

	"tracked/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMonthCacheTTL is how long a built month grid is reused.
const DefaultMonthCacheTTL = 5 * time.Minute

type monthKey struct {
	userID      int64
	year, month int
}

type monthData struct {
	trackers  []domain.Tracker
	weeks     [][]DayRecord
	weekStats []map[int64]string
}

// MonthCache holds recently built month grids per user. A nil *MonthCache is
// valid and caches nothing.
//
// Every invalidation bumps the user's generation; a grid built under an older
// generation is not stored, so a build racing a write cannot cache stale data.
type MonthCache struct {
	lru  *expirable.LRU[monthKey, monthData]
	mu   sync.Mutex
	gens map[int64]uint64
}

// NewMonthCache returns a cache of up to size months, or nil when ttl <= 0.
func NewMonthCache(size int, ttl time.Duration) *MonthCache {
	if ttl <= 0 {
		return nil
	}
	if size <= 0 {
		size = 256
	}
	return &MonthCache{
		lru:  expirable.NewLRU[monthKey, monthData](size, nil, ttl),
		gens: make(map[int64]uint64),
	}
}

func (c *MonthCache) get(userID int64, year, month int) (monthData, bool) {
	if c == nil {
		return monthData{}, false
	}
	return c.lru.Get(monthKey{userID, year, month})
}

// generation is read before a build and handed back to add.
func (c *MonthCache) generation(userID int64) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[userID]
}

func (c *MonthCache) add(userID int64, year, month int, gen uint64, d monthData) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen {
		return
	}
	c.lru.Add(monthKey{userID, year, month}, d)
}

// Invalidate drops one cached month.
func (c *MonthCache) Invalidate(userID int64, year, month int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
	c.lru.Remove(monthKey{userID, year, month})
}

// InvalidateUser drops every cached month of userID.
func (c *MonthCache) InvalidateUser(userID int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
	for _, k := range c.lru.Keys() {
		if k.userID == userID {
			c.lru.Remove(k)
		}
	}
}
