package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store is a TTL key/value contract for serialized responses.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

type entry struct {
	value   []byte
	expires time.Time
}

// LRU is a size-bounded in-memory Store. Entries expire after the TTL given
// to Set, and never later than maxTTL.
type LRU struct {
	items *expirable.LRU[string, entry]
	now   func() time.Time
}

// New returns an LRU holding at most size entries.
func New(size int, maxTTL time.Duration) *LRU {
	return &LRU{
		items: expirable.NewLRU[string, entry](size, nil, maxTTL),
		now:   time.Now,
	}
}

func (c *LRU) Get(key string) ([]byte, bool) {
	e, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		c.items.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *LRU) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.items.Add(key, entry{value: value, expires: c.now().Add(ttl)})
}

// Len reports the number of stored entries, including expired ones not yet evicted.
func (c *LRU) Len() int {
	return c.items.Len()
}
