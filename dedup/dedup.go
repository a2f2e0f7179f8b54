/*
Copyright (c) the aprsbot authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package dedup implements the decaying request cache that suppresses
retransmissions of requests we already processed. Entries expire by age
and by capacity, oldest first. The request is deduped, not the success:
a failed dispatch still leaves its key in the cache.
*/
package dedup

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cespare/xxhash"
)

// Defaults match one hour of retention with one entry per second at the
// APRS-IS message pace.
const (
	DefaultTTL      = 60 * time.Minute
	DefaultCapacity = 2160
)

// Key identifies one request: who sent it, under which message-id, and a
// digest of what they sent.
type Key struct {
	Source string
	MsgNo  string
	Digest string
}

// NewKey builds a Key from the raw inbound fields. The payload digest is
// an xxhash over the unmodified body.
func NewKey(source, msgNo, body string) Key {
	return Key{
		Source: source,
		MsgNo:  msgNo,
		Digest: fmt.Sprintf("%016x", xxhash.Sum64String(body)),
	}
}

type entry struct {
	key      Key
	inserted time.Time
}

// Cache is a bounded TTL map. All methods are safe for concurrent use,
// although in practice only the ingress goroutine mutates it.
type Cache struct {
	mu    sync.Mutex
	ttl   time.Duration
	cap   int
	clk   clock.Clock
	order *list.List // oldest at front
	items map[Key]*list.Element
}

// New creates a Cache with the given ttl and capacity. Zero values pick
// the defaults.
func New(ttl time.Duration, capacity int) *Cache {
	return NewWithClock(ttl, capacity, clock.New())
}

// NewWithClock creates a Cache driven by an external clock. Tests use
// this with a mock clock.
func NewWithClock(ttl time.Duration, capacity int, clk clock.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		ttl:   ttl,
		cap:   capacity,
		clk:   clk,
		order: list.New(),
		items: make(map[Key]*list.Element),
	}
}

// InsertIfAbsent inserts the key and reports whether it was newly
// inserted. False means the same request was seen within the retention
// window and must be dropped.
func (c *Cache) InsertIfAbsent(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	c.sweep(now)

	if _, ok := c.items[key]; ok {
		return false
	}

	for c.order.Len() >= c.cap {
		c.evictOldest()
	}

	c.items[key] = c.order.PushBack(&entry{key: key, inserted: now})
	return true
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep(c.clk.Now())
	return c.order.Len()
}

// sweep drops expired entries. Insertion order doubles as expiry order.
func (c *Cache) sweep(now time.Time) {
	for {
		front := c.order.Front()
		if front == nil {
			return
		}
		if now.Sub(front.Value.(*entry).inserted) < c.ttl {
			return
		}
		c.evictOldest()
	}
}

func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	delete(c.items, front.Value.(*entry).key)
	c.order.Remove(front)
}
