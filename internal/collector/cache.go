package collector

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"RangeScout/internal/model"
)

// CachedFetcher decorates a Fetcher with a TTL+LRU cache of successful responses.
type CachedFetcher struct {
	next Fetcher
	ttl  time.Duration
	size int
	now  func() time.Time

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front = most recently used
}

type barsEntry struct {
	key  string
	at   time.Time
	bars []model.PriceBar
}

// NewCachedFetcher caches up to size responses for ttl each.
func NewCachedFetcher(next Fetcher, ttl time.Duration, size int) *CachedFetcher {
	if size < 1 {
		size = 1
	}
	return &CachedFetcher{
		next:  next,
		ttl:   ttl,
		size:  size,
		now:   time.Now,
		items: make(map[string]*list.Element),
		order: list.New(),
	}
}

func (c *CachedFetcher) Name() string { return c.next.Name() }

func (c *CachedFetcher) key(symbol model.Symbol, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s", symbol, model.DateOf(start).Format("2006-01-02"), model.DateOf(end).Format("2006-01-02"))
}

func (c *CachedFetcher) Fetch(ctx context.Context, symbol model.Symbol, start, end time.Time) ([]model.PriceBar, error) {
	k := c.key(symbol, start, end)
	now := c.now()

	c.mu.Lock()
	if el, ok := c.items[k]; ok {
		ent := el.Value.(*barsEntry)
		if now.Sub(ent.at) <= c.ttl {
			c.order.MoveToFront(el)
			bars := ent.bars
			c.mu.Unlock()
			return clone(bars), nil
		}
		c.order.Remove(el)
		delete(c.items, k)
	}
	c.mu.Unlock()

	bars, err := c.next.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[k]; ok {
		c.order.Remove(el)
	}
	c.items[k] = c.order.PushFront(&barsEntry{key: k, at: now, bars: clone(bars)})
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*barsEntry).key)
	}
	return bars, nil
}

// Len reports the number of cached responses.
func (c *CachedFetcher) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func clone(bars []model.PriceBar) []model.PriceBar {
	out := make([]model.PriceBar, len(bars))
	copy(out, bars)
	return out
}
