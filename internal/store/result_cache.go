package store

import (
	"sync"
	"time"

	"stakeout/internal/aggregate"
	"stakeout/internal/analysis/accum"
)

// Entry 是一次扫描的完整结果，按 (symbol, 交易日) 缓存。
// 写入后视为不可变，直到被淘汰或强制刷新覆盖。
type Entry struct {
	Symbol         string                 `json:"symbol"`
	TradeDate      string                 `json:"trade_date"`
	ScanID         string                 `json:"scan_id"`
	Detected       bool                   `json:"is_detected"`
	CompositeScore float64                `json:"composite_score"`
	Zones          []accum.Zone           `json:"zones"`
	AllZones       []accum.Candidate      `json:"all_zones"`
	Daily          []aggregate.DailyBar   `json:"daily"`
	Weekly         []aggregate.WeeklyBar  `json:"weekly"`
	Details        map[string]any         `json:"details,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ResultCache 容量有界的结果缓存。淘汰策略是纯插入序 FIFO：
// 溢出时丢最早写入的键，命中不做任何晋升。
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]Entry
	order    []string
}

const defaultCacheCapacity = 200

func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &ResultCache{
		capacity: capacity,
		entries:  make(map[string]Entry, capacity),
	}
}

func cacheKey(symbol, tradeDate string) string { return symbol + "@" + tradeDate }

// Get 返回缓存条目；命中不改变淘汰顺序。
func (c *ResultCache) Get(symbol, tradeDate string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey(symbol, tradeDate)]
	return e, ok
}

// Put 写入或覆盖条目。覆盖已有键（强制刷新）不改变其插入位置；
// 新键在容量满时先淘汰最老的键。
func (c *ResultCache) Put(e Entry) {
	k := cacheKey(e.Symbol, e.TradeDate)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; !ok {
		if len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, k)
	}
	c.entries[k] = e
}

// Len 返回当前条目数。
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
