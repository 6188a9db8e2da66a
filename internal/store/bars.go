package store

import (
	"errors"
	"sort"
	"sync"

	"stakeout/internal/market"
)

// BarStore 内存态的原始 K 线存储，按 symbol+interval 维护升序序列。
// 同一开盘时间的增量更新覆盖旧值而非重复追加，分页抓取的重叠页因此天然去重。
type BarStore struct {
	mu   sync.RWMutex
	data map[string][]market.Candle
}

func NewBarStore() *BarStore {
	return &BarStore{data: make(map[string][]market.Candle)}
}

func barKey(symbol, interval string) string { return symbol + "@" + interval }

// Put 合并并裁剪到 max 根。
func (s *BarStore) Put(symbol, interval string, ks []market.Candle, max int) error {
	if symbol == "" || interval == "" {
		return errors.New("symbol/interval 不能为空")
	}
	if len(ks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := barKey(symbol, interval)
	cur := append(s.data[k], ks...)
	// 乱序写入兜底：合并后保证升序，再按时间键去重，后写覆盖前写。
	sort.SliceStable(cur, func(i, j int) bool { return cur[i].OpenTime < cur[j].OpenTime })
	dst := cur[:0]
	for _, candle := range cur {
		if n := len(dst); n > 0 && dst[n-1].OpenTime == candle.OpenTime {
			dst[n-1] = candle
			continue
		}
		dst = append(dst, candle)
	}
	cur = dst
	if max > 0 && len(cur) > max {
		cur = cur[len(cur)-max:]
	}
	s.data[k] = cur
	return nil
}

// Get 返回拷贝。
func (s *BarStore) Get(symbol, interval string) []market.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := s.data[barKey(symbol, interval)]
	out := make([]market.Candle, len(cur))
	copy(out, cur)
	return out
}

// Drop 清空指定序列。
func (s *BarStore) Drop(symbol, interval string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, barKey(symbol, interval))
}
