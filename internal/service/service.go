package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stakeout/internal/aggregate"
	"stakeout/internal/analysis/accum"
	"stakeout/internal/config"
	"stakeout/internal/gateway/database"
	"stakeout/internal/logger"
	"stakeout/internal/market"
	"stakeout/internal/store"
)

// Service 串起整条扫描流水线：拉取 → 聚合 → 扫描 → 选区 → 缓存。
// 计算本身是纯函数，唯一会挂起的步骤是行情拉取。
type Service struct {
	cfg     *config.Config
	source  market.Source
	bars    *store.BarStore
	cache   *store.ResultCache
	journal *database.DetectionJournal
	loc     *time.Location

	// 同 symbol 并发强刷会丢更新，这里按 symbol 加锁。
	// 锁集合与 symbol 数同阶，长驻进程不会随日期增长。
	keyMu    sync.Mutex
	keyLocks map[string]*sync.Mutex

	nowFn func() time.Time
}

type Params struct {
	Config  *config.Config
	Source  market.Source
	Bars    *store.BarStore
	Cache   *store.ResultCache
	Journal *database.DetectionJournal
	Loc     *time.Location
}

func New(p Params) *Service {
	loc := p.Loc
	if loc == nil {
		loc = time.UTC
	}
	bars := p.Bars
	if bars == nil {
		bars = store.NewBarStore()
	}
	cache := p.Cache
	if cache == nil {
		capacity := 0
		if p.Config != nil {
			capacity = p.Config.Cache.Capacity
		}
		cache = store.NewResultCache(capacity)
	}
	return &Service{
		cfg:      p.Config,
		source:   p.Source,
		bars:     bars,
		cache:    cache,
		journal:  p.Journal,
		loc:      loc,
		keyLocks: make(map[string]*sync.Mutex),
		nowFn:    time.Now,
	}
}

// Cache 暴露只读用途的结果缓存（HTTP 层查询用）。
func (s *Service) Cache() *store.ResultCache { return s.cache }

// Scan 返回 symbol 在当前交易日的检测结果。非强制请求直接命中缓存；
// 强制刷新或未命中时重新计算并覆盖缓存。
func (s *Service) Scan(ctx context.Context, symbol string, force bool) (store.Entry, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return store.Entry{}, fmt.Errorf("symbol 不能为空")
	}
	now := s.nowFn().In(s.loc)
	tradeDate := now.Format("2006-01-02")

	if !force {
		if e, ok := s.cache.Get(symbol, tradeDate); ok {
			return e, nil
		}
	}

	lock := s.lockFor(symbol)
	lock.Lock()
	defer lock.Unlock()

	// 拿锁期间可能已有同键写入。
	if !force {
		if e, ok := s.cache.Get(symbol, tradeDate); ok {
			return e, nil
		}
	}

	entry, err := s.compute(ctx, symbol, tradeDate, now, force)
	if err != nil {
		return store.Entry{}, err
	}
	s.cache.Put(entry)
	s.appendJournal(ctx, entry)
	return entry, nil
}

// ScanAll 对多个 symbol 并发扫描，单个失败即整体返回错误。
func (s *Service) ScanAll(ctx context.Context, symbols []string, force bool) (map[string]store.Entry, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	var mu sync.Mutex
	out := make(map[string]store.Entry, len(symbols))
	for _, sym := range symbols {
		g.Go(func() error {
			e, err := s.Scan(gctx, sym, force)
			if err != nil {
				return err
			}
			mu.Lock()
			out[e.Symbol] = e
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) compute(ctx context.Context, symbol, tradeDate string, now time.Time, force bool) (store.Entry, error) {
	interval := s.cfg.Source.Interval
	candles := s.bars.Get(symbol, interval)
	if force || s.barsStale(candles, tradeDate) {
		start := now.AddDate(0, 0, -s.cfg.Source.HistoryDays)
		fetched, err := s.source.FetchHistory(ctx, symbol, interval, start, now)
		if err != nil {
			return store.Entry{}, err
		}
		if err := s.bars.Put(symbol, interval, fetched, s.maxBars()); err != nil {
			return store.Entry{}, err
		}
		candles = s.bars.Get(symbol, interval)
	}

	daily := aggregate.DailyBars(candles, s.loc)
	if len(daily) > s.cfg.Scan.MaxHistoryDays {
		daily = daily[len(daily)-s.cfg.Scan.MaxHistoryDays:]
	}
	weekly := aggregate.WeeklyBars(daily)

	candidates := accum.ScanWindows(daily, s.cfg.Scan)
	zones := accum.SelectZones(candidates, s.cfg.Scan)
	detectedAll := make([]accum.Candidate, 0, 8)
	for _, c := range candidates {
		if c.Detected {
			detectedAll = append(detectedAll, c)
		}
	}

	best := 0.0
	for _, z := range zones {
		if z.Score > best {
			best = z.Score
		}
	}

	entry := store.Entry{
		Symbol:         symbol,
		TradeDate:      tradeDate,
		ScanID:         uuid.NewString(),
		Detected:       len(zones) > 0,
		CompositeScore: best,
		Zones:          zones,
		AllZones:       detectedAll,
		Daily:          daily,
		Weekly:         weekly,
		CreatedAt:      now,
	}
	entry.Details = map[string]any{
		"candidates": len(candidates),
		"detected":   len(detectedAll),
		"days":       len(daily),
		"weeks":      len(weekly),
		"interval":   interval,
		"forced":     force,
	}
	if cvd, ok := market.ComputeCVD(candles); ok {
		entry.Details["cvd"] = map[string]any{
			"value":      cvd.Value.String(),
			"momentum":   cvd.Momentum.String(),
			"normalized": cvd.Normalized.String(),
			"divergence": cvd.Divergence,
			"peak_flip":  cvd.PeakFlip,
		}
	}

	logger.Infof("[scan] %s %s 候选 %d 检出 %d 区域 %d 最高分 %.3f",
		symbol, tradeDate, len(candidates), len(detectedAll), len(zones), best)
	return entry, nil
}

func (s *Service) appendJournal(ctx context.Context, e store.Entry) {
	if s.journal == nil {
		return
	}
	rec := database.DetectionRecord{
		Symbol:    e.Symbol,
		TradeDate: e.TradeDate,
		ScanID:    e.ScanID,
		Detected:  e.Detected,
		Score:     e.CompositeScore,
		ZoneCount: len(e.Zones),
		CreatedAt: e.CreatedAt,
	}
	if err := s.journal.Append(ctx, rec); err != nil {
		logger.Warnf("[journal] 写入失败 %s: %v", e.Symbol, err)
	}
}

// barsStale 判断存量 K 线是否已跨过交易日：最后一根不属于当前交易日
// 就重新拉取，避免新的一天继续用昨天的数据计算。
func (s *Service) barsStale(candles []market.Candle, tradeDate string) bool {
	if len(candles) == 0 {
		return true
	}
	last := time.UnixMilli(candles[len(candles)-1].OpenTime).In(s.loc)
	return last.Format("2006-01-02") != tradeDate
}

// maxBars 返回 K 线存储的裁剪上限，按回溯天数折算成分钟根数。
func (s *Service) maxBars() int {
	return s.cfg.Source.HistoryDays * 24 * 60
}

func (s *Service) lockFor(key string) *sync.Mutex {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	if l, ok := s.keyLocks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.keyLocks[key] = l
	return l
}
