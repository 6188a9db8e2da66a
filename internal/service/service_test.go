package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stakeout/internal/config"
	"stakeout/internal/market"
)

// fakeSource 生成确定性的下跌+吸筹分钟线，并统计拉取次数。
type fakeSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSource) FetchHistory(ctx context.Context, symbol, interval string, start, end time.Time) ([]market.Candle, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return genCandles(end), nil
}

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// genCandles 造出 end 之前 40 个工作日的数据：价格阴跌 8%，
// 每天一根放量阳线一根缩量阴线，日内净 delta 恒为 +200。
func genCandles(end time.Time) []market.Candle {
	days := make([]time.Time, 0, 40)
	d := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for len(days) < 40 {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	// 倒序收集的，翻回升序。
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	out := make([]market.Candle, 0, len(days)*2)
	for i, day := range days {
		base := 100 - 8*float64(i)/float64(len(days)-1)
		t0 := day.Add(10 * time.Hour)
		out = append(out, market.Candle{
			OpenTime:  t0.UnixMilli(),
			CloseTime: t0.Add(time.Minute).UnixMilli() - 1,
			Open:      base,
			High:      base + 0.3,
			Low:       base - 0.1,
			Close:     base + 0.2,
			Volume:    600,
		})
		t1 := t0.Add(time.Minute)
		out = append(out, market.Candle{
			OpenTime:  t1.UnixMilli(),
			CloseTime: t1.Add(time.Minute).UnixMilli() - 1,
			Open:      base + 0.2,
			High:      base + 0.25,
			Low:       base - 0.15,
			Close:     base,
			Volume:    400,
		})
	}
	return out
}

func newTestService(t *testing.T, src market.Source) *Service {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Scan.WindowSizes = []int{10, 14}
	svc := New(Params{Config: cfg, Source: src, Loc: time.UTC})
	svc.nowFn = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestScanCachesByTradeDate(t *testing.T) {
	src := &fakeSource{}
	svc := newTestService(t, src)
	ctx := context.Background()

	first, err := svc.Scan(ctx, "BTCUSDT", false)
	if err != nil {
		t.Fatal(err)
	}
	if first.Symbol != "BTCUSDT" || first.TradeDate != "2024-03-01" {
		t.Fatalf("entry 键不对: %+v", first)
	}
	if len(first.Daily) == 0 || len(first.Weekly) == 0 {
		t.Fatal("日线/周线不能为空")
	}

	second, err := svc.Scan(ctx, "BTCUSDT", false)
	if err != nil {
		t.Fatal(err)
	}
	if src.callCount() != 1 {
		t.Fatalf("同交易日重复扫描应命中缓存，实际拉取 %d 次", src.callCount())
	}
	if second.ScanID != first.ScanID {
		t.Fatal("缓存命中应返回同一次扫描的结果")
	}
}

func TestScanForceRefresh(t *testing.T) {
	src := &fakeSource{}
	svc := newTestService(t, src)
	ctx := context.Background()

	first, err := svc.Scan(ctx, "BTCUSDT", false)
	if err != nil {
		t.Fatal(err)
	}
	refreshed, err := svc.Scan(ctx, "BTCUSDT", true)
	if err != nil {
		t.Fatal(err)
	}
	if src.callCount() != 2 {
		t.Fatalf("强制刷新必须重新拉取，实际 %d 次", src.callCount())
	}
	if refreshed.ScanID == first.ScanID {
		t.Fatal("强制刷新应产生新的扫描 ID")
	}
	// 刷新结果覆盖缓存。
	cached, ok := svc.Cache().Get("BTCUSDT", "2024-03-01")
	if !ok || cached.ScanID != refreshed.ScanID {
		t.Fatalf("缓存应持有刷新后的条目: %+v", cached)
	}
}

func TestScanRefetchesAfterDayRollover(t *testing.T) {
	src := &fakeSource{}
	svc := newTestService(t, src)
	ctx := context.Background()

	first, err := svc.Scan(ctx, "BTCUSDT", false)
	if err != nil {
		t.Fatal(err)
	}
	if first.TradeDate != "2024-03-01" {
		t.Fatalf("首日交易日不对: %s", first.TradeDate)
	}

	// 跨到下一个交易日：缓存键变了，存量 K 线也过期了。
	svc.nowFn = func() time.Time {
		return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	}
	rolled, err := svc.Scan(ctx, "BTCUSDT", false)
	if err != nil {
		t.Fatal(err)
	}
	if rolled.TradeDate != "2024-03-04" {
		t.Fatalf("新交易日不对: %s", rolled.TradeDate)
	}
	if src.callCount() != 2 {
		t.Fatalf("跨日后必须重新拉取，实际 %d 次", src.callCount())
	}
	// 新数据应覆盖到周五 2024-03-01，而不是停在上一次的 2024-02-29。
	lastDaily := rolled.Daily[len(rolled.Daily)-1]
	if lastDaily.DateKey() != "2024-03-01" {
		t.Fatalf("跨日后日线应更新到最新: %s", lastDaily.DateKey())
	}
	// symbol 粒度的锁不随日期累积。
	svc.keyMu.Lock()
	locks := len(svc.keyLocks)
	svc.keyMu.Unlock()
	if locks != 1 {
		t.Fatalf("同一 symbol 跨日应复用同一把锁，实际 %d 把", locks)
	}
}

func TestScanNormalizesSymbol(t *testing.T) {
	src := &fakeSource{}
	svc := newTestService(t, src)

	entry, err := svc.Scan(context.Background(), "  btcusdt ", false)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Symbol != "BTCUSDT" {
		t.Fatalf("symbol 应规整为大写: %q", entry.Symbol)
	}
	if _, err := svc.Scan(context.Background(), "   ", false); err == nil {
		t.Fatal("空 symbol 必须报错")
	}
}

func TestScanErrorPropagates(t *testing.T) {
	src := &fakeSource{err: errors.New("upstream down")}
	svc := newTestService(t, src)

	if _, err := svc.Scan(context.Background(), "BTCUSDT", false); err == nil {
		t.Fatal("行情源失败必须上抛")
	}
	if _, ok := svc.Cache().Get("BTCUSDT", "2024-03-01"); ok {
		t.Fatal("失败的扫描不能写缓存")
	}
}

func TestScanAll(t *testing.T) {
	src := &fakeSource{}
	svc := newTestService(t, src)

	out, err := svc.ScanAll(context.Background(), []string{"BTCUSDT", "ETHUSDT"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("应返回 2 个结果，实际 %d", len(out))
	}
	for _, sym := range []string{"BTCUSDT", "ETHUSDT"} {
		if _, ok := out[sym]; !ok {
			t.Fatalf("缺少 %s 的结果", sym)
		}
	}
	if src.callCount() != 2 {
		t.Fatalf("两个 symbol 各拉取一次，实际 %d", src.callCount())
	}
}
