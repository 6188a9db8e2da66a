package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gobinance "github.com/adshao/go-binance/v2"

	"stakeout/internal/logger"
	"stakeout/internal/market"
)

const maxHistoryLimit = 1500

// Source 实现 market.Source，基于官方 SDK 的 REST 接入。
// 只做轮询式历史抓取，分页可能产生重叠记录，由上层按时间键去重。
type Source struct {
	cfg    Config
	client *gobinance.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	cli := gobinance.NewClient("", "")
	if final.RESTBaseURL != "" {
		cli.BaseURL = final.RESTBaseURL
	}
	cli.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: cli}
}

// FetchHistory 分页拉取 [start, end) 的 K 线并按时间升序返回。
// 上游错误原样返回，不做重试。
func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, start, end time.Time) ([]market.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	if !end.After(start) {
		return nil, fmt.Errorf("invalid range: start=%v end=%v", start, end)
	}

	startMs := start.UnixMilli()
	endMs := end.UnixMilli()
	out := make([]market.Candle, 0, 4096)
	pages := 0
	for startMs < endMs {
		ks, err := s.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(startMs).
			EndTime(endMs).
			Limit(s.cfg.PageLimit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance history %s %s: %w", symbol, interval, err)
		}
		if len(ks) == 0 {
			break
		}
		for _, k := range ks {
			out = append(out, market.Candle{
				OpenTime:  k.OpenTime,
				CloseTime: k.CloseTime,
				Open:      toFloat(k.Open),
				High:      toFloat(k.High),
				Low:       toFloat(k.Low),
				Close:     toFloat(k.Close),
				Volume:    toFloat(k.Volume),
			})
		}
		pages++
		last := ks[len(ks)-1]
		if len(ks) < s.cfg.PageLimit || last.CloseTime >= endMs {
			break
		}
		startMs = last.OpenTime + 1
	}
	logger.Debugf("[binance] %s %s 拉取 %d 根（%d 页）", symbol, interval, len(out), pages)
	return out, nil
}

func (s *Source) Close() error { return nil }

func toFloat(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}
