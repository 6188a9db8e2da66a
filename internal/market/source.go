package market

import (
	"context"
	"time"
)

// Source 统一对接外部行情供应商。
type Source interface {
	// FetchHistory 拉取 [start, end) 区间内的 K 线并按时间升序返回。
	// 分页抓取可能产生重复或乱序记录，由调用方按时间键去重。
	// 上游网络错误原样返回，引擎不做内部重试。
	FetchHistory(ctx context.Context, symbol, interval string, start, end time.Time) ([]Candle, error)
	// Close 释放底层资源。
	Close() error
}
