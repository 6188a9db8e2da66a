package binance

import "time"

// Config 描述 Binance Source 运行所需的参数。
type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
	// PageLimit 单页最多抓取的 K 线数，Binance 上限为 1500。
	PageLimit int
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	if out.PageLimit <= 0 || out.PageLimit > maxHistoryLimit {
		out.PageLimit = maxHistoryLimit
	}
	return out
}
