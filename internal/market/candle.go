package market

import "time"

// Candle 表示来自行情源的单根原始 K 线（分钟级）。
// 时间戳为毫秒，来源即事实，引擎内部不会修改。
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Delta 返回该根 K 线的量差估计：收涨记 +Volume，收跌记 -Volume，
// 平盘记 0。这是 uptick/downtick 近似，不是真实的成交方向分类。
func (c Candle) Delta() float64 {
	switch {
	case c.Close > c.Open:
		return c.Volume
	case c.Close < c.Open:
		return -c.Volume
	default:
		return 0
	}
}

// Time 返回开盘时间。
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.OpenTime)
}
