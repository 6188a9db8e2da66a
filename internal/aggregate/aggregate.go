package aggregate

import (
	"sort"
	"time"

	"stakeout/internal/market"
)

// DailyBar is one calendar trading day rolled up from minute candles.
// Invariants: Delta = BuyVol - SellVol and |Delta| <= TotalVol. A minute
// candle's volume counts entirely toward BuyVol when it closes up, entirely
// toward SellVol when it closes down, and toward neither when flat.
type DailyBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	Close    float64   `json:"close"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	BuyVol   float64   `json:"buy_vol"`
	SellVol  float64   `json:"sell_vol"`
	TotalVol float64   `json:"total_vol"`
	Delta    float64   `json:"delta"`
	DeltaPct float64   `json:"delta_pct"`
	RangePct float64   `json:"range_pct"`
}

// DateKey returns the bar's calendar date as YYYY-MM-DD.
func (d DailyBar) DateKey() string { return d.Date.Format("2006-01-02") }

// WeeklyBar aggregates daily bars by ISO week, anchored to Monday.
type WeeklyBar struct {
	WeekStart time.Time `json:"week_start"`
	Open      float64   `json:"open"`
	Close     float64   `json:"close"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Delta     float64   `json:"delta"`
	TotalVol  float64   `json:"total_vol"`
	DeltaPct  float64   `json:"delta_pct"`
	NDays     int       `json:"n_days"`
	AvgVol    float64   `json:"avg_vol"`
	AvgRange  float64   `json:"avg_range"`
}

// Dedupe sorts candles by open time and collapses duplicate time keys,
// keeping the latest write. Chunked paginated fetches routinely hand back
// overlapping pages, so this runs before any aggregation.
func Dedupe(candles []market.Candle) []market.Candle {
	if len(candles) == 0 {
		return nil
	}
	out := make([]market.Candle, len(candles))
	copy(out, candles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OpenTime < out[j].OpenTime })
	dst := out[:0]
	for _, c := range out {
		if n := len(dst); n > 0 && dst[n-1].OpenTime == c.OpenTime {
			dst[n-1] = c
			continue
		}
		dst = append(dst, c)
	}
	return dst
}

// DailyBars rolls deduplicated minute candles into per-day bars using the
// exchange-local calendar. The first candle of a day sets Open, the last
// sets Close; High/Low span the whole day.
func DailyBars(candles []market.Candle, loc *time.Location) []DailyBar {
	if loc == nil {
		loc = time.UTC
	}
	candles = Dedupe(candles)
	if len(candles) == 0 {
		return nil
	}
	out := make([]DailyBar, 0, len(candles)/300+1)
	var cur *DailyBar
	for _, c := range candles {
		t := time.UnixMilli(c.OpenTime).In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		if cur == nil || !cur.Date.Equal(day) {
			out = append(out, DailyBar{
				Date: day,
				Open: c.Open,
				High: c.High,
				Low:  c.Low,
			})
			cur = &out[len(out)-1]
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.TotalVol += c.Volume
		switch {
		case c.Close > c.Open:
			cur.BuyVol += c.Volume
		case c.Close < c.Open:
			cur.SellVol += c.Volume
		}
	}
	for i := range out {
		d := &out[i]
		d.Delta = d.BuyVol - d.SellVol
		d.DeltaPct = pct(d.Delta, d.TotalVol)
		d.RangePct = pct(d.High-d.Low, d.Close)
	}
	return out
}

// WeeklyBars buckets daily bars by the Monday of their ISO week. Weekly bars
// partition the daily range exactly: no gaps, no overlaps, volume conserved.
func WeeklyBars(daily []DailyBar) []WeeklyBar {
	if len(daily) == 0 {
		return nil
	}
	out := make([]WeeklyBar, 0, len(daily)/5+1)
	var cur *WeeklyBar
	var rangeSum float64
	flush := func() {
		if cur == nil {
			return
		}
		cur.DeltaPct = pct(cur.Delta, cur.TotalVol)
		if cur.NDays > 0 {
			cur.AvgVol = cur.TotalVol / float64(cur.NDays)
			cur.AvgRange = rangeSum / float64(cur.NDays)
		}
	}
	for _, d := range daily {
		ws := WeekStart(d.Date)
		if cur == nil || !cur.WeekStart.Equal(ws) {
			flush()
			out = append(out, WeeklyBar{
				WeekStart: ws,
				Open:      d.Open,
				High:      d.High,
				Low:       d.Low,
			})
			cur = &out[len(out)-1]
			rangeSum = 0
		}
		if d.High > cur.High {
			cur.High = d.High
		}
		if d.Low < cur.Low {
			cur.Low = d.Low
		}
		cur.Close = d.Close
		cur.Delta += d.Delta
		cur.TotalVol += d.TotalVol
		cur.NDays++
		rangeSum += d.RangePct
	}
	flush()
	return out
}

// WeekStart maps a date to the Monday of its ISO week: Sunday maps back six
// days, any other weekday maps back weekday-1 days.
func WeekStart(d time.Time) time.Time {
	wd := int(d.Weekday())
	back := wd - 1
	if wd == 0 {
		back = 6
	}
	return d.AddDate(0, 0, -back)
}

func pct(num, denom float64) float64 {
	if denom == 0 {
		return 0
	}
	return num / denom * 100
}
