package accum

import "stakeout/internal/aggregate"

// ScanWindows slides every configured window length across the daily history
// and scores each contiguous slice, using up to BaselineDays of immediately
// preceding bars as the baseline. All candidates are collected, gated ones
// included, so downstream consumers can explain every offset.
//
// Pure function over immutable slices: no shared scan state, trivially
// parallelizable across symbols. Cost is O(Σ lengths × history), a few
// thousand scorer calls at the default one-year cap.
func ScanWindows(daily []aggregate.DailyBar, cfg Config) []Candidate {
	cfg = cfg.Normalize()
	if len(daily) > cfg.MaxHistoryDays {
		daily = daily[len(daily)-cfg.MaxHistoryDays:]
	}
	n := len(daily)
	if n == 0 {
		return nil
	}

	out := make([]Candidate, 0, n)
	for _, size := range cfg.WindowSizes {
		if size <= 0 || size > n {
			continue
		}
		for start := 0; start+size <= n; start++ {
			end := start + size - 1
			baseStart := start - cfg.BaselineDays
			if baseStart < 0 {
				baseStart = 0
			}
			res := Score(daily[start:start+size], daily[baseStart:start], cfg)
			out = append(out, Candidate{
				ScoreResult: res,
				Start:       start,
				End:         end,
				WinSize:     size,
				StartDate:   daily[start].Date,
				EndDate:     daily[end].Date,
			})
		}
	}
	return out
}
