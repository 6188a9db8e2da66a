package accum

import (
	"math"

	"stakeout/internal/aggregate"
	"stakeout/internal/stats"
)

// Score evaluates one candidate window of daily bars against its preceding
// baseline slice. The baseline is used only to normalize the delta-shift
// metric and may be empty, in which case the window's own averages stand in.
//
// Gates run in a fixed order and short-circuit with a zero, non-detected
// result: minimum weeks, overall price change (too strong either way), net
// delta concordant with the decline, and optionally the weekly
// cumulative-delta slope. Ungated windows get the weighted 8-metric composite
// scaled by the duration multiplier.
func Score(window, baseline []aggregate.DailyBar, cfg Config) ScoreResult {
	cfg = cfg.Normalize()
	if len(window) == 0 {
		return ScoreResult{Reason: ReasonInsufficientDays}
	}

	weeks := countWeeks(window)
	if weeks < cfg.MinWeeks {
		return ScoreResult{Reason: ReasonInsufficientWeeks, Weeks: weeks}
	}

	firstClose := window[0].Close
	lastClose := window[len(window)-1].Close
	priceChange := 0.0
	if firstClose != 0 {
		priceChange = (lastClose - firstClose) / firstClose * 100
	}
	if priceChange > cfg.GateMaxPriceChangePct {
		return ScoreResult{Reason: ReasonPriceRising, Weeks: weeks}
	}
	if priceChange < cfg.GateCrashPct {
		return ScoreResult{Reason: ReasonCrash, Weeks: weeks}
	}

	if cfg.ClipOutliers {
		window = clipDeltas(window)
	}

	var sumDelta, sumVol float64
	for _, d := range window {
		sumDelta += d.Delta
		sumVol += d.TotalVol
	}
	netDeltaPct := 0.0
	if sumVol != 0 {
		netDeltaPct = sumDelta / sumVol * 100
	}
	if netDeltaPct < cfg.GateMinNetDeltaPct {
		return ScoreResult{Reason: ReasonConcordantSelling, Weeks: weeks}
	}

	weekly := aggregate.WeeklyBars(window)
	normSlope := weeklyDeltaSlope(weekly)
	if cfg.SlopeGate && normSlope < cfg.GateMinSlope {
		return ScoreResult{Reason: ReasonSlopeGate, Weeks: weeks}
	}

	n := len(window)
	avgVol := sumVol / float64(n)
	avgDelta := sumDelta / float64(n)

	// s1: net delta strength.
	s1 := cfg.ClampNetDelta.Apply(netDeltaPct)

	// s2: weekly cumulative-delta slope strength.
	s2 := cfg.ClampSlope.Apply(normSlope)

	// s3: delta shift vs baseline.
	baseAvgDelta, baseAvgVol := avgDelta, avgVol
	if len(baseline) > 0 {
		var bd, bv float64
		for _, d := range baseline {
			bd += d.Delta
			bv += d.TotalVol
		}
		baseAvgDelta = bd / float64(len(baseline))
		baseAvgVol = bv / float64(len(baseline))
	}
	deltaShift := 0.0
	if baseAvgVol != 0 {
		deltaShift = (avgDelta - baseAvgDelta) / baseAvgVol * 100
	}
	s3 := cfg.ClampDeltaShift.Apply(deltaShift)

	// s4: absorption — down days whose delta stays meaningfully positive.
	absorptionPct := absorptionDaysPct(window, avgVol, cfg.AbsorptionMinDeltaFrac)
	s4 := cfg.ClampAbsorption.Apply(absorptionPct)

	// s5: large buy-day vs sell-day balance.
	largeBalance := largeDayBalance(window, avgVol, cfg.LargeDayDeltaFrac)
	s5 := cfg.ClampLargeDayBalance.Apply(largeBalance)

	// s6: anti-correlation between closes and running cumulative delta.
	closes := make([]float64, n)
	cumDelta := make([]float64, n)
	run := 0.0
	for i, d := range window {
		closes[i] = d.Close
		run += d.Delta
		cumDelta[i] = run
	}
	corr := stats.Pearson(closes, cumDelta)
	s6 := cfg.ClampAntiCorrelation.Apply(-corr)

	// s7: fraction of weeks with positive weekly delta.
	accumWeeks := 0
	for _, w := range weekly {
		if w.Delta > 0 {
			accumWeeks++
		}
	}
	s7 := 0.0
	if len(weekly) > 0 {
		s7 = cfg.ClampPositiveWeeks.Apply(float64(accumWeeks) / float64(len(weekly)))
	}

	// s8: volatility/volume contraction, first third vs last third.
	s8 := clamp01(contraction(window) / cfg.ContractionFull)

	w := cfg.Weights
	rawScore := w.NetDelta*s1 + w.Slope*s2 + w.DeltaShift*s3 + w.Absorption*s4 +
		w.LargeDayBalance*s5 + w.AntiCorrelation*s6 + w.PositiveWeeks*s7 + w.Contraction*s8

	mult := cfg.DurationBase + float64(weeks-defaultMinWeeks)*cfg.DurationStep
	if mult > cfg.DurationCap {
		mult = cfg.DurationCap
	}
	score := clamp01(rawScore * mult)

	metrics := map[string]float64{
		MetricNetDelta:        s1,
		MetricSlope:           s2,
		MetricDeltaShift:      s3,
		MetricAbsorption:      s4,
		MetricLargeDayBalance: s5,
		MetricAntiCorrelation: s6,
		MetricPositiveWeeks:   s7,
		MetricContraction:     s8,
		MetricRawNetDeltaPct:  netDeltaPct,
		MetricRawPriceChange:  priceChange,
		MetricRawWeeklySlope:  normSlope,
		MetricRawCorrelation:  corr,
	}
	if deltaRSIDivergence(closes, cumDelta, cfg.DeltaRSIPeriod) {
		metrics[MetricDeltaRSIDiverged] = 1
	} else {
		metrics[MetricDeltaRSIDiverged] = 0
	}

	return ScoreResult{
		Score:              score,
		Detected:           score >= cfg.DetectThreshold,
		Weeks:              weeks,
		AccumWeeks:         accumWeeks,
		Metrics:            metrics,
		DurationMultiplier: mult,
	}
}

func countWeeks(daily []aggregate.DailyBar) int {
	weeks := 0
	var last string
	for _, d := range daily {
		ws := aggregate.WeekStart(d.Date).Format("2006-01-02")
		if ws != last {
			weeks++
			last = ws
		}
	}
	return weeks
}

// weeklyDeltaSlope regresses the weekly cumulative delta and normalizes the
// slope by average weekly volume (percent per week).
func weeklyDeltaSlope(weekly []aggregate.WeeklyBar) float64 {
	if len(weekly) < 2 {
		return 0
	}
	cum := make([]float64, len(weekly))
	run := 0.0
	totalVol := 0.0
	for i, w := range weekly {
		run += w.Delta
		cum[i] = run
		totalVol += w.TotalVol
	}
	avgVol := totalVol / float64(len(weekly))
	if avgVol == 0 {
		return 0
	}
	slope, _ := stats.LinearRegression(cum)
	return slope / avgVol * 100
}

func absorptionDaysPct(window []aggregate.DailyBar, avgVol, minFrac float64) float64 {
	if len(window) < 2 {
		return 0
	}
	threshold := minFrac * avgVol
	count := 0
	for i := 1; i < len(window); i++ {
		if window[i].Close < window[i-1].Close && window[i].Delta >= threshold {
			count++
		}
	}
	return float64(count) / float64(len(window)-1) * 100
}

func largeDayBalance(window []aggregate.DailyBar, avgVol, frac float64) float64 {
	threshold := frac * avgVol
	if threshold == 0 {
		return 0
	}
	buy, sell := 0, 0
	for _, d := range window {
		if d.Delta >= threshold {
			buy++
		} else if d.Delta <= -threshold {
			sell++
		}
	}
	return float64(buy-sell) / float64(len(window)) * 100
}

// contraction compares the first third of the window against the last third
// on daily range and on volume, returning the larger shrink ratio in [0,1].
func contraction(window []aggregate.DailyBar) float64 {
	third := len(window) / 3
	if third == 0 {
		return 0
	}
	first := window[:third]
	last := window[len(window)-third:]
	best := 0.0
	if c := shrinkRatio(avgOf(first, rangeOf), avgOf(last, rangeOf)); c > best {
		best = c
	}
	if c := shrinkRatio(avgOf(first, volOf), avgOf(last, volOf)); c > best {
		best = c
	}
	return best
}

func rangeOf(d aggregate.DailyBar) float64 { return d.RangePct }
func volOf(d aggregate.DailyBar) float64   { return d.TotalVol }

func avgOf(bars []aggregate.DailyBar, f func(aggregate.DailyBar) float64) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += f(b)
	}
	return sum / float64(len(bars))
}

func shrinkRatio(first, last float64) float64 {
	if first <= 0 {
		return 0
	}
	r := 1 - last/first
	if r < 0 {
		return 0
	}
	return r
}

// deltaRSIDivergence runs a Wilder RSI over the cumulative-delta series (not
// price) and reports a classic bullish divergence: price prints a lower low
// in the back half of the window while the delta oscillator holds a higher
// low over the same span.
func deltaRSIDivergence(closes, cumDelta []float64, period int) bool {
	rsi := stats.WilderRSI(cumDelta, period)
	if rsi == nil {
		return false
	}
	// Skip the warm-up region so both halves compare settled values.
	valid := len(closes) - period
	if valid < 4 {
		return false
	}
	mid := period + valid/2
	priceLow1 := minOf(closes[period:mid])
	priceLow2 := minOf(closes[mid:])
	rsiLow1 := minOf(rsi[period:mid])
	rsiLow2 := minOf(rsi[mid:])
	return priceLow2 < priceLow1 && rsiLow2 > rsiLow1
}

func minOf(vals []float64) float64 {
	m := math.Inf(1)
	for _, v := range vals {
		if v < m {
			m = v
		}
	}
	return m
}

// clipDeltas clips daily deltas to mean±3σ, recomputing DeltaPct. Returns a
// copy; input slices are never mutated.
func clipDeltas(window []aggregate.DailyBar) []aggregate.DailyBar {
	n := len(window)
	if n < 2 {
		return window
	}
	mean := 0.0
	for _, d := range window {
		mean += d.Delta
	}
	mean /= float64(n)
	variance := 0.0
	for _, d := range window {
		variance += (d.Delta - mean) * (d.Delta - mean)
	}
	sd := math.Sqrt(variance / float64(n))
	if sd == 0 {
		return window
	}
	lo, hi := mean-3*sd, mean+3*sd
	out := make([]aggregate.DailyBar, n)
	copy(out, window)
	for i := range out {
		if out[i].Delta < lo {
			out[i].Delta = lo
		} else if out[i].Delta > hi {
			out[i].Delta = hi
		}
		if out[i].TotalVol != 0 {
			out[i].DeltaPct = out[i].Delta / out[i].TotalVol * 100
		}
	}
	return out
}
