package accum

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"stakeout/internal/aggregate"
)

// mkWindow builds n weekday bars starting Monday 2024-01-01 with per-index
// generators for close, delta, volume and range percent.
func mkWindow(n int, closeFn, deltaFn, volFn, rangeFn func(i int) float64) []aggregate.DailyBar {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	out := make([]aggregate.DailyBar, 0, n)
	for i := 0; i < n; i++ {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		cl := closeFn(i)
		delta := deltaFn(i)
		vol := volFn(i)
		buy := (vol + delta) / 2
		out = append(out, aggregate.DailyBar{
			Date:     day,
			Open:     cl,
			Close:    cl,
			High:     cl * 1.01,
			Low:      cl * 0.99,
			BuyVol:   buy,
			SellVol:  vol - buy,
			TotalVol: vol,
			Delta:    delta,
			RangePct: rangeFn(i),
		})
		day = day.AddDate(0, 0, 1)
	}
	return out
}

func constFn(v float64) func(int) float64 { return func(int) float64 { return v } }

// lerp interpolates from a at i=0 to b at i=n-1.
func lerp(a, b float64, n int) func(int) float64 {
	return func(i int) float64 { return a + (b-a)*float64(i)/float64(n-1) }
}

// stealthWindow is the canonical accumulation shape: price drifting down 8%
// while every day closes with a small positive delta and daily range contracts.
func stealthWindow() []aggregate.DailyBar {
	return mkWindow(20, lerp(100, 92, 20), constFn(28), constFn(1000), lerp(1.5, 0.7, 20))
}

func TestScoreStealthAccumulation(t *testing.T) {
	res := Score(stealthWindow(), nil, Config{})
	if res.Reason != "" {
		t.Fatalf("window should pass all gates, got reason %q", res.Reason)
	}
	if !res.Detected {
		t.Fatalf("window should be detected, score %v", res.Score)
	}
	if res.Weeks != 4 {
		t.Fatalf("20 weekdays span 4 weeks, got %d", res.Weeks)
	}
	if math.Abs(res.DurationMultiplier-0.85) > 1e-9 {
		t.Fatalf("duration multiplier for 4 weeks = %v, want 0.85", res.DurationMultiplier)
	}
	// Hand-computed composite for this fixture:
	// s1=0.86 s2=0.825 s3=0.125 s4=0 s5=0.25 s6=0.8667 s7=1 s8=1
	// raw=0.60445, ×0.85 = 0.51378.
	if math.Abs(res.Score-0.51378) > 0.005 {
		t.Fatalf("score = %v, want ≈0.51378", res.Score)
	}
	if res.AccumWeeks != 4 {
		t.Fatalf("all four weeks have positive delta, got %d", res.AccumWeeks)
	}
	if math.Abs(res.Metrics[MetricRawNetDeltaPct]-2.8) > 1e-9 {
		t.Fatalf("raw net delta pct = %v, want 2.8", res.Metrics[MetricRawNetDeltaPct])
	}
	if corr := res.Metrics[MetricRawCorrelation]; corr > -0.99 {
		t.Fatalf("linear decline vs linear accumulation should be ≈-1, got %v", corr)
	}
}

func TestScoreGateInsufficientDays(t *testing.T) {
	res := Score(nil, nil, Config{})
	if res.Reason != ReasonInsufficientDays || res.Detected || res.Score != 0 {
		t.Fatalf("empty window: %+v", res)
	}
}

func TestScoreGateInsufficientWeeks(t *testing.T) {
	// Monday through Thursday: a single week.
	w := mkWindow(4, constFn(100), constFn(10), constFn(1000), constFn(1))
	res := Score(w, nil, Config{})
	if res.Reason != ReasonInsufficientWeeks {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonInsufficientWeeks)
	}
	if res.Weeks != 1 {
		t.Fatalf("weeks = %d, want 1", res.Weeks)
	}
}

func TestScoreGatePriceRising(t *testing.T) {
	// +12% rally with heavy buying: the price gate must still win.
	w := mkWindow(15, lerp(100, 112, 15), constFn(400), constFn(1000), constFn(1))
	res := Score(w, nil, Config{})
	if res.Reason != ReasonPriceRising || res.Detected || res.Score != 0 {
		t.Fatalf("rally must short-circuit on the price gate: %+v", res)
	}
}

func TestScoreGateCrash(t *testing.T) {
	w := mkWindow(15, lerp(100, 50, 15), constFn(100), constFn(1000), constFn(1))
	res := Score(w, nil, Config{})
	if res.Reason != ReasonCrash {
		t.Fatalf("-50%% must trip the crash gate, got %q", res.Reason)
	}
}

func TestScoreGateConcordantSelling(t *testing.T) {
	w := mkWindow(15, lerp(100, 95, 15), constFn(-50), constFn(1000), constFn(1))
	res := Score(w, nil, Config{})
	if res.Reason != ReasonConcordantSelling {
		t.Fatalf("net delta -5%% with price down must be concordant selling, got %q", res.Reason)
	}
}

func TestScoreSlopeGateOptional(t *testing.T) {
	// Net delta barely survives (-1.35%) but the weekly cumulative-delta
	// slope is firmly negative: weekly deltas +90, -60, -120, -180.
	deltas := func(i int) float64 {
		switch i / 5 {
		case 0:
			return 18
		case 1:
			return -12
		case 2:
			return -24
		default:
			return -36
		}
	}
	w := mkWindow(20, lerp(100, 96, 20), deltas, constFn(1000), constFn(1))

	res := Score(w, nil, Config{SlopeGate: true})
	if res.Reason != ReasonSlopeGate {
		t.Fatalf("slope gate enabled: reason = %q, want %q", res.Reason, ReasonSlopeGate)
	}
	res = Score(w, nil, Config{})
	if res.Reason != "" {
		t.Fatalf("slope gate disabled: window should be scored, got %q", res.Reason)
	}
}

func TestScoreGatePrecedence(t *testing.T) {
	// One week of data that also rallies: the weeks gate fires first.
	w := mkWindow(5, lerp(100, 115, 5), constFn(500), constFn(1000), constFn(1))
	res := Score(w, nil, Config{})
	if res.Reason != ReasonInsufficientWeeks {
		t.Fatalf("weeks gate must precede price gate, got %q", res.Reason)
	}
}

func TestScoreBaselineShift(t *testing.T) {
	w := stealthWindow()
	baseline := mkWindow(20, constFn(105), constFn(0), constFn(1000), constFn(1.5))
	withBase := Score(w, baseline, Config{})
	withoutBase := Score(w, nil, Config{})
	if withBase.Score <= withoutBase.Score {
		t.Fatalf("a flat baseline should lift the delta-shift metric: %v <= %v",
			withBase.Score, withoutBase.Score)
	}
	if withBase.Metrics[MetricDeltaShift] <= withoutBase.Metrics[MetricDeltaShift] {
		t.Fatalf("delta-shift sub-score should rise with baseline: %v vs %v",
			withBase.Metrics[MetricDeltaShift], withoutBase.Metrics[MetricDeltaShift])
	}
}

func TestScoreMonotoneInDelta(t *testing.T) {
	lo := Score(mkWindow(20, lerp(100, 92, 20), constFn(10), constFn(1000), lerp(1.5, 0.7, 20)), nil, Config{})
	hi := Score(mkWindow(20, lerp(100, 92, 20), constFn(40), constFn(1000), lerp(1.5, 0.7, 20)), nil, Config{})
	if hi.Score <= lo.Score {
		t.Fatalf("stronger uniform buying must not lower the score: %v <= %v", hi.Score, lo.Score)
	}
}

func TestScoreClipOutliers(t *testing.T) {
	// One absurd +5000 spike in an otherwise flat-delta window.
	deltas := func(i int) float64 {
		if i == 10 {
			return 5000
		}
		return 10
	}
	w := mkWindow(20, lerp(100, 95, 20), deltas, constFn(6000), constFn(1))
	clipped := Score(w, nil, Config{ClipOutliers: true})
	raw := Score(w, nil, Config{})
	if clipped.Metrics[MetricRawNetDeltaPct] >= raw.Metrics[MetricRawNetDeltaPct] {
		t.Fatalf("clipping must shave the spike: %v >= %v",
			clipped.Metrics[MetricRawNetDeltaPct], raw.Metrics[MetricRawNetDeltaPct])
	}
	// Input must not be mutated.
	if w[10].Delta != 5000 {
		t.Fatalf("scorer mutated its input: %v", w[10].Delta)
	}
}

func TestScoreBoundsOnNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	daily := mkWindow(120,
		func(i int) float64 { return 100 + 10*math.Sin(float64(i)/9) + rng.Float64()*2 },
		func(i int) float64 { return (rng.Float64() - 0.5) * 400 },
		func(i int) float64 { return 800 + rng.Float64()*600 },
		func(i int) float64 { return 0.5 + rng.Float64()*2 },
	)
	cands := ScanWindows(daily, Config{})
	if len(cands) == 0 {
		t.Fatal("scan produced no candidates")
	}
	for _, c := range cands {
		if c.Score < 0 || c.Score > 1 {
			t.Fatalf("score out of [0,1]: %+v", c)
		}
		if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
			t.Fatalf("score not finite: %+v", c)
		}
		if c.Detected != (c.Score >= defaultDetectThreshold) {
			t.Fatalf("detected flag inconsistent with threshold: %+v", c)
		}
		for k, v := range c.Metrics {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("metric %s not finite: %v", k, v)
			}
		}
	}
}
