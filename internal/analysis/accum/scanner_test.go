package accum

import (
	"testing"
	"time"
)

func TestScanWindowsCoversEveryOffset(t *testing.T) {
	daily := mkWindow(60, lerp(100, 95, 60), constFn(20), constFn(1000), constFn(1))
	cfg := Config{WindowSizes: []int{10, 20}}
	cands := ScanWindows(daily, cfg)

	want := (60 - 10 + 1) + (60 - 20 + 1)
	if len(cands) != want {
		t.Fatalf("candidate count = %d, want %d", len(cands), want)
	}
	for _, c := range cands {
		if c.Len() != c.WinSize {
			t.Fatalf("index span disagrees with window size: %+v", c)
		}
		if !c.StartDate.Equal(daily[c.Start].Date) || !c.EndDate.Equal(daily[c.End].Date) {
			t.Fatalf("dates must match indexed bars: %+v", c)
		}
	}
}

func TestScanWindowsHistoryCap(t *testing.T) {
	daily := mkWindow(60, lerp(100, 95, 60), constFn(20), constFn(1000), constFn(1))
	cfg := Config{WindowSizes: []int{10}, MaxHistoryDays: 30}
	cands := ScanWindows(daily, cfg)

	if want := 30 - 10 + 1; len(cands) != want {
		t.Fatalf("capped candidate count = %d, want %d", len(cands), want)
	}
	// Indices are relative to the capped tail, so offset 0 maps to bar 30.
	if !cands[0].StartDate.Equal(daily[30].Date) {
		t.Fatalf("cap must keep the most recent bars: first start %v, want %v",
			cands[0].StartDate, daily[30].Date)
	}
}

func TestScanWindowsSkipsOversizedWindows(t *testing.T) {
	daily := mkWindow(12, lerp(100, 98, 12), constFn(20), constFn(1000), constFn(1))
	cands := ScanWindows(daily, Config{WindowSizes: []int{10, 14, 35}})
	if want := 12 - 10 + 1; len(cands) != want {
		t.Fatalf("only the 10-day window fits: got %d, want %d", len(cands), want)
	}
	if ScanWindows(nil, Config{}) != nil {
		t.Fatal("empty history yields no candidates")
	}
}

func TestScanWindowsDoesNotMutateInput(t *testing.T) {
	daily := mkWindow(40, lerp(100, 94, 40), constFn(25), constFn(1000), lerp(1.4, 0.8, 40))
	var before []time.Time
	var deltas []float64
	for _, d := range daily {
		before = append(before, d.Date)
		deltas = append(deltas, d.Delta)
	}
	_ = ScanWindows(daily, Config{ClipOutliers: true})
	for i, d := range daily {
		if !d.Date.Equal(before[i]) || d.Delta != deltas[i] {
			t.Fatalf("input history mutated at %d: %+v", i, d)
		}
	}
}
