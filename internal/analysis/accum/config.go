package accum

// Canonical defaults for the 8-metric scoring scheme. Center/width constants
// are configuration, not structure: every knob here can be tuned without
// touching the algorithm.
const (
	defaultMaxHistoryDays  = 252
	defaultBaselineDays    = 40
	defaultMinWeeks        = 2
	defaultDetectThreshold = 0.30

	defaultGateMaxPriceChangePct = 10.0
	defaultGateCrashPct          = -45.0
	defaultGateMinNetDeltaPct    = -1.5
	defaultGateMinSlope          = -0.5

	defaultAbsorptionMinDeltaFrac = 0.05
	defaultLargeDayDeltaFrac      = 0.5
	defaultContractionFull        = 0.40
	defaultDeltaRSIPeriod         = 14

	defaultDurationBase = 0.7
	defaultDurationStep = 0.075
	defaultDurationCap  = 1.15

	defaultOverlapRatio = 0.30
	defaultZoneGapDays  = 10
	defaultMaxZones     = 3
)

var defaultWindowSizes = []int{10, 14, 17, 20, 24, 28, 35}

// Clamp maps a raw metric value into [0,1] via the affine form
// (value + Shift) / Span, clipped at both ends.
type Clamp struct {
	Shift float64 `json:"shift" toml:"shift"`
	Span  float64 `json:"span" toml:"span"`
}

// Apply evaluates the clamp; a zero Span yields 0.
func (c Clamp) Apply(v float64) float64 {
	if c.Span == 0 {
		return 0
	}
	return clamp01((v + c.Shift) / c.Span)
}

// Weights is the composite weight vector for s1..s8. The canonical set sums
// to 1; the scorer uses it as-is so a 6-metric variant remains reachable by
// zeroing entries.
type Weights struct {
	NetDelta        float64 `json:"net_delta" toml:"net_delta"`
	Slope           float64 `json:"slope" toml:"slope"`
	DeltaShift      float64 `json:"delta_shift" toml:"delta_shift"`
	Absorption      float64 `json:"absorption" toml:"absorption"`
	LargeDayBalance float64 `json:"large_day_balance" toml:"large_day_balance"`
	AntiCorrelation float64 `json:"anti_correlation" toml:"anti_correlation"`
	PositiveWeeks   float64 `json:"positive_weeks" toml:"positive_weeks"`
	Contraction     float64 `json:"contraction" toml:"contraction"`
}

// Config carries every tunable of the scorer, scanner and zone selector.
// Zero values are replaced by canonical defaults in Normalize.
type Config struct {
	WindowSizes    []int `json:"window_sizes" toml:"window_sizes"`
	MaxHistoryDays int   `json:"max_history_days" toml:"max_history_days"`
	BaselineDays   int   `json:"baseline_days" toml:"baseline_days"`
	MinWeeks       int   `json:"min_weeks" toml:"min_weeks"`

	DetectThreshold       float64 `json:"detect_threshold" toml:"detect_threshold"`
	GateMaxPriceChangePct float64 `json:"gate_max_price_change_pct" toml:"gate_max_price_change_pct"`
	GateCrashPct          float64 `json:"gate_crash_pct" toml:"gate_crash_pct"`
	GateMinNetDeltaPct    float64 `json:"gate_min_net_delta_pct" toml:"gate_min_net_delta_pct"`

	// SlopeGate enables the stricter weekly cumulative-delta slope gate.
	SlopeGate    bool    `json:"slope_gate" toml:"slope_gate"`
	GateMinSlope float64 `json:"gate_min_slope" toml:"gate_min_slope"`

	// ClipOutliers clips daily deltas to mean±3σ before scoring.
	ClipOutliers bool `json:"clip_outliers" toml:"clip_outliers"`

	AbsorptionMinDeltaFrac float64 `json:"absorption_min_delta_frac" toml:"absorption_min_delta_frac"`
	LargeDayDeltaFrac      float64 `json:"large_day_delta_frac" toml:"large_day_delta_frac"`
	ContractionFull        float64 `json:"contraction_full" toml:"contraction_full"`
	DeltaRSIPeriod         int     `json:"delta_rsi_period" toml:"delta_rsi_period"`

	ClampNetDelta        Clamp `json:"clamp_net_delta" toml:"clamp_net_delta"`
	ClampSlope           Clamp `json:"clamp_slope" toml:"clamp_slope"`
	ClampDeltaShift      Clamp `json:"clamp_delta_shift" toml:"clamp_delta_shift"`
	ClampAbsorption      Clamp `json:"clamp_absorption" toml:"clamp_absorption"`
	ClampLargeDayBalance Clamp `json:"clamp_large_day_balance" toml:"clamp_large_day_balance"`
	ClampAntiCorrelation Clamp `json:"clamp_anti_correlation" toml:"clamp_anti_correlation"`
	ClampPositiveWeeks   Clamp `json:"clamp_positive_weeks" toml:"clamp_positive_weeks"`

	Weights Weights `json:"weights" toml:"weights"`

	DurationBase float64 `json:"duration_base" toml:"duration_base"`
	DurationStep float64 `json:"duration_step" toml:"duration_step"`
	DurationCap  float64 `json:"duration_cap" toml:"duration_cap"`

	OverlapRatio float64 `json:"overlap_ratio" toml:"overlap_ratio"`
	ZoneGapDays  int     `json:"zone_gap_days" toml:"zone_gap_days"`
	MaxZones     int     `json:"max_zones" toml:"max_zones"`
}

// Normalize fills zero values with canonical defaults and returns a copy.
func (c Config) Normalize() Config {
	out := c
	if len(out.WindowSizes) == 0 {
		out.WindowSizes = append([]int(nil), defaultWindowSizes...)
	}
	if out.MaxHistoryDays <= 0 {
		out.MaxHistoryDays = defaultMaxHistoryDays
	}
	if out.BaselineDays <= 0 {
		out.BaselineDays = defaultBaselineDays
	}
	if out.MinWeeks <= 0 {
		out.MinWeeks = defaultMinWeeks
	}
	if out.DetectThreshold <= 0 {
		out.DetectThreshold = defaultDetectThreshold
	}
	if out.GateMaxPriceChangePct == 0 {
		out.GateMaxPriceChangePct = defaultGateMaxPriceChangePct
	}
	if out.GateCrashPct == 0 {
		out.GateCrashPct = defaultGateCrashPct
	}
	if out.GateMinNetDeltaPct == 0 {
		out.GateMinNetDeltaPct = defaultGateMinNetDeltaPct
	}
	if out.GateMinSlope == 0 {
		out.GateMinSlope = defaultGateMinSlope
	}
	if out.AbsorptionMinDeltaFrac <= 0 {
		out.AbsorptionMinDeltaFrac = defaultAbsorptionMinDeltaFrac
	}
	if out.LargeDayDeltaFrac <= 0 {
		out.LargeDayDeltaFrac = defaultLargeDayDeltaFrac
	}
	if out.ContractionFull <= 0 {
		out.ContractionFull = defaultContractionFull
	}
	if out.DeltaRSIPeriod <= 0 {
		out.DeltaRSIPeriod = defaultDeltaRSIPeriod
	}
	if out.ClampNetDelta.Span == 0 {
		out.ClampNetDelta = Clamp{Shift: 1.5, Span: 5}
	}
	if out.ClampSlope.Span == 0 {
		out.ClampSlope = Clamp{Shift: 0.5, Span: 4}
	}
	if out.ClampDeltaShift.Span == 0 {
		out.ClampDeltaShift = Clamp{Shift: 1, Span: 8}
	}
	if out.ClampAbsorption.Span == 0 {
		out.ClampAbsorption = Clamp{Shift: 0, Span: 18}
	}
	if out.ClampLargeDayBalance.Span == 0 {
		out.ClampLargeDayBalance = Clamp{Shift: 3, Span: 12}
	}
	if out.ClampAntiCorrelation.Span == 0 {
		out.ClampAntiCorrelation = Clamp{Shift: 0.3, Span: 1.5}
	}
	if out.ClampPositiveWeeks.Span == 0 {
		out.ClampPositiveWeeks = Clamp{Shift: -0.2, Span: 0.6}
	}
	if out.Weights == (Weights{}) {
		out.Weights = Weights{
			NetDelta:        0.22,
			Slope:           0.18,
			DeltaShift:      0.15,
			Absorption:      0.13,
			LargeDayBalance: 0.08,
			AntiCorrelation: 0.09,
			PositiveWeeks:   0.05,
			Contraction:     0.10,
		}
	}
	if out.DurationBase == 0 {
		out.DurationBase = defaultDurationBase
	}
	if out.DurationStep == 0 {
		out.DurationStep = defaultDurationStep
	}
	if out.DurationCap == 0 {
		out.DurationCap = defaultDurationCap
	}
	if out.OverlapRatio <= 0 {
		out.OverlapRatio = defaultOverlapRatio
	}
	if out.ZoneGapDays <= 0 {
		out.ZoneGapDays = defaultZoneGapDays
	}
	if out.MaxZones <= 0 {
		out.MaxZones = defaultMaxZones
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
