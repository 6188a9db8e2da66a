package accum

import "time"

// Reason codes for zero, non-detected score results. Data-insufficiency and
// gate rejections use distinct codes so the UI can explain why nothing was
// flagged.
const (
	ReasonInsufficientDays  = "insufficient_days"
	ReasonInsufficientWeeks = "insufficient_weeks"
	ReasonPriceRising       = "price_rising"
	ReasonCrash             = "crash"
	ReasonConcordantSelling = "concordant_selling"
	ReasonSlopeGate         = "slope_gate"
)

// Metric keys published in ScoreResult.Metrics. s1..s8 are the clamped
// sub-scores; raw_* entries carry the unclamped inputs for debug views.
const (
	MetricNetDelta        = "net_delta"
	MetricSlope           = "slope"
	MetricDeltaShift      = "delta_shift"
	MetricAbsorption      = "absorption"
	MetricLargeDayBalance = "large_day_balance"
	MetricAntiCorrelation = "anti_correlation"
	MetricPositiveWeeks   = "positive_weeks"
	MetricContraction     = "contraction"

	MetricRawNetDeltaPct   = "raw_net_delta_pct"
	MetricRawPriceChange   = "raw_price_change_pct"
	MetricRawWeeklySlope   = "raw_weekly_slope"
	MetricRawCorrelation   = "raw_correlation"
	MetricDeltaRSIDiverged = "delta_rsi_divergence"
)

// ScoreResult is the scorer output for a single candidate window. Ephemeral,
// recomputed per request.
type ScoreResult struct {
	Score              float64            `json:"score"`
	Detected           bool               `json:"detected"`
	Reason             string             `json:"reason,omitempty"`
	Weeks              int                `json:"weeks"`
	AccumWeeks         int                `json:"accum_weeks"`
	Metrics            map[string]float64 `json:"metrics,omitempty"`
	DurationMultiplier float64            `json:"duration_multiplier"`
}

// Candidate is a ScoreResult pinned to a concrete (window-size, offset) slice
// of the daily history.
type Candidate struct {
	ScoreResult
	Start     int       `json:"start"`
	End       int       `json:"end"`
	WinSize   int       `json:"win_size"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Len returns the candidate's length in trading days.
func (c Candidate) Len() int { return c.End - c.Start + 1 }

// Zone is a candidate that survived overlap resolution.
type Zone = Candidate
