package types

// BurnoutRisk is the derived LOW/MEDIUM/HIGH engagement signal. It is
// recomputed per request and never persisted.
type BurnoutRisk string

const (
	BurnoutLow    BurnoutRisk = "LOW"
	BurnoutMedium BurnoutRisk = "MEDIUM"
	BurnoutHigh   BurnoutRisk = "HIGH"
)

// Elevated reports whether the risk is MEDIUM or HIGH.
func (r BurnoutRisk) Elevated() bool {
	return r == BurnoutMedium || r == BurnoutHigh
}

// BurnoutIndicator carries the risk level plus the contributing signals so
// callers can explain the assessment.
type BurnoutIndicator struct {
	Risk                BurnoutRisk `json:"risk"`
	ConsecutiveMissed   int         `json:"consecutive_missed"`
	CompletionRate7Day  float64     `json:"completion_rate_7day"`
	NegativeMemoryCount int         `json:"negative_memory_count"`
}
