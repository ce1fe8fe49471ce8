package logging

import "time"

// #region round-entry
// RoundEntry is a single row in the round_log table.
type RoundEntry struct {
	RoundID     string
	Phase       string // "pretrain" | "round"
	Iteration   int
	Battles     int
	Evicted     int
	Transitions int
	R2          float64
	MSE         float64
	Decision    string // "save" | "skip"
	Reason      string
	RecordJSON  string
	CreatedAt   time.Time
}

// #endregion round-entry

// #region round-record
// RoundRecord captures everything that fed one round's checkpoint decision.
// Serialized as JSON into round_log.record_json for offline inspection.
type RoundRecord struct {
	RoundID string `json:"round_id"`
	Phase   string `json:"phase"`

	Gamma  float64 `json:"gamma"`
	Retain int     `json:"retain"`
	Epochs int     `json:"epochs"`

	// Exploration rate per agent at the time the round was played.
	Exploration map[string]float64 `json:"exploration,omitempty"`
	// Win rate per player per opponent for this round only.
	WinRates map[string]map[string]float64 `json:"win_rates,omitempty"`

	Metrics []RoundMetric `json:"metrics,omitempty"`

	GateAction string `json:"gate_action"`
	GateVetoed bool   `json:"gate_vetoed"`
	GateReason string `json:"gate_reason"`
}

// RoundMetric mirrors one eval check.
type RoundMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// #endregion round-record
