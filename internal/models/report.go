// Package models defines data structures and domain types.
package models

import "time"

// CreditBlock holds normalized prompt or flow credit usage.
// A block is only constructed when the monthly allotment is present and
// non-zero and the available count is present; "no meaningful quota" is
// represented by the absence of the block, never by a zero block.
type CreditBlock struct {
	Available           int64   `json:"available"`
	Monthly             int64   `json:"monthly"`
	Used                int64   `json:"used"`
	UsedPercentage      float64 `json:"used_percentage"`
	RemainingPercentage float64 `json:"remaining_percentage"`
}

// ModelQuota is the normalized per-model quota entry. Percentage fields are
// nil when the upstream remaining fraction is absent.
type ModelQuota struct {
	Label               string   `json:"label"`
	ModelID             string   `json:"model_id"`
	RemainingFraction   *float64 `json:"remaining_fraction"`
	RemainingPercentage *float64 `json:"remaining_percentage"`
	UsedPercentage      *float64 `json:"used_percentage"`
	IsExhausted         bool     `json:"is_exhausted"`
	ResetTimeISO        string   `json:"reset_time_iso"`
	TimeUntilResetMs    int64    `json:"time_until_reset_ms"`
}

// QuotaPool groups models that share the exact same reset time and remaining
// fraction. Display fields are copied from the first member; by construction
// all members agree on them.
type QuotaPool struct {
	Name                string       `json:"name"`
	Models              []ModelQuota `json:"models"`
	ModelCount          int          `json:"model_count"`
	RemainingFraction   *float64     `json:"remaining_fraction"`
	RemainingPercentage *float64     `json:"remaining_percentage"`
	UsedPercentage      *float64     `json:"used_percentage"`
	IsExhausted         bool         `json:"is_exhausted"`
	ResetTimeISO        string       `json:"reset_time_iso"`
	TimeUntilResetMs    int64        `json:"time_until_reset_ms"`
}

// QuotaReport is the normalized quota status served to clients.
type QuotaReport struct {
	Timestamp     time.Time    `json:"timestamp"`
	PlanName      string       `json:"plan_name"`
	PlanTier      string       `json:"plan_tier"`
	PromptCredits *CreditBlock `json:"prompt_credits"`
	FlowCredits   *CreditBlock `json:"flow_credits"`
	Models        []ModelQuota `json:"models"`
	Pools         []QuotaPool  `json:"pools"`
	UserName      string       `json:"user_name"`
	UserEmail     string       `json:"user_email"`
}

// QuotaSnapshot is a point-in-time aggregate of a QuotaReport (DB model).
type QuotaSnapshot struct {
	Timestamp       time.Time `json:"timestamp"`
	ID              int64     `json:"id"`
	PlanName        string    `json:"plan_name"`
	PromptUsedPct   *float64  `json:"prompt_used_pct"`
	FlowUsedPct     *float64  `json:"flow_used_pct"`
	MinRemainingPct *float64  `json:"min_remaining_pct"`
	ModelCount      int       `json:"model_count"`
	ExhaustedCount  int       `json:"exhausted_count"`
}
