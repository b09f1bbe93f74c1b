package quota

import (
	"math"
	"sort"
	"time"

	"github.com/antigravity-tools/quota-monitor/internal/langserver"
	"github.com/antigravity-tools/quota-monitor/internal/models"
)

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Normalize transforms a raw GetUserStatus response into a QuotaReport.
// It is a pure function of its inputs: no I/O, no clock access, fully
// deterministic for a given (raw, now) pair.
func Normalize(raw *langserver.UserStatusResponse, now time.Time) *models.QuotaReport {
	userStatus := raw.UserStatus
	planStatus := userStatus.PlanStatus
	planInfo := planStatus.PlanInfo

	modelList := normalizeModels(userStatus.CascadeModelConfigData.ClientModelConfigs, now)
	sortByUsage(modelList)

	pools := groupIntoPools(modelList)
	sortPoolsByUsage(pools)

	return &models.QuotaReport{
		Timestamp:     now,
		PlanName:      stringOr(planInfo.PlanName, "Unknown"),
		PlanTier:      planInfo.TeamsTier,
		PromptCredits: creditBlock(planInfo.MonthlyPromptCredits, planStatus.AvailablePromptCredits),
		FlowCredits:   creditBlock(planInfo.MonthlyFlowCredits, planStatus.AvailableFlowCredits),
		Models:        modelList,
		Pools:         pools,
		UserName:      userStatus.Name,
		UserEmail:     userStatus.Email,
	}
}

// creditBlock normalizes one credit pair. Returns nil when monthly is absent
// or zero, or when available is absent: no meaningful quota means no block.
func creditBlock(monthly langserver.FlexInt, available *langserver.FlexInt) *models.CreditBlock {
	if monthly == 0 || available == nil {
		return nil
	}

	m, a := int64(monthly), int64(*available)
	used := m - a
	return &models.CreditBlock{
		Available:           a,
		Monthly:             m,
		Used:                used,
		UsedPercentage:      round1(float64(used) / float64(m) * 100),
		RemainingPercentage: round1(float64(a) / float64(m) * 100),
	}
}

// normalizeModels converts raw model configs into ModelQuota entries.
// Entries without quota info are dropped entirely.
func normalizeModels(configs []langserver.ClientModelConfig, now time.Time) []models.ModelQuota {
	var out []models.ModelQuota
	for _, cfg := range configs {
		if cfg.QuotaInfo == nil {
			continue
		}

		fraction := cfg.QuotaInfo.RemainingFraction
		resetTime := cfg.QuotaInfo.ResetTime

		var remainingPct, usedPct *float64
		if fraction != nil {
			r := round1(*fraction * 100)
			u := round1((1 - *fraction) * 100)
			remainingPct, usedPct = &r, &u
		}

		out = append(out, models.ModelQuota{
			Label:               stringOr(cfg.Label, "Unknown"),
			ModelID:             stringOr(cfg.ModelOrAlias.Model, "unknown"),
			RemainingFraction:   fraction,
			RemainingPercentage: remainingPct,
			UsedPercentage:      usedPct,
			IsExhausted:         fraction != nil && *fraction == 0,
			ResetTimeISO:        resetTime,
			TimeUntilResetMs:    timeUntilReset(resetTime, now),
		})
	}
	return out
}

// timeUntilReset parses an ISO-8601 reset instant and returns the remaining
// milliseconds relative to now, truncated toward zero. Any parse failure
// defaults to 0.
func timeUntilReset(resetTime string, now time.Time) int64 {
	t, err := time.Parse(time.RFC3339, resetTime)
	if err != nil {
		return 0
	}
	return t.Sub(now).Milliseconds()
}

// usedForOrdering treats an absent used percentage as 0. Ordering only;
// display keeps the field absent.
func usedForOrdering(usedPct *float64) float64 {
	if usedPct == nil {
		return 0
	}
	return *usedPct
}

// sortByUsage orders models exhausted-first, then by used percentage
// descending. Stable for ties.
func sortByUsage(list []models.ModelQuota) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].IsExhausted != list[j].IsExhausted {
			return list[i].IsExhausted
		}
		return usedForOrdering(list[i].UsedPercentage) > usedForOrdering(list[j].UsedPercentage)
	})
}

// sortPoolsByUsage applies the same composite key to pools.
func sortPoolsByUsage(pools []models.QuotaPool) {
	sort.SliceStable(pools, func(i, j int) bool {
		if pools[i].IsExhausted != pools[j].IsExhausted {
			return pools[i].IsExhausted
		}
		return usedForOrdering(pools[i].UsedPercentage) > usedForOrdering(pools[j].UsedPercentage)
	})
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
