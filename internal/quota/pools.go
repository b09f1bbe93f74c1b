package quota

import (
	"sort"
	"strconv"
	"strings"

	"github.com/antigravity-tools/quota-monitor/internal/models"
)

// Recognized model families, in match priority order.
var modelFamilies = []string{"Claude", "Gemini", "GPT"}

// poolKey builds the exact grouping key for a model: two models share a pool
// iff both reset time and remaining fraction compare equal, where an absent
// fraction only equals another absent fraction.
func poolKey(m models.ModelQuota) string {
	fraction := "none"
	if m.RemainingFraction != nil {
		fraction = strconv.FormatFloat(*m.RemainingFraction, 'g', -1, 64)
	}
	return m.ResetTimeISO + "|" + fraction
}

// groupIntoPools groups an already-sorted model list into quota pools,
// preserving first-seen order. Display fields are copied from each pool's
// first member.
func groupIntoPools(list []models.ModelQuota) []models.QuotaPool {
	grouped := make(map[string][]models.ModelQuota)
	var order []string

	for _, m := range list {
		key := poolKey(m)
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], m)
	}

	pools := make([]models.QuotaPool, 0, len(order))
	for _, key := range order {
		members := grouped[key]
		first := members[0]

		labels := make([]string, len(members))
		for i, m := range members {
			labels[i] = m.Label
		}

		pools = append(pools, models.QuotaPool{
			Name:                derivePoolName(labels),
			Models:              members,
			ModelCount:          len(members),
			RemainingFraction:   first.RemainingFraction,
			RemainingPercentage: first.RemainingPercentage,
			UsedPercentage:      first.UsedPercentage,
			IsExhausted:         first.IsExhausted,
			ResetTimeISO:        first.ResetTimeISO,
			TimeUntilResetMs:    first.TimeUntilResetMs,
		})
	}
	return pools
}

// derivePoolName produces a display name for a pool from its member labels.
// A single member keeps its own label. Otherwise labels collapse into model
// families; labels outside the known families contribute their first
// whitespace-delimited token.
func derivePoolName(labels []string) string {
	if len(labels) == 1 {
		return labels[0]
	}

	families := make(map[string]bool)
	for _, label := range labels {
		families[familyOf(label)] = true
	}

	if len(families) > 3 {
		return "Premium Models"
	}

	names := make([]string, 0, len(families))
	for f := range families {
		names = append(names, f)
	}
	if len(names) == 1 {
		return names[0] + " Models"
	}

	sort.Strings(names)
	return strings.Join(names, " / ") + " Models"
}

// familyOf maps a model label to its family name.
func familyOf(label string) string {
	lower := strings.ToLower(label)
	for _, family := range modelFamilies {
		if strings.Contains(lower, strings.ToLower(family)) {
			return family
		}
	}
	if fields := strings.Fields(label); len(fields) > 0 {
		return fields[0]
	}
	return label
}
