package quota

import (
	"reflect"
	"testing"

	"github.com/antigravity-tools/quota-monitor/internal/models"
)

func quotaModel(label, reset string, fraction *float64) models.ModelQuota {
	return models.ModelQuota{
		Label:             label,
		ModelID:           label,
		RemainingFraction: fraction,
		ResetTimeISO:      reset,
	}
}

func poolNames(pools []models.QuotaPool) []string {
	var names []string
	for _, p := range pools {
		names = append(names, p.Name)
	}
	return names
}

func TestGroupIntoPools_SplitsOnEitherField(t *testing.T) {
	tests := []struct {
		name       string
		models     []models.ModelQuota
		wantGroups [][]string
	}{
		{
			name: "SameResetSameFraction",
			models: []models.ModelQuota{
				quotaModel("A", "2026-09-01T00:00:00Z", fptr(0.5)),
				quotaModel("B", "2026-09-01T00:00:00Z", fptr(0.5)),
			},
			wantGroups: [][]string{{"A", "B"}},
		},
		{
			name: "SameResetDifferentFraction",
			models: []models.ModelQuota{
				quotaModel("A", "2026-09-01T00:00:00Z", fptr(0.5)),
				quotaModel("B", "2026-09-01T00:00:00Z", fptr(0.25)),
			},
			wantGroups: [][]string{{"A"}, {"B"}},
		},
		{
			name: "SameFractionDifferentReset",
			models: []models.ModelQuota{
				quotaModel("A", "2026-09-01T00:00:00Z", fptr(0.5)),
				quotaModel("B", "2026-09-02T00:00:00Z", fptr(0.5)),
			},
			wantGroups: [][]string{{"A"}, {"B"}},
		},
		{
			name: "NilFractionsGroupTogether",
			models: []models.ModelQuota{
				quotaModel("A", "2026-09-01T00:00:00Z", nil),
				quotaModel("B", "2026-09-01T00:00:00Z", nil),
				quotaModel("C", "2026-09-01T00:00:00Z", fptr(0)),
			},
			wantGroups: [][]string{{"A", "B"}, {"C"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pools := groupIntoPools(tt.models)

			var got [][]string
			for _, p := range pools {
				var labels []string
				for _, m := range p.Models {
					labels = append(labels, m.Label)
				}
				got = append(got, labels)
			}
			if !reflect.DeepEqual(got, tt.wantGroups) {
				t.Errorf("groups = %v, want %v", got, tt.wantGroups)
			}
		})
	}
}

func TestGroupIntoPools_CopiesDisplayFields(t *testing.T) {
	m := quotaModel("Claude 3 Opus", "2026-09-01T00:00:00Z", fptr(0.4))
	m.RemainingPercentage = fptr(40.0)
	m.UsedPercentage = fptr(60.0)
	m.TimeUntilResetMs = 12345

	pools := groupIntoPools([]models.ModelQuota{m})
	if len(pools) != 1 {
		t.Fatalf("pool count = %d, want 1", len(pools))
	}
	p := pools[0]
	if p.ModelCount != 1 {
		t.Errorf("ModelCount = %d, want 1", p.ModelCount)
	}
	if p.RemainingPercentage == nil || *p.RemainingPercentage != 40.0 {
		t.Errorf("RemainingPercentage = %v, want 40.0", p.RemainingPercentage)
	}
	if p.TimeUntilResetMs != 12345 {
		t.Errorf("TimeUntilResetMs = %d, want 12345", p.TimeUntilResetMs)
	}
}

func TestDerivePoolName(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   string
	}{
		{"SingleFamily", []string{"Claude 3 Opus", "Claude 3 Sonnet"}, "Claude Models"},
		{"TwoFamilies", []string{"Gemini 2.5 Pro", "Claude 3 Opus"}, "Claude / Gemini Models"},
		{"ThreeFamilies", []string{"GPT-5", "Claude 3", "Gemini 2"}, "Claude / GPT / Gemini Models"},
		{"SingleModelKeepsLabel", []string{"Claude 3 Opus"}, "Claude 3 Opus"},
		{"CaseInsensitiveMatch", []string{"claude opus", "CLAUDE sonnet"}, "Claude Models"},
		{"UnknownFamilyFirstWord", []string{"Mistral Large", "Mistral Small"}, "Mistral Models"},
		{"ManyFamilies", []string{"A one", "B two", "C three", "D four", "E five"}, "Premium Models"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := derivePoolName(tt.labels); got != tt.want {
				t.Errorf("derivePoolName(%v) = %q, want %q", tt.labels, got, tt.want)
			}
		})
	}
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Claude 3 Opus", "Claude"},
		{"gpt-5 high", "GPT"},
		{"Gemini 2.5 Flash", "Gemini"},
		{"Mistral Large", "Mistral"},
		{"solo", "solo"},
	}

	for _, tt := range tests {
		if got := familyOf(tt.label); got != tt.want {
			t.Errorf("familyOf(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestSortPoolsByUsage(t *testing.T) {
	pools := []models.QuotaPool{
		{Name: "LightPool", UsedPercentage: fptr(10)},
		{Name: "HeavyPool", UsedPercentage: fptr(80)},
		{Name: "ExhaustedPool", IsExhausted: true, UsedPercentage: fptr(100)},
	}
	sortPoolsByUsage(pools)

	want := []string{"ExhaustedPool", "HeavyPool", "LightPool"}
	if got := poolNames(pools); !reflect.DeepEqual(got, want) {
		t.Errorf("pool order = %v, want %v", got, want)
	}
}
