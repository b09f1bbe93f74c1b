package db

import (
	"testing"
	"time"

	"github.com/antigravity-tools/quota-monitor/internal/models"
)

func fptr(v float64) *float64 { return &v }

func sampleReport(ts time.Time) *models.QuotaReport {
	return &models.QuotaReport{
		Timestamp: ts,
		PlanName:  "Pro",
		PromptCredits: &models.CreditBlock{
			Available: 25, Monthly: 100, Used: 75,
			UsedPercentage: 75.0, RemainingPercentage: 25.0,
		},
		Models: []models.ModelQuota{
			{Label: "Claude 3 Opus", RemainingPercentage: fptr(10.0), UsedPercentage: fptr(90.0)},
			{Label: "Gemini 2.5 Pro", RemainingPercentage: fptr(60.0), UsedPercentage: fptr(40.0)},
			{Label: "GPT-5", IsExhausted: true, RemainingPercentage: fptr(0.0), UsedPercentage: fptr(100.0)},
			{Label: "Untracked Pct"},
		},
	}
}

func TestSnapshotFromReport(t *testing.T) {
	ts := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	snap := SnapshotFromReport(sampleReport(ts))

	if !snap.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", snap.Timestamp, ts)
	}
	if snap.PlanName != "Pro" {
		t.Errorf("PlanName = %q, want Pro", snap.PlanName)
	}
	if snap.PromptUsedPct == nil || *snap.PromptUsedPct != 75.0 {
		t.Errorf("PromptUsedPct = %v, want 75.0", snap.PromptUsedPct)
	}
	if snap.FlowUsedPct != nil {
		t.Errorf("FlowUsedPct = %v, want nil", snap.FlowUsedPct)
	}
	if snap.MinRemainingPct == nil || *snap.MinRemainingPct != 0.0 {
		t.Errorf("MinRemainingPct = %v, want 0.0", snap.MinRemainingPct)
	}
	if snap.ModelCount != 4 {
		t.Errorf("ModelCount = %d, want 4", snap.ModelCount)
	}
	if snap.ExhaustedCount != 1 {
		t.Errorf("ExhaustedCount = %d, want 1", snap.ExhaustedCount)
	}
}

func TestSnapshotFromReport_EmptyReport(t *testing.T) {
	snap := SnapshotFromReport(&models.QuotaReport{PlanName: "Unknown"})

	if snap.PromptUsedPct != nil || snap.FlowUsedPct != nil || snap.MinRemainingPct != nil {
		t.Error("Expected all optional aggregates to be nil for empty report")
	}
	if snap.ModelCount != 0 || snap.ExhaustedCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", snap.ModelCount, snap.ExhaustedCount)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
	}{
		{"RFC3339", "2026-08-26T12:00:00Z"},
		{"StorageLayout", "2026-08-26 12:00:00"},
		{"NoZone", "2026-08-26T12:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.value)
			if err != nil {
				t.Fatalf("parseTimestamp(%q) failed: %v", tt.value, err)
			}
			if !got.Equal(want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.value, got, want)
			}
		})
	}

	if _, err := parseTimestamp("not a timestamp"); err == nil {
		t.Error("parseTimestamp should reject malformed input")
	}
}

func TestInsertAndGetSnapshots(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		snap := SnapshotFromReport(sampleReport(base.Add(time.Duration(i) * time.Minute)))
		if err := db.InsertSnapshot(snap); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
		if snap.ID == 0 {
			t.Error("InsertSnapshot did not populate ID")
		}
	}

	got, err := db.GetSnapshots(base.Add(time.Minute))
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("snapshot count = %d, want 2", len(got))
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Error("Expected snapshots ordered oldest first")
	}
	if !got[0].Timestamp.Equal(base.Add(time.Minute)) {
		t.Errorf("round-trip timestamp = %v, want %v", got[0].Timestamp, base.Add(time.Minute))
	}
	if got[0].PromptUsedPct == nil || *got[0].PromptUsedPct != 75.0 {
		t.Errorf("PromptUsedPct = %v, want 75.0", got[0].PromptUsedPct)
	}
	if got[0].FlowUsedPct != nil {
		t.Errorf("FlowUsedPct = %v, want nil round-trip", got[0].FlowUsedPct)
	}
}

func TestLatestSnapshot(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	latest, err := db.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if latest != nil {
		t.Errorf("LatestSnapshot on empty table = %+v, want nil", latest)
	}

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		snap := SnapshotFromReport(sampleReport(base.Add(time.Duration(i) * time.Minute)))
		if err := db.InsertSnapshot(snap); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}

	latest, err = db.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if latest == nil {
		t.Fatal("LatestSnapshot = nil after inserts")
	}
	if !latest.Timestamp.Equal(base.Add(time.Minute)) {
		t.Errorf("latest timestamp = %v, want %v", latest.Timestamp, base.Add(time.Minute))
	}
}

func TestPruneOlderThan(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		snap := SnapshotFromReport(sampleReport(base.Add(time.Duration(i) * time.Hour)))
		if err := db.InsertSnapshot(snap); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}

	deleted, err := db.PruneOlderThan(base.Add(2 * time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	remaining, err := db.GetSnapshots(time.Time{})
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(remaining) != 3 {
		t.Errorf("remaining = %d, want 3", len(remaining))
	}
}
