package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/antigravity-tools/quota-monitor/internal/logger"
	"github.com/antigravity-tools/quota-monitor/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// timestampFormats covers what the driver hands back for DATETIME columns.
// RFC3339 comes first: the driver materializes such columns as time.Time,
// which database/sql stringifies in RFC3339 when scanned into a string.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	timestampLayout,
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized snapshot timestamp %q", s)
}

// SnapshotFromReport condenses a full quota report into the aggregate row
// stored for history charting.
func SnapshotFromReport(report *models.QuotaReport) *models.QuotaSnapshot {
	snap := &models.QuotaSnapshot{
		Timestamp:  report.Timestamp,
		PlanName:   report.PlanName,
		ModelCount: len(report.Models),
	}

	if report.PromptCredits != nil {
		v := report.PromptCredits.UsedPercentage
		snap.PromptUsedPct = &v
	}
	if report.FlowCredits != nil {
		v := report.FlowCredits.UsedPercentage
		snap.FlowUsedPct = &v
	}

	for _, m := range report.Models {
		if m.IsExhausted {
			snap.ExhaustedCount++
		}
		if m.RemainingPercentage == nil {
			continue
		}
		if snap.MinRemainingPct == nil || *m.RemainingPercentage < *snap.MinRemainingPct {
			v := *m.RemainingPercentage
			snap.MinRemainingPct = &v
		}
	}

	return snap
}

// InsertSnapshot records a point-in-time quota reading.
func (db *DB) InsertSnapshot(snapshot *models.QuotaSnapshot) error {
	query := `
		INSERT INTO quota_snapshots (
			timestamp, plan_name, prompt_used_pct, flow_used_pct,
			min_remaining_pct, model_count, exhausted_count
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	timestamp := snapshot.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	result, err := db.ExecContext(context.Background(), query,
		timestamp.UTC().Format(timestampLayout),
		snapshot.PlanName,
		nullFloat(snapshot.PromptUsedPct),
		nullFloat(snapshot.FlowUsedPct),
		nullFloat(snapshot.MinRemainingPct),
		snapshot.ModelCount,
		snapshot.ExhaustedCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quota snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		snapshot.ID = id
	}

	return nil
}

// GetSnapshots returns snapshots captured at or after since, oldest first.
func (db *DB) GetSnapshots(since time.Time) ([]models.QuotaSnapshot, error) {
	query := `
		SELECT id, timestamp, plan_name, prompt_used_pct, flow_used_pct,
			   min_remaining_pct, model_count, exhausted_count
		FROM quota_snapshots
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`

	rows, err := db.QueryContext(context.Background(), query, since.UTC().Format(timestampLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query quota snapshots: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var snapshots []models.QuotaSnapshot
	for rows.Next() {
		var snap models.QuotaSnapshot
		var ts string
		var promptPct, flowPct, minPct sql.NullFloat64

		err := rows.Scan(
			&snap.ID,
			&ts,
			&snap.PlanName,
			&promptPct,
			&flowPct,
			&minPct,
			&snap.ModelCount,
			&snap.ExhaustedCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quota snapshot: %w", err)
		}

		snap.Timestamp, err = parseTimestamp(ts)
		if err != nil {
			return nil, err
		}
		snap.PromptUsedPct = floatPtr(promptPct)
		snap.FlowUsedPct = floatPtr(flowPct)
		snap.MinRemainingPct = floatPtr(minPct)
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// LatestSnapshot returns the most recent snapshot, or nil when the table is empty.
func (db *DB) LatestSnapshot() (*models.QuotaSnapshot, error) {
	query := `
		SELECT id, timestamp, plan_name, prompt_used_pct, flow_used_pct,
			   min_remaining_pct, model_count, exhausted_count
		FROM quota_snapshots
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var snap models.QuotaSnapshot
	var ts string
	var promptPct, flowPct, minPct sql.NullFloat64

	err := db.QueryRowContext(context.Background(), query).Scan(
		&snap.ID,
		&ts,
		&snap.PlanName,
		&promptPct,
		&flowPct,
		&minPct,
		&snap.ModelCount,
		&snap.ExhaustedCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	snap.Timestamp, err = parseTimestamp(ts)
	if err != nil {
		return nil, err
	}
	snap.PromptUsedPct = floatPtr(promptPct)
	snap.FlowUsedPct = floatPtr(flowPct)
	snap.MinRemainingPct = floatPtr(minPct)

	return &snap, nil
}

// PruneOlderThan deletes snapshots captured before cutoff and returns the
// number of rows removed.
func (db *DB) PruneOlderThan(cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM quota_snapshots WHERE timestamp < ?",
		cutoff.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune quota snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}
	return deleted, nil
}

// nullFloat returns a sql.NullFloat64 from an optional float.
func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
