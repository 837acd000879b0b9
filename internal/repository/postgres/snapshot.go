// internal/repository/postgres/snapshot.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cmass/marketshare-backend/internal/domain"
)

// SnapshotRepository persists one batch run's report tables so historical
// runs can be compared after the source CSVs have been replaced.
type SnapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveSnapshot writes all report tables for one run in a single transaction
// and returns the snapshot id.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, reportYear int, shares []domain.MarketShareRow, achievements []domain.AchievementRow, unmapped []domain.UnmappedDistributor) (int64, error) {
	var snapshotID int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO report_snapshots (report_year, created_at) VALUES ($1, $2) RETURNING id`,
			reportYear, time.Now().UTC(),
		).Scan(&snapshotID)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}

		shareStmt, err := tx.PrepareContext(ctx, `
            INSERT INTO market_share_rows (
                snapshot_id, subject, distributor, region, level, target_grade,
                market_size, quantity, amount, schools, share_pct
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
		if err != nil {
			return fmt.Errorf("failed to prepare share insert: %w", err)
		}
		defer shareStmt.Close()

		for _, row := range shares {
			if _, err := shareStmt.ExecContext(ctx,
				snapshotID, row.Subject, row.Distributor, row.Region, int(row.Level),
				row.TargetGrade, row.MarketSize, row.Quantity, row.Amount, row.Schools, row.SharePct,
			); err != nil {
				return fmt.Errorf("failed to insert share row: %w", err)
			}
		}

		achStmt, err := tx.PrepareContext(ctx, `
            INSERT INTO achievement_rows (
                snapshot_id, distributor, grade_letter,
                target_1, actual_1, target_2, actual_2,
                combined_target, actual, achievement_pct, gap, bucket,
                schools, amount, market_size, share_pct
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`)
		if err != nil {
			return fmt.Errorf("failed to prepare achievement insert: %w", err)
		}
		defer achStmt.Close()

		for _, row := range achievements {
			if _, err := achStmt.ExecContext(ctx,
				snapshotID, row.Distributor, row.GradeLetter,
				row.Target1, row.Actual1, row.Target2, row.Actual2,
				row.CombinedTarget, row.Actual, row.AchievementPct, row.Gap, row.Bucket,
				row.Schools, row.Amount, row.MarketSize, row.SharePct,
			); err != nil {
				return fmt.Errorf("failed to insert achievement row: %w", err)
			}
		}

		unmappedStmt, err := tx.PrepareContext(ctx, `
            INSERT INTO unmapped_distributors (snapshot_id, raw_code, raw_name, quantity)
            VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return fmt.Errorf("failed to prepare unmapped insert: %w", err)
		}
		defer unmappedStmt.Close()

		for _, row := range unmapped {
			if _, err := unmappedStmt.ExecContext(ctx,
				snapshotID, row.RawCode, row.RawName, row.Quantity,
			); err != nil {
				return fmt.Errorf("failed to insert unmapped row: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	return snapshotID, nil
}

// LatestSnapshotID returns the most recent snapshot id for a report year,
// sql.ErrNoRows when none exists.
func (r *SnapshotRepository) LatestSnapshotID(ctx context.Context, reportYear int) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id,
		`SELECT id FROM report_snapshots WHERE report_year = $1 ORDER BY created_at DESC LIMIT 1`,
		reportYear,
	)
	return id, err
}

// MarketShares loads one snapshot's share table.
func (r *SnapshotRepository) MarketShares(ctx context.Context, snapshotID int64) ([]domain.MarketShareRow, error) {
	rows := make([]domain.MarketShareRow, 0)
	err := r.db.SelectContext(ctx, &rows, `
        SELECT subject, distributor, region, level, target_grade,
               market_size, quantity, amount, schools, share_pct
        FROM market_share_rows
        WHERE snapshot_id = $1
        ORDER BY quantity DESC, subject, distributor, region`,
		snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load share rows: %w", err)
	}
	return rows, nil
}

// Achievements loads one snapshot's achievement table.
func (r *SnapshotRepository) Achievements(ctx context.Context, snapshotID int64) ([]domain.AchievementRow, error) {
	rows := make([]domain.AchievementRow, 0)
	err := r.db.SelectContext(ctx, &rows, `
        SELECT distributor, grade_letter,
               target_1, actual_1, target_2, actual_2,
               combined_target, actual, achievement_pct, gap, bucket,
               schools, amount, market_size, share_pct
        FROM achievement_rows
        WHERE snapshot_id = $1
        ORDER BY achievement_pct DESC, distributor`,
		snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement rows: %w", err)
	}
	return rows, nil
}
