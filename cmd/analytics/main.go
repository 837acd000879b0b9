// cmd/analytics/main.go
package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"

	"github.com/cmass/marketshare-backend/internal/config"
	"github.com/cmass/marketshare-backend/internal/domain"
	"github.com/cmass/marketshare-backend/internal/ingest"
	"github.com/cmass/marketshare-backend/internal/repository/postgres"
	"github.com/cmass/marketshare-backend/internal/service"
	"github.com/cmass/marketshare-backend/pkg/logger"
)

// analytics is the batch runner: load the CSV exports, compute every report
// table, write the result CSVs, and optionally persist a snapshot for
// historical comparison.
func main() {
	_ = godotenv.Load()

	reportYear := flag.Int("year", time.Now().Year(), "Report school year")
	outputDir := flag.String("output-dir", "", "Output directory (defaults to DATA_OUTPUT_DIR)")
	persist := flag.Bool("persist", false, "Persist the snapshot to PostgreSQL")
	flag.Parse()

	cfg := config.Load()

	out := *outputDir
	if out == "" {
		out = cfg.Data.OutputDir
	}

	ctx := context.Background()
	start := time.Now()

	loader := ingest.NewLoader(cfg.Data.Resolved())
	ds, err := loader.Load(ctx)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to load dataset")
	}

	svc := service.NewReportService(ds, nil, *reportYear)
	bundle, err := svc.BuildAll(ctx)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to build reports")
	}

	if err := service.ExportBundleCSV(out, bundle); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to export reports")
	}
	logger.Log.Info().
		Str("output_dir", out).
		Int("report_year", *reportYear).
		Int("unmapped", len(bundle.Unmapped)).
		Dur("elapsed", time.Since(start)).
		Msg("reports exported")

	if *persist {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to connect to database")
		}
		repo := postgres.NewSnapshotRepository(db)

		// All grouped share tables go into one snapshot table; the grouping
		// is recoverable from which key columns are set.
		allShares := make([]domain.MarketShareRow, 0,
			len(bundle.SharesBySubject)+len(bundle.SharesByDistributor)+len(bundle.SharesByRegion)+len(bundle.ShareMatrix))
		allShares = append(allShares, bundle.SharesBySubject...)
		allShares = append(allShares, bundle.SharesByDistributor...)
		allShares = append(allShares, bundle.SharesByRegion...)
		allShares = append(allShares, bundle.ShareMatrix...)

		id, err := repo.SaveSnapshot(ctx, *reportYear, allShares, bundle.Achievement, bundle.Unmapped)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to persist snapshot")
		}
		logger.Log.Info().Int64("snapshot_id", id).Msg("snapshot persisted")
	}
}
