// cmd/seed/main.go
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/cmass/marketshare-backend/internal/config"
	"github.com/cmass/marketshare-backend/internal/storage"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS report_snapshots (
        id          BIGSERIAL PRIMARY KEY,
        report_year INT NOT NULL,
        created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS market_share_rows (
        id           BIGSERIAL PRIMARY KEY,
        snapshot_id  BIGINT NOT NULL REFERENCES report_snapshots(id) ON DELETE CASCADE,
        subject      TEXT NOT NULL DEFAULT '',
        distributor  TEXT NOT NULL DEFAULT '',
        region       TEXT NOT NULL DEFAULT '',
        level        INT NOT NULL DEFAULT 0,
        target_grade TEXT NOT NULL DEFAULT '',
        market_size  INT NOT NULL,
        quantity     INT NOT NULL,
        amount       BIGINT NOT NULL,
        schools      INT NOT NULL,
        share_pct    DOUBLE PRECISION NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS achievement_rows (
        id              BIGSERIAL PRIMARY KEY,
        snapshot_id     BIGINT NOT NULL REFERENCES report_snapshots(id) ON DELETE CASCADE,
        distributor     TEXT NOT NULL,
        grade_letter    TEXT NOT NULL DEFAULT '',
        target_1        INT NOT NULL,
        actual_1        INT NOT NULL,
        target_2        INT NOT NULL,
        actual_2        INT NOT NULL,
        combined_target INT NOT NULL,
        actual          INT NOT NULL,
        achievement_pct DOUBLE PRECISION NOT NULL,
        gap             INT NOT NULL,
        bucket          TEXT NOT NULL,
        schools         INT NOT NULL,
        amount          BIGINT NOT NULL,
        market_size     INT NOT NULL,
        share_pct       DOUBLE PRECISION NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS unmapped_distributors (
        id          BIGSERIAL PRIMARY KEY,
        snapshot_id BIGINT NOT NULL REFERENCES report_snapshots(id) ON DELETE CASCADE,
        raw_code    TEXT NOT NULL DEFAULT '',
        raw_name    TEXT NOT NULL DEFAULT '',
        quantity    INT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_share_rows_snapshot ON market_share_rows(snapshot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_achievement_rows_snapshot ON achievement_rows(snapshot_id)`,
}

func runSchema(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(c.Context, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	log.Println("schema applied")
	return nil
}

// runDownload pulls the publisher's CSV drops from object storage into the
// local data directory the loader reads from.
func runDownload(c *cli.Context) error {
	cfg := config.Load()

	client, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	prefix := c.String("prefix")
	destDir := c.String("data-dir")
	if destDir == "" {
		destDir = cfg.Data.Dir
	}

	objects, err := client.ListObjects(c.Context, prefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		log.Printf("no objects found under prefix %q", prefix)
		return nil
	}

	for _, obj := range objects {
		if !strings.HasSuffix(strings.ToLower(obj.Key), ".csv") {
			continue
		}
		dest := filepath.Join(destDir, filepath.Base(obj.Key))
		log.Printf("downloading %s (%d bytes) -> %s", obj.Key, obj.Size, dest)
		if err := client.DownloadObject(c.Context, obj.Key, dest); err != nil {
			return fmt.Errorf("failed to download %s: %w", obj.Key, err)
		}
	}
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Prepare the database schema and pull source data",
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Create the snapshot tables",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: runSchema,
			},
			{
				Name:  "download",
				Usage: "Download the source CSV drops from object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "prefix",
						Usage:   "Object key prefix to download",
						Value:   "drops/",
						EnvVars: []string{"STORAGE_PREFIX"},
					},
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Destination directory (defaults to DATA_DIR)",
						EnvVars: []string{"SEED_DATA_DIR"},
					},
				},
				Action: runDownload,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
