// cmd/pipeline/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/kuvelet/chassisbench/internal/cache"
	"github.com/kuvelet/chassisbench/internal/config"
	"github.com/kuvelet/chassisbench/internal/pipeline"
	"github.com/kuvelet/chassisbench/internal/repository"
	"github.com/kuvelet/chassisbench/internal/repository/postgres"
	"github.com/kuvelet/chassisbench/internal/storage"
	"github.com/kuvelet/chassisbench/pkg/logger"
)

func newDBURLFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: required,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("could not load .env file")
	}

	app := &cli.App{
		Name:  "pipeline",
		Usage: "Run the demand benchmark pipeline against the current input snapshot",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Flatten the catalog, resolve conflicts, join demand, aggregate, and publish",
				Flags: []cli.Flag{
					newDBURLFlag(false),
					&cli.StringFlag{
						Name:    "input-dir",
						Usage:   "Directory containing demand files (CSV/XLSX)",
						EnvVars: []string{"PIPELINE_INPUT_DIR"},
					},
					&cli.StringFlag{
						Name:    "catalog",
						Usage:   "Path to the wide equivalence catalog (CSV/XLSX)",
						EnvVars: []string{"PIPELINE_CATALOG_PATH"},
					},
					&cli.BoolFlag{
						Name:  "csv-only",
						Usage: "Write intermediate CSVs only, skip the database publish",
					},
				},
				Action: runPipeline,
			},
			{
				Name:  "fetch",
				Usage: "Download input snapshot files from the archive bucket",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Object key prefix to fetch",
						Value: "",
					},
					&cli.StringFlag{
						Name:  "dest",
						Usage: "Destination directory (defaults to the configured input dir)",
					},
				},
				Action: fetchSnapshots,
			},
			{
				Name:  "migrate",
				Usage: "Apply pending database migrations",
				Flags: []cli.Flag{
					newDBURLFlag(true),
					&cli.StringFlag{
						Name:  "migrations-dir",
						Usage: "Directory containing migration files",
						Value: "./migrations",
					},
				},
				Action: runMigrations,
			},
			{
				Name:  "runs",
				Usage: "Show recent pipeline runs",
				Flags: []cli.Flag{
					newDBURLFlag(true),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of runs to show",
						Value: 10,
					},
				},
				Action: showRuns,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("pipeline command failed")
	}
}

func runPipeline(c *cli.Context) error {
	cfg := config.Load()
	pipeCfg := cfg.Pipeline
	if v := c.String("input-dir"); v != "" {
		pipeCfg.InputDir = v
	}
	if v := c.String("catalog"); v != "" {
		pipeCfg.CatalogPath = v
	}

	var publisher pipeline.Publisher
	var tracker pipeline.RunTracker

	if !c.Bool("csv-only") {
		dbURL := c.String("db-url")
		if dbURL == "" {
			return fmt.Errorf("db-url is required unless --csv-only is set")
		}
		db, err := postgres.Open("pgx", dbURL)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := postgres.NewPublishRepository(db)
		publisher = repo
		tracker = repo
	}

	runner := pipeline.NewRunner(pipeCfg, publisher, tracker)
	res, err := runner.Run(c.Context)
	if err != nil {
		return err
	}

	// The dashboard summary is stale after a publish.
	if publisher != nil && cfg.Cache.Enabled {
		if summaryCache, err := cache.NewSummaryCache(cfg.Cache); err == nil {
			if err := summaryCache.Invalidate(c.Context); err != nil {
				logger.Log.Warn().Err(err).Msg("failed to invalidate summary cache")
			}
		} else {
			logger.Log.Warn().Err(err).Msg("cache unavailable, skipping invalidation")
		}
	}

	logger.Log.Info().
		Int("mapping_keys", len(res.Mapping)).
		Int("conflicts", len(res.Conflicts)).
		Int("demand_records", len(res.Records)).
		Int("aggregates", len(res.Aggregates)).
		Msg("pipeline finished")
	return nil
}

func fetchSnapshots(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.Archive.Enabled {
		return fmt.Errorf("archive is not enabled (set ARCHIVE_ENABLED=true)")
	}

	client, err := storage.NewMinioClient(cfg.Archive)
	if err != nil {
		return err
	}

	dest := c.String("dest")
	if dest == "" {
		dest = cfg.Pipeline.InputDir
	}

	objects, err := client.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}

	fetched := 0
	for _, obj := range objects {
		ext := strings.ToLower(filepath.Ext(obj.Key))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		destPath := filepath.Join(dest, filepath.Base(obj.Key))
		if err := client.DownloadObject(c.Context, obj.Key, destPath); err != nil {
			return err
		}
		logger.Log.Info().Str("key", obj.Key).Str("dest", destPath).Msg("fetched snapshot file")
		fetched++
	}

	logger.Log.Info().Int("files", fetched).Msg("snapshot fetch completed")
	return nil
}

func runMigrations(c *cli.Context) error {
	db, err := postgres.Open("pgx", c.String("db-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	return postgres.RunMigrations(db.DB.DB, c.String("migrations-dir"))
}

func showRuns(c *cli.Context) error {
	db, err := postgres.Open("pgx", c.String("db-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewBenchmarkRepository(db.DB)
	runs, err := repo.GetRuns(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	for _, run := range runs {
		completed := "-"
		if run.CompletedAt != nil {
			completed = run.CompletedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("#%d\t%s\tstarted=%s\tcompleted=%s\trows=%d\tmatched=%d\trejected=%d\tconflicts=%d\n",
			run.ID, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"), completed,
			run.DemandRows, run.MatchedRows, run.RejectedRows, run.ConflictKeys)
		if run.ErrorMessage != "" {
			fmt.Printf("\terror: %s\n", run.ErrorMessage)
		}
	}
	return nil
}
