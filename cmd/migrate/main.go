package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"recruitment-portal/config"
	"recruitment-portal/internal/database"
	"recruitment-portal/internal/reconcile"
	"recruitment-portal/internal/storage"
	"recruitment-portal/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	var (
		file               = flag.String("file", "", "XLSX or CSV export to import")
		dryRun             = flag.Bool("dry-run", false, "report changes without writing")
		rankingsOnly       = flag.Bool("rankings-only", false, "treat a CSV file as ranking rows")
		allowZeroOverwrite = flag.Bool("allow-zero-overwrite", false, "let incoming zero scores replace stored zeros")
		counts             = flag.Bool("counts", false, "materialize per-vacancy application counts")
		backfill           = flag.Bool("backfill", false, "fill missing vacancy references by job title")
		rewriteURLs        = flag.String("rewrite-urls", "", "repoint stored CV references at this base URL")
		vacancyID          = flag.Uint("vacancy-id", 0, "restrict -counts to one vacancy id")
		jobTitle           = flag.String("job-title", "", "restrict -counts to one vacancy by job title")
		cvDir              = flag.String("cv-dir", "", "directory of CV files to attach to applications")
		cvMap              = flag.String("cv-map", "", "JSON file mapping CV filenames to application ids or emails")
	)
	flag.Parse()

	if *file == "" && !*counts && !*backfill && *rewriteURLs == "" && *cvDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.Load(); err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg

	if err := logger.Init(cfg); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := database.Connect(cfg, logger.Logger); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	db := database.DB

	if *file != "" {
		engine := reconcile.NewEngine(db, logger.Logger)
		engine.DryRun = *dryRun
		engine.AllowZeroOverwrite = *allowZeroOverwrite

		kind := reconcile.SheetApplicants
		if *rankingsOnly {
			kind = reconcile.SheetRankings
		}

		reports, err := engine.ImportFile(*file, kind)
		if err != nil {
			logger.Fatal("Import failed", zap.String("file", *file), zap.Error(err))
		}
		for _, report := range reports {
			fmt.Println(report)
		}
	}

	if *backfill {
		report, err := reconcile.BackfillVacancyIDs(db, logger.Logger)
		if err != nil {
			logger.Fatal("Backfill failed", zap.Error(err))
		}
		fmt.Println(report)
	}

	if *counts {
		var target *uint
		if *vacancyID != 0 {
			id := *vacancyID
			target = &id
		} else if *jobTitle != "" {
			vacancy, err := database.ResolveVacancy(db, *jobTitle)
			if err != nil {
				logger.Fatal("Vacancy lookup failed", zap.String("job_title", *jobTitle), zap.Error(err))
			}
			if vacancy == nil {
				logger.Fatal("No vacancy with that job title", zap.String("job_title", *jobTitle))
			}
			target = &vacancy.ID
		}

		updated, err := reconcile.MaterializeVacancyCounts(db, logger.Logger, target, *dryRun)
		if err != nil {
			logger.Fatal("Count materialization failed", zap.Error(err))
		}
		fmt.Printf("counts: updated=%d\n", updated)
	}

	if *rewriteURLs != "" {
		report, err := reconcile.RewriteCvURLs(db, logger.Logger, *rewriteURLs)
		if err != nil {
			logger.Fatal("URL rewrite failed", zap.Error(err))
		}
		fmt.Println(report)
	}

	if *cvDir != "" {
		mapping := map[string]string{}
		if *cvMap != "" {
			data, err := os.ReadFile(*cvMap)
			if err != nil {
				logger.Fatal("Failed to read CV mapping file", zap.String("file", *cvMap), zap.Error(err))
			}
			if err := json.Unmarshal(data, &mapping); err != nil {
				logger.Fatal("Failed to parse CV mapping file", zap.String("file", *cvMap), zap.Error(err))
			}
		}

		store, err := storage.NewFromConfig(context.Background(), cfg)
		if err != nil {
			logger.Fatal("Failed to initialize blob store", zap.Error(err))
		}
		cvs := storage.NewCVManager(db, store, logger.Logger)

		report, err := cvs.ImportDirectory(context.Background(), *cvDir, mapping, *dryRun)
		if err != nil {
			logger.Fatal("CV directory import failed", zap.Error(err))
		}
		fmt.Println(report)
		for _, name := range report.Unmatched {
			fmt.Printf("unmatched: %s\n", name)
		}
	}
}
