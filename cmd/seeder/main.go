package main

import (
	"context"
	"flag"
	"log"

	"github.com/alexivanou/cityinfo-api/internal/config"
	"github.com/alexivanou/cityinfo-api/internal/database"
	"github.com/alexivanou/cityinfo-api/internal/repository"
	"github.com/alexivanou/cityinfo-api/internal/seeder"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "Seed file to import (defaults to SEEDER_DATA_FILE)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if *file != "" {
		cfg.Seeder.DataFile = *file
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	// Make sure the schema exists before inserting
	if err := database.MigrateUp(db, cfg.DB, "migrations"); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Starting data import...", zap.String("file", cfg.Seeder.DataFile))

	cityRepo := repository.NewCityRepository(db, cfg.DB.Type)
	summary, err := seeder.Seed(ctx, seeder.NewParser(cfg.Seeder), cityRepo, logger)
	if err != nil {
		logger.Fatal("Failed to seed cities", zap.Error(err))
	}

	logger.Info("Data import completed successfully!",
		zap.Int("parsed", summary.Parsed),
		zap.Int64("inserted", summary.Inserted),
		zap.Int("skipped", summary.Skipped),
	)
}
