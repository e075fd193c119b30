package seeder

import (
	"context"
	"fmt"

	"github.com/alexivanou/cityinfo-api/internal/repository"
	"go.uber.org/zap"
)

// Summary reports the outcome of a seeding run
type Summary struct {
	Parsed   int
	Inserted int64
	Skipped  int
}

// Seed parses the seed file and bulk inserts it batch by batch. Cities that
// already exist are left untouched.
func Seed(ctx context.Context, parser *Parser, repo repository.CityRepository, logger *zap.Logger) (*Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	result, err := parser.ParseCities()
	if err != nil {
		return nil, err
	}
	if result.Skipped > 0 {
		logger.Warn("Skipped malformed seed lines", zap.Int("count", result.Skipped))
	}

	summary := &Summary{Parsed: len(result.Cities), Skipped: result.Skipped}
	for i, batch := range parser.Batches(result.Cities) {
		inserted, err := repo.BulkInsert(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to insert batch %d: %w", i+1, err)
		}
		summary.Inserted += inserted
		logger.Debug("Inserted seed batch", zap.Int("batch", i+1), zap.Int64("rows", inserted))
	}

	return summary, nil
}
