package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// WeightStorage implements the WeightStorage interface for Badger.
// Rows are keyed by the (signal type, domain) composite key and each
// upsert is its own transaction.
type WeightStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewWeightStorage creates a new WeightStorage instance.
func NewWeightStorage(db *BadgerDB, logger arbor.ILogger) interfaces.WeightStorage {
	return &WeightStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertWeight inserts or replaces a weight row by composite key,
// preserving CreatedAt across updates.
func (s *WeightStorage) UpsertWeight(ctx context.Context, weight *models.SignalWeight) error {
	if weight.Key == "" {
		weight.Key = models.WeightKey(weight.SignalType, weight.Domain)
	}

	var existing models.SignalWeight
	err := s.db.Store().Get(weight.Key, &existing)
	switch {
	case err == nil:
		weight.CreatedAt = existing.CreatedAt
	case err == badgerhold.ErrNotFound:
		weight.CreatedAt = weight.LastUpdated
	default:
		return fmt.Errorf("failed to check weight existence: %w", err)
	}

	if err := s.db.Store().Upsert(weight.Key, weight); err != nil {
		return fmt.Errorf("failed to upsert weight %s: %w", weight.Key, err)
	}
	return nil
}

// GetWeight returns the weight row for a (type, domain) pairing.
func (s *WeightStorage) GetWeight(ctx context.Context, t models.SignalType, d models.Domain) (*models.SignalWeight, error) {
	var weight models.SignalWeight
	err := s.db.Store().Get(models.WeightKey(t, d), &weight)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrWeightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weight: %w", err)
	}
	return &weight, nil
}

// GetAllWeights returns every persisted weight row.
func (s *WeightStorage) GetAllWeights(ctx context.Context) ([]models.SignalWeight, error) {
	var weights []models.SignalWeight
	err := s.db.Store().Find(&weights, badgerhold.Where("Key").Ne("").SortBy("LastUpdated").Reverse())
	if err != nil {
		return nil, fmt.Errorf("failed to list weights: %w", err)
	}
	return weights, nil
}
