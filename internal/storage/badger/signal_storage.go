package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SignalStorage implements the SignalStorage interface for Badger.
// The table is the full signal history, including dismissed and expired
// rows, since it doubles as the feedback loop's training set.
type SignalStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSignalStorage creates a new SignalStorage instance.
func NewSignalStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SignalStorage {
	return &SignalStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSignal upserts a single signal by ID.
func (s *SignalStorage) SaveSignal(ctx context.Context, signal *models.Signal) error {
	if signal.ID == "" {
		return fmt.Errorf("signal has no ID")
	}
	if err := s.db.Store().Upsert(signal.ID, signal); err != nil {
		return fmt.Errorf("failed to save signal %s: %w", signal.ID, err)
	}
	return nil
}

// SaveSignals upserts a batch with per-row isolation: a row that fails is
// logged and skipped, and the rest of the batch still persists. Returns
// the number of rows saved and an error only if every row failed.
func (s *SignalStorage) SaveSignals(ctx context.Context, signals []models.Signal) (int, error) {
	saved := 0
	for i := range signals {
		if err := s.SaveSignal(ctx, &signals[i]); err != nil {
			s.logger.Warn().
				Str("signal_id", signals[i].ID).
				Err(err).
				Msg("Failed to persist signal, continuing with next row")
			continue
		}
		saved++
	}
	if saved == 0 && len(signals) > 0 {
		return 0, fmt.Errorf("failed to persist any of %d signals", len(signals))
	}
	return saved, nil
}

// GetSignal returns a signal by ID.
func (s *SignalStorage) GetSignal(ctx context.Context, id string) (*models.Signal, error) {
	var signal models.Signal
	err := s.db.Store().Get(id, &signal)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrSignalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signal %s: %w", id, err)
	}
	return &signal, nil
}

// GetAllSignals returns the full signal history, newest first.
func (s *SignalStorage) GetAllSignals(ctx context.Context) ([]models.Signal, error) {
	var signals []models.Signal
	err := s.db.Store().Find(&signals, badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse())
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	return signals, nil
}

// GetActiveSignals returns signals that are neither dismissed nor expired
// relative to now. Expiry is evaluated in code since it involves a nil
// check plus a time comparison.
func (s *SignalStorage) GetActiveSignals(ctx context.Context, now time.Time) ([]models.Signal, error) {
	var all []models.Signal
	err := s.db.Store().Find(&all, badgerhold.Where("IsDismissed").Eq(false))
	if err != nil {
		return nil, fmt.Errorf("failed to query active signals: %w", err)
	}

	active := make([]models.Signal, 0, len(all))
	for _, sig := range all {
		if sig.IsActive(now) {
			active = append(active, sig)
		}
	}
	return active, nil
}

// DeleteSignal removes a signal by ID.
func (s *SignalStorage) DeleteSignal(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Signal{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrSignalNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete signal %s: %w", id, err)
	}
	return nil
}

// CountSignals returns the size of the signal history.
func (s *SignalStorage) CountSignals(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Signal{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return int(count), nil
}
