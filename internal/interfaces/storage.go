package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/auspex/internal/models"
)

// ErrSignalNotFound is returned when a signal ID has no stored row.
var ErrSignalNotFound = errors.New("signal not found")

// ErrWeightNotFound is returned when no weight row exists for a
// (type, domain) pairing.
var ErrWeightNotFound = errors.New("signal weight not found")

// SignalStorage persists the signal history. The history is the feedback
// loop's training set, so dismissed and expired signals are retained here
// even after the in-memory store sweeps them.
type SignalStorage interface {
	// SaveSignal upserts a single signal by ID.
	SaveSignal(ctx context.Context, signal *models.Signal) error

	// SaveSignals upserts a batch with per-row error isolation and
	// returns the number of rows persisted.
	SaveSignals(ctx context.Context, signals []models.Signal) (int, error)

	// GetSignal returns a signal by ID, or ErrSignalNotFound.
	GetSignal(ctx context.Context, id string) (*models.Signal, error)

	// GetAllSignals returns the full signal history.
	GetAllSignals(ctx context.Context) ([]models.Signal, error)

	// GetActiveSignals returns signals that are neither dismissed nor
	// expired relative to now. Used to warm the store on cold start.
	GetActiveSignals(ctx context.Context, now time.Time) ([]models.Signal, error)

	// DeleteSignal removes a signal by ID, or ErrSignalNotFound.
	DeleteSignal(ctx context.Context, id string) error

	// CountSignals returns the size of the signal history.
	CountSignals(ctx context.Context) (int, error)
}

// WeightStorage persists learned signal weights keyed by (type, domain).
type WeightStorage interface {
	// UpsertWeight inserts or replaces a weight row by composite key,
	// preserving CreatedAt on update.
	UpsertWeight(ctx context.Context, weight *models.SignalWeight) error

	// GetWeight returns the weight row for a pairing, or ErrWeightNotFound.
	GetWeight(ctx context.Context, t models.SignalType, d models.Domain) (*models.SignalWeight, error)

	// GetAllWeights returns every persisted weight row.
	GetAllWeights(ctx context.Context) ([]models.SignalWeight, error)
}

// StorageManager aggregates the storage interfaces behind one lifecycle.
type StorageManager interface {
	SignalStorage() SignalStorage
	WeightStorage() WeightStorage
	Close() error
}
