package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db      *BadgerDB
	signals interfaces.SignalStorage
	weights interfaces.WeightStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		signals: NewSignalStorage(db, logger),
		weights: NewWeightStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// SignalStorage returns the signal history storage interface.
func (m *Manager) SignalStorage() interfaces.SignalStorage {
	return m.signals
}

// WeightStorage returns the signal weight storage interface.
func (m *Manager) WeightStorage() interfaces.WeightStorage {
	return m.weights
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
