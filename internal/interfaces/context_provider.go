package interfaces

import (
	"context"

	"github.com/ternarybob/auspex/internal/models"
)

// ContextProvider assembles the point-in-time domain snapshot a detection
// cycle runs against. Providers own all I/O (document store reads,
// integration clients); detectors never perform I/O themselves.
//
// The anticipation worker holds at most one provider. When none is set it
// falls back to an empty snapshot plus whatever signals already exist in
// the store.
type ContextProvider interface {
	Snapshot(ctx context.Context) (*models.AnticipationContext, error)
}

// ContextProviderFunc adapts a plain function to the ContextProvider
// interface.
type ContextProviderFunc func(ctx context.Context) (*models.AnticipationContext, error)

// Snapshot implements ContextProvider.
func (f ContextProviderFunc) Snapshot(ctx context.Context) (*models.AnticipationContext, error) {
	return f(ctx)
}
