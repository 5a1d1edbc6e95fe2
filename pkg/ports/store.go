package ports

import (
	"context"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// FlowStore defines how flow records are persisted.
// Stores keep records as given; version checks belong to the flows Manager.
type FlowStore interface {
	// Save creates or replaces the record with rec.ID.
	Save(ctx context.Context, rec *domain.FlowRecord) error

	// Load retrieves a record.
	// Returns domain.ErrFlowNotFound if the flow does not exist.
	Load(ctx context.Context, id string) (*domain.FlowRecord, error)

	// Delete removes a record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored flows in ascending order.
	List(ctx context.Context) ([]string, error)
}
