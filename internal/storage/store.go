package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"synaptical/internal/model"
)

var (
	ErrNotInitialized = errors.New("store is not initialized")
	ErrMissingID      = errors.New("record id is required")
)

// Store defines transaction-like persistence operations for serialized
// networks and the training runs made against them.
type Store interface {
	Init(ctx context.Context) error
	SaveNetwork(ctx context.Context, network model.Network) error
	GetNetwork(ctx context.Context, id string) (model.Network, bool, error)
	// ListNetworks returns stored network ids in ascending order.
	ListNetworks(ctx context.Context) ([]string, error)
	// DeleteNetwork removes a network and its training runs. Deleting an
	// unknown id is not an error.
	DeleteNetwork(ctx context.Context, id string) error
	SaveRun(ctx context.Context, run model.TrainingRun) error
	GetRun(ctx context.Context, id string) (model.TrainingRun, bool, error)
	// ListRuns returns the runs of one network, oldest first.
	ListRuns(ctx context.Context, networkID string) ([]model.TrainingRun, error)
}

// NewID returns a fresh identifier for a network or run record.
func NewID() string {
	return uuid.NewString()
}
