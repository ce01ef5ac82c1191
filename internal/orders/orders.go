package orders

import (
	"context"

	"github.com/ashendes/payplus-connector/internal/models"
)

// Store is the connector's view of the shop's order subsystem
type Store interface {
	// FindByReference returns nil, nil when no order has the reference
	FindByReference(ctx context.Context, reference string) (*models.Order, error)

	// SetState moves the order to stateID and records it in the order history
	SetState(ctx context.Context, order *models.Order, stateID int) error

	// AppendMessage attaches an audit note to the order
	AppendMessage(ctx context.Context, order *models.Order, message string) error
}
