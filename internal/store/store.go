package store

import (
	"context"

	"github.com/ashendes/payplus-connector/internal/models"
)

// DefaultLimit caps listings that do not ask for a limit
const DefaultLimit = 50

// StatusUpdate is one status report for a transaction
type StatusUpdate struct {
	Status     models.TransactionStatus
	SessionID  string
	RawPayload string
}

// ChangeFunc runs after a status change is written and before it commits.
// Returning an error rolls the change back.
type ChangeFunc func(ctx context.Context, txn *models.Transaction) error

// Filter narrows transaction listings
type Filter struct {
	Status models.TransactionStatus
	Limit  int
	Offset int
}

// TransactionStore is the only writer of transactions
type TransactionStore interface {
	// Create inserts a pending transaction. A reused order reference is a
	// conflict error.
	Create(ctx context.Context, txn *models.Transaction) error

	// FindByOrderReference returns nil and a not found error when missing.
	FindByOrderReference(ctx context.Context, orderReference string) (*models.Transaction, error)

	UpdateSessionID(ctx context.Context, orderReference, sessionID string) error

	// ApplyStatusUpdate moves a pending transaction to update.Status as one
	// compare-and-set and reports whether the status changed. Terminal
	// transactions are left untouched. A pending report on a pending
	// transaction refreshes the payload and session id but is not a change.
	// onChange, when set, runs only for a change and inside the same write.
	ApplyStatusUpdate(ctx context.Context, orderReference string, update StatusUpdate, onChange ChangeFunc) (bool, error)

	// List returns transactions newest first
	List(ctx context.Context, filter Filter) ([]models.Transaction, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

func normalize(f Filter) Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

var (
	_ TransactionStore = (*GormStore)(nil)
	_ TransactionStore = (*MemoryStore)(nil)
)
