package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/models"
)

// MemoryStore keeps transactions in memory. Status updates are serialized
// per order reference.
type MemoryStore struct {
	mu    sync.RWMutex
	txns  map[string]*models.Transaction
	locks map[string]*sync.Mutex
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txns:  make(map[string]*models.Transaction),
		locks: make(map[string]*sync.Mutex),
	}
}

// Create inserts a copy of txn
func (s *MemoryStore) Create(_ context.Context, txn *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.txns[txn.OrderReference]; exists {
		return apperrors.Conflict(txn.OrderReference)
	}
	now := time.Now().UTC()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	if txn.UpdatedAt.IsZero() {
		txn.UpdatedAt = now
	}
	stored := *txn
	s.txns[txn.OrderReference] = &stored
	s.locks[txn.OrderReference] = &sync.Mutex{}
	return nil
}

// FindByOrderReference returns a copy of the stored transaction
func (s *MemoryStore) FindByOrderReference(_ context.Context, orderReference string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.txns[orderReference]
	if !ok {
		return nil, apperrors.NotFound("transaction " + orderReference)
	}
	out := *txn
	return &out, nil
}

// UpdateSessionID stores the gateway session id
func (s *MemoryStore) UpdateSessionID(_ context.Context, orderReference, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[orderReference]
	if !ok {
		return apperrors.NotFound("transaction " + orderReference)
	}
	txn.SessionID = &sessionID
	txn.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyStatusUpdate follows the same transition rule as GormStore
func (s *MemoryStore) ApplyStatusUpdate(ctx context.Context, orderReference string, update StatusUpdate, onChange ChangeFunc) (bool, error) {
	if !update.Status.Valid() {
		return false, fmt.Errorf("invalid transaction status %q", update.Status)
	}

	s.mu.RLock()
	lock, ok := s.locks[orderReference]
	s.mu.RUnlock()
	if !ok {
		return false, apperrors.NotFound("transaction " + orderReference)
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	next := *s.txns[orderReference]
	s.mu.RUnlock()

	if next.Status.IsTerminal() {
		return false, nil
	}

	next.ResponsePayload = update.RawPayload
	next.UpdatedAt = time.Now().UTC()
	if update.SessionID != "" {
		sessionID := update.SessionID
		next.SessionID = &sessionID
	}

	if update.Status == models.TransactionStatusPending {
		s.save(&next)
		return false, nil
	}

	next.Status = update.Status
	if onChange != nil {
		// the callback sees the new status; nothing is saved if it fails
		view := next
		if err := onChange(ctx, &view); err != nil {
			return false, err
		}
	}
	s.save(&next)
	return true, nil
}

func (s *MemoryStore) save(txn *models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns[txn.OrderReference] = txn
}

// List returns transactions newest first
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]models.Transaction, error) {
	filter = normalize(filter)
	matched := s.matching(filter)

	if filter.Offset >= len(matched) {
		return []models.Transaction{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

// Count returns the number of transactions matching filter.Status
func (s *MemoryStore) Count(_ context.Context, filter Filter) (int64, error) {
	return int64(len(s.matching(filter))), nil
}

func (s *MemoryStore) matching(filter Filter) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, 0, len(s.txns))
	for _, txn := range s.txns {
		if filter.Status != "" && txn.Status != filter.Status {
			continue
		}
		out = append(out, *txn)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
