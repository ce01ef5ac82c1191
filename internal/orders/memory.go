package orders

import (
	"context"
	"sync"
	"time"

	"github.com/ashendes/payplus-connector/internal/models"
)

// MemoryStore is an in-memory order subsystem
type MemoryStore struct {
	mu       sync.RWMutex
	orders   map[string]*models.Order
	history  map[uint][]int
	messages map[uint][]string
	nextID   uint

	// FailSetState, when set, is returned by SetState
	FailSetState error
}

// NewMemoryStore creates an empty order store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]*models.Order),
		history:  make(map[uint][]int),
		messages: make(map[uint][]string),
	}
}

// Add registers an order with the given reference and state
func (s *MemoryStore) Add(reference string, state int) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC()
	order := &models.Order{
		ID:           s.nextID,
		Reference:    reference,
		CurrentState: state,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.orders[reference] = order
	out := *order
	return &out
}

// FindByReference returns a copy of the order
func (s *MemoryStore) FindByReference(_ context.Context, reference string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[reference]
	if !ok {
		return nil, nil
	}
	out := *order
	return &out, nil
}

// SetState updates the order state
func (s *MemoryStore) SetState(_ context.Context, order *models.Order, stateID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSetState != nil {
		return s.FailSetState
	}
	stored, ok := s.orders[order.Reference]
	if !ok {
		return nil
	}
	stored.CurrentState = stateID
	stored.UpdatedAt = time.Now().UTC()
	s.history[stored.ID] = append(s.history[stored.ID], stateID)
	order.CurrentState = stateID
	return nil
}

// AppendMessage records an order message
func (s *MemoryStore) AppendMessage(_ context.Context, order *models.Order, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[order.ID] = append(s.messages[order.ID], message)
	return nil
}

// State returns the current state of the order with reference
func (s *MemoryStore) State(reference string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if order, ok := s.orders[reference]; ok {
		return order.CurrentState
	}
	return 0
}

// History returns the states the order was moved to
func (s *MemoryStore) History(reference string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[reference]
	if !ok {
		return nil
	}
	return append([]int(nil), s.history[order.ID]...)
}

// Messages returns the audit notes of the order with reference
func (s *MemoryStore) Messages(reference string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[reference]
	if !ok {
		return nil
	}
	return append([]string(nil), s.messages[order.ID]...)
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
