package orders

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/database"
	"github.com/ashendes/payplus-connector/internal/models"
)

// GormStore reads and writes the shop's order tables. Calls made with a
// context from database.WithTx join that transaction.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates an order store on db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindByReference looks an order up by its reference
func (s *GormStore) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := database.Conn(ctx, s.db).Where("reference = ?", reference).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Persistence("find order", err)
	}
	return &order, nil
}

// SetState updates the order state and appends a history row
func (s *GormStore) SetState(ctx context.Context, order *models.Order, stateID int) error {
	conn := database.Conn(ctx, s.db)
	now := time.Now().UTC()

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).
			Where("id_order = ?", order.ID).
			Updates(map[string]any{"current_state": stateID, "date_upd": now}).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderHistory{OrderID: order.ID, StateID: stateID}).Error
	})
	if err != nil {
		return apperrors.Persistence("set order state", err)
	}

	log.WithFields(log.Fields{
		"order_id":  order.ID,
		"reference": order.Reference,
		"from":      order.CurrentState,
		"to":        stateID,
	}).Info("Order state updated")

	order.CurrentState = stateID
	order.UpdatedAt = now
	return nil
}

// AppendMessage inserts an order message
func (s *GormStore) AppendMessage(ctx context.Context, order *models.Order, message string) error {
	msg := &models.OrderMessage{OrderID: order.ID, Message: message}
	if err := database.Conn(ctx, s.db).Create(msg).Error; err != nil {
		return apperrors.Persistence("append order message", err)
	}
	return nil
}
