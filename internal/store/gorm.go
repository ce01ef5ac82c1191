package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/database"
	"github.com/ashendes/payplus-connector/internal/models"
)

// pgErrUniqueViolation is the PostgreSQL unique_violation code
const pgErrUniqueViolation = "23505"

// GormStore keeps transactions in the payplus_transactions table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Create inserts txn
func (s *GormStore) Create(ctx context.Context, txn *models.Transaction) error {
	if err := database.Conn(ctx, s.db).Create(txn).Error; err != nil {
		if isDuplicateKey(err) {
			return apperrors.Conflict(txn.OrderReference)
		}
		return apperrors.Persistence("create transaction", err)
	}
	return nil
}

// FindByOrderReference loads the transaction for orderReference
func (s *GormStore) FindByOrderReference(ctx context.Context, orderReference string) (*models.Transaction, error) {
	var txn models.Transaction
	err := database.Conn(ctx, s.db).Where("order_reference = ?", orderReference).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("transaction " + orderReference)
		}
		return nil, apperrors.Persistence("find transaction", err)
	}
	return &txn, nil
}

// UpdateSessionID stores the gateway session id
func (s *GormStore) UpdateSessionID(ctx context.Context, orderReference, sessionID string) error {
	result := database.Conn(ctx, s.db).Model(&models.Transaction{}).
		Where("order_reference = ?", orderReference).
		Updates(map[string]any{
			"session_id": sessionID,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return apperrors.Persistence("update session id", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("transaction " + orderReference)
	}
	return nil
}

// ApplyStatusUpdate writes the new status with a conditional UPDATE that only
// matches pending rows, so concurrent deliveries cannot both move the same
// transaction out of pending: the second one matches no row.
func (s *GormStore) ApplyStatusUpdate(ctx context.Context, orderReference string, update StatusUpdate, onChange ChangeFunc) (bool, error) {
	if !update.Status.Valid() {
		return false, fmt.Errorf("invalid transaction status %q", update.Status)
	}

	changed := false
	err := database.Conn(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		var current models.Transaction
		if err := tx.Where("order_reference = ?", orderReference).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("transaction " + orderReference)
			}
			return err
		}
		if current.Status.IsTerminal() {
			return nil
		}

		now := time.Now().UTC()
		fields := map[string]any{
			"response_data": update.RawPayload,
			"updated_at":    now,
		}
		if update.SessionID != "" {
			fields["session_id"] = update.SessionID
		}
		if update.Status != models.TransactionStatusPending {
			fields["status"] = update.Status
		}

		result := tx.Model(&models.Transaction{}).
			Where("order_reference = ? AND status = ?", orderReference, models.TransactionStatusPending).
			Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			log.WithField("order_reference", orderReference).Info("Transaction left pending concurrently, update skipped")
			return nil
		}
		if update.Status == models.TransactionStatusPending {
			return nil
		}

		current.Status = update.Status
		current.ResponsePayload = update.RawPayload
		current.UpdatedAt = now
		if update.SessionID != "" {
			sessionID := update.SessionID
			current.SessionID = &sessionID
		}
		if onChange != nil {
			if err := onChange(database.WithTx(ctx, tx), &current); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return false, err
		}
		return false, apperrors.Persistence("apply status update", err)
	}
	return changed, nil
}

// List returns transactions newest first
func (s *GormStore) List(ctx context.Context, filter Filter) ([]models.Transaction, error) {
	filter = normalize(filter)
	var txns []models.Transaction
	err := s.query(ctx, filter).
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&txns).Error
	if err != nil {
		return nil, apperrors.Persistence("list transactions", err)
	}
	return txns, nil
}

// Count returns the number of transactions matching filter.Status
func (s *GormStore) Count(ctx context.Context, filter Filter) (int64, error) {
	var count int64
	if err := s.query(ctx, filter).Count(&count).Error; err != nil {
		return 0, apperrors.Persistence("count transactions", err)
	}
	return count, nil
}

func (s *GormStore) query(ctx context.Context, filter Filter) *gorm.DB {
	q := database.Conn(ctx, s.db).Model(&models.Transaction{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return q
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
