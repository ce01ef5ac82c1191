package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the local payment status of a transaction
type TransactionStatus string

// TransactionStatus constants
const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusExpired   TransactionStatus = "expired"
)

// IsTerminal reports whether no further transition is accepted from s.
// Pending is the only non-terminal status.
func (s TransactionStatus) IsTerminal() bool {
	return s != TransactionStatusPending
}

// Valid reports whether s is one of the known statuses
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed,
		TransactionStatusCancelled, TransactionStatusExpired:
		return true
	}
	return false
}

// Transaction represents one payment attempt for an order reference
type Transaction struct {
	ID              uuid.UUID         `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	OrderID         uint              `gorm:"column:id_order;index" json:"order_id,omitempty"`
	OrderReference  string            `gorm:"column:order_reference;type:varchar(64);uniqueIndex;not null" json:"order_reference"`
	MerchantID      string            `gorm:"column:merchant_id;type:varchar(64);not null" json:"merchant_id"`
	SessionID       *string           `gorm:"column:session_id;type:varchar(128)" json:"session_id,omitempty"`
	Amount          decimal.Decimal   `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Currency        string            `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	Status          TransactionStatus `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	ResponsePayload string            `gorm:"column:response_data;type:text" json:"response_data,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

// TableName keeps the table name of the original connector schema
func (Transaction) TableName() string {
	return "payplus_transactions"
}

// NewTransaction creates a pending transaction for a checkout attempt
func NewTransaction(orderReference, merchantID string, amount decimal.Decimal, currency string) *Transaction {
	return &Transaction{
		ID:             uuid.New(),
		OrderReference: orderReference,
		MerchantID:     merchantID,
		Amount:         amount,
		Currency:       currency,
		Status:         TransactionStatusPending,
	}
}
