package models

import "time"

// Order is the store-side order a transaction pays for
type Order struct {
	ID           uint      `gorm:"column:id_order;primaryKey" json:"id"`
	Reference    string    `gorm:"column:reference;type:varchar(64);index" json:"reference"`
	CurrentState int       `gorm:"column:current_state;not null" json:"current_state"`
	CreatedAt    time.Time `gorm:"column:date_add;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:date_upd;autoUpdateTime" json:"updated_at"`
}

// TableName maps to the store's orders table
func (Order) TableName() string {
	return "orders"
}

// OrderHistory records every state an order went through
type OrderHistory struct {
	ID        uint      `gorm:"column:id_order_history;primaryKey" json:"id"`
	OrderID   uint      `gorm:"column:id_order;index;not null" json:"order_id"`
	StateID   int       `gorm:"column:id_order_state;not null" json:"state_id"`
	CreatedAt time.Time `gorm:"column:date_add;autoCreateTime" json:"created_at"`
}

// TableName maps to the store's order history table
func (OrderHistory) TableName() string {
	return "order_history"
}

// OrderMessage is an audit note attached to an order
type OrderMessage struct {
	ID        uint      `gorm:"column:id_message;primaryKey" json:"id"`
	OrderID   uint      `gorm:"column:id_order;index;not null" json:"order_id"`
	Message   string    `gorm:"column:message;type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"column:date_add;autoCreateTime" json:"created_at"`
}

// TableName maps to the store's message table
func (OrderMessage) TableName() string {
	return "message"
}

// OrderStates holds the store's order state ids the connector moves orders to
type OrderStates struct {
	PaymentAccepted int `mapstructure:"payment_accepted" json:"payment_accepted"`
	AwaitingPayment int `mapstructure:"awaiting_payment" json:"awaiting_payment"`
	PaymentError    int `mapstructure:"payment_error" json:"payment_error"`
	Canceled        int `mapstructure:"canceled" json:"canceled"`
}

// ForStatus returns the order state implied by a local transaction status
func (s OrderStates) ForStatus(status TransactionStatus) int {
	switch status {
	case TransactionStatusCompleted:
		return s.PaymentAccepted
	case TransactionStatusPending:
		return s.AwaitingPayment
	case TransactionStatusCancelled:
		return s.Canceled
	default:
		return s.PaymentError
	}
}
