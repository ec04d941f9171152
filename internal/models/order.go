package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderCreated  OrderStatus = "created"
	OrderCaptured OrderStatus = "captured"
	OrderFailed   OrderStatus = "failed"
)

// Order tracks a member payment against the external gateway. GatewayOrderID
// is the gateway's identifier; PaymentID is filled once the payment settles.
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	GatewayOrderID string      `gorm:"uniqueIndex;not null" json:"order_id"`
	PaymentID      string      `json:"payment_id,omitempty"`
	Receipt        string      `gorm:"size:64" json:"receipt"`
	Amount         int64       `gorm:"not null" json:"amount"` // minor units (paise)
	Currency       string      `gorm:"size:8;default:'INR'" json:"currency"`
	Status         OrderStatus `gorm:"type:varchar(20);default:'created';index" json:"status"`
	IsPaid         bool        `gorm:"default:false" json:"is_paid"`
}
