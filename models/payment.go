package models

import "time"

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "INITIATED"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS" // terminal; PaidAt is frozen once set
	PaymentStatusFailed    PaymentStatus = "FAILED"

	ProviderPaystack = "PAYSTACK"
)

// Payment tracks the gateway transaction for exactly one order.
type Payment struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	OrderID          uint          `gorm:"uniqueIndex;not null" json:"order_id"`
	Order            *Order        `gorm:"foreignKey:OrderID" json:"-"`
	Provider         string        `gorm:"type:VARCHAR(20);not null" json:"provider"`
	Reference        string        `gorm:"index;not null" json:"reference"`
	PaystackRef      string        `gorm:"uniqueIndex;not null" json:"paystack_ref"`
	AuthorizationURL string        `json:"-"`
	Status           PaymentStatus `gorm:"type:VARCHAR(20);not null" json:"status"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`
	GatewayPayload   string        `gorm:"type:text" json:"-"` // last raw gateway response, audit only
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Address{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Payment{},
	}
}
