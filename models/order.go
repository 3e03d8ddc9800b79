package models

import "time"

type OrderStatus string
type DeliveryStatus string
type CheckoutStatus string

const (
	// Order statuses. PAID and CANCELLED are terminal.
	OrderStatusPending   OrderStatus = "PENDING"   // Created, awaiting payment
	OrderStatusPaid      OrderStatus = "PAID"      // Gateway confirmed the charge, stock and cart finalized
	OrderStatusCancelled OrderStatus = "CANCELLED" // Cancelled before payment

	// Delivery statuses, advanced one step at a time once PAID.
	DeliveryStatusProcessing DeliveryStatus = "PROCESSING"
	DeliveryStatusDispatched DeliveryStatus = "DISPATCHED"
	DeliveryStatusDelivered  DeliveryStatus = "DELIVERED"

	// Checkout statuses track the gateway session, not the order itself.
	CheckoutStatusInitiated CheckoutStatus = "INITIATED"
	CheckoutStatusSuccess   CheckoutStatus = "SUCCESS"
	CheckoutStatusFailed    CheckoutStatus = "FAILED"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// Previous returns the delivery status that must precede s, and false for the initial status.
func (s DeliveryStatus) Previous() (DeliveryStatus, bool) {
	switch s {
	case DeliveryStatusDispatched:
		return DeliveryStatusProcessing, true
	case DeliveryStatusDelivered:
		return DeliveryStatusDispatched, true
	default:
		return "", false
	}
}

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusProcessing, DeliveryStatusDispatched, DeliveryStatusDelivered:
		return true
	}
	return false
}

type Order struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Reference      string         `gorm:"uniqueIndex;not null" json:"reference"`
	CheckoutKey    string         `gorm:"uniqueIndex;not null" json:"-"`
	UserID         string         `gorm:"index;not null" json:"user_id"`
	Items          []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payment        *Payment       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payment,omitempty"`
	TotalAmount    int64          `gorm:"not null" json:"total_amount"` // kobo
	Status         OrderStatus    `gorm:"type:VARCHAR(20);not null;index" json:"status"`
	DeliveryStatus DeliveryStatus `gorm:"type:VARCHAR(20);not null;index" json:"delivery_status"`
	CheckoutStatus CheckoutStatus `gorm:"type:VARCHAR(20);not null" json:"checkout_status"`

	// Shipping snapshot, copied from the saved address at checkout.
	ShipFullName string `json:"ship_full_name"`
	ShipPhone    string `json:"ship_phone"`
	ShipLine1    string `json:"ship_line1"`
	ShipLine2    string `json:"ship_line2"`
	ShipLandmark string `json:"ship_landmark"`
	ShipCity     string `json:"ship_city"`
	ShipState    string `json:"ship_state"`

	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// OrderItem is a line captured at order creation; it is never re-read from the catalog.
type OrderItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderID     uint   `gorm:"index;not null" json:"order_id"`
	ProductID   uint   `gorm:"not null" json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `gorm:"not null" json:"unit_price"` // kobo
	Quantity    int    `gorm:"not null" json:"quantity"`
}

// ShipTo copies a into the order's shipping snapshot.
func (o *Order) ShipTo(a Address) {
	o.ShipFullName = a.FullName
	o.ShipPhone = a.Phone
	o.ShipLine1 = a.Line1
	o.ShipLine2 = a.Line2
	o.ShipLandmark = a.Landmark
	o.ShipCity = a.City
	o.ShipState = a.State
}
