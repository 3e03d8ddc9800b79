package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ajebo/storefront-api/models"
)

type Orders struct {
	db *gorm.DB
}

func (s *Orders) FindByCheckoutKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where("checkout_key = ?", key).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (s *Orders) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").Preload("Payment").First(&order, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindForUser looks an order up by its customer-facing reference, scoped to its owner.
func (s *Orders) FindForUser(ctx context.Context, userID, reference string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where("reference = ? AND user_id = ?", reference, userID).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (s *Orders) ListForUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

type ListFilter struct {
	Filter   string // all, pending, paid, shipping, completed
	Page     int
	PageSize int
}

// List returns one page of orders for the back office plus the total matching count.
func (s *Orders) List(ctx context.Context, f ListFilter) ([]models.Order, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Order{})
	switch f.Filter {
	case "pending":
		q = q.Where("status = ?", models.OrderStatusPending)
	case "paid":
		q = q.Where("status = ?", models.OrderStatusPaid)
	case "shipping":
		q = q.Where("status = ? AND delivery_status IN ?", models.OrderStatusPaid,
			[]models.DeliveryStatus{models.DeliveryStatusProcessing, models.DeliveryStatusDispatched})
	case "completed":
		q = q.Where("delivery_status = ?", models.DeliveryStatusDelivered)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := q.Preload("Items").
		Preload("Payment").
		Order("created_at DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&orders).Error
	return orders, total, err
}

// Create inserts a PENDING order with its line snapshot and its paired payment in one
// transaction. A concurrent insert with the same checkout key yields ErrDuplicateCheckoutKey.
func (s *Orders) Create(ctx context.Context, order *models.Order, payment *models.Payment) error {
	db := s.db.WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Payment").Create(order).Error; err != nil {
			return err
		}
		payment.OrderID = order.ID
		if payment.Reference == "" {
			payment.Reference = order.Reference
		}
		return tx.Omit("Order").Create(payment).Error
	})
	if err == nil {
		order.Payment = payment
		return nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCheckoutKey
	}
	// Drivers that do not translate constraint errors: check whether we lost the race.
	var n int64
	if cerr := db.Model(&models.Order{}).Where("checkout_key = ?", order.CheckoutKey).Count(&n).Error; cerr == nil && n > 0 {
		return ErrDuplicateCheckoutKey
	}
	return fmt.Errorf("create order: %w", err)
}

// MarkCheckoutFailed records a failed gateway session unless the order is already PAID.
func (s *Orders) MarkCheckoutFailed(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status <> ?", orderID, models.OrderStatusPaid).
		Update("checkout_status", models.CheckoutStatusFailed).Error
}

// AdvanceDelivery moves a PAID order exactly one delivery step forward.
// The step is a conditional update on the expected current status.
func (s *Orders) AdvanceDelivery(ctx context.Context, orderID uint, next models.DeliveryStatus) (*models.Order, error) {
	prev, ok := next.Previous()
	if !ok {
		return nil, fmt.Errorf("%w: cannot move delivery to %s", ErrInvalidTransition, next)
	}

	updates := map[string]any{"delivery_status": next}
	if next == models.DeliveryStatusDelivered {
		updates["delivered_at"] = time.Now()
	}

	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND delivery_status = ?", orderID, models.OrderStatusPaid, prev).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}

	order, err := s.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		if order.Status != models.OrderStatusPaid {
			return nil, fmt.Errorf("%w: order is %s, not PAID", ErrInvalidTransition, order.Status)
		}
		return nil, fmt.Errorf("%w: delivery is %s, cannot move to %s", ErrInvalidTransition, order.DeliveryStatus, next)
	}
	return order, nil
}

// Cancel moves a PENDING order to CANCELLED.
func (s *Orders) Cancel(ctx context.Context, orderID uint) (*models.Order, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Update("status", models.OrderStatusCancelled)
	if res.Error != nil {
		return nil, res.Error
	}

	order, err := s.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
	}
	return order, nil
}
