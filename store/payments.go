package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ajebo/storefront-api/logging"
	"github.com/ajebo/storefront-api/models"
)

type Payments struct {
	db *gorm.DB
}

// FindByGatewayRef resolves a gateway reference to its payment, matching the
// gateway reference first and the order reference second.
func (s *Payments) FindByGatewayRef(ctx context.Context, ref string) (*models.Payment, error) {
	db := s.db.WithContext(ctx)

	var payment models.Payment
	err := db.Preload("Order").Where("paystack_ref = ?", ref).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Preload("Order").Where("reference = ?", ref).Order("id").First(&payment).Error
	}
	if err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

// Create inserts a payment for an order that predates its payment row.
func (s *Payments) Create(ctx context.Context, payment *models.Payment) error {
	return s.db.WithContext(ctx).Omit("Order").Create(payment).Error
}

// SaveInitialization stores the gateway reference and hosted payment URL of an
// initialized session together with the gateway's raw response. A FAILED
// payment, and the checkout of its still-pending order, go back to INITIATED.
func (s *Payments) SaveInitialization(ctx context.Context, paymentID uint, paystackRef, authorizationURL, raw string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Select("id", "order_id").First(&payment, paymentID).Error; err != nil {
			return notFound(err)
		}

		if err := tx.Model(&models.Payment{}).
			Where("id = ?", paymentID).
			Updates(map[string]any{
				"paystack_ref":      paystackRef,
				"authorization_url": authorizationURL,
				"gateway_payload":   raw,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", paymentID, models.PaymentStatusFailed).
			Update("status", models.PaymentStatusInitiated).Error; err != nil {
			return err
		}
		return tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", payment.OrderID, models.OrderStatusPending).
			Update("checkout_status", models.CheckoutStatusInitiated).Error
	})
}

// RecordPayload keeps the latest gateway response without changing any status.
func (s *Payments) RecordPayload(ctx context.Context, paymentID uint, raw string) error {
	return s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Update("gateway_payload", raw).Error
}

// RecordFailure marks the payment FAILED and the order's checkout FAILED.
// A SUCCESS payment and a PAID order are left as they are.
func (s *Payments) RecordFailure(ctx context.Context, paymentID uint, raw string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Select("id", "order_id").First(&payment, paymentID).Error; err != nil {
			return notFound(err)
		}

		if err := tx.Model(&models.Payment{}).
			Where("id = ?", paymentID).
			Update("gateway_payload", raw).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Payment{}).
			Where("id = ? AND status <> ?", paymentID, models.PaymentStatusSuccess).
			Update("status", models.PaymentStatusFailed).Error; err != nil {
			return err
		}
		return tx.Model(&models.Order{}).
			Where("id = ? AND status <> ?", payment.OrderID, models.OrderStatusPaid).
			Update("checkout_status", models.CheckoutStatusFailed).Error
	})
}

// RecordSuccess marks the payment SUCCESS and finalizes its order in the same
// transaction. The first paid time is kept. finalized reports whether this call
// moved the order from PENDING to PAID; at most one caller ever sees true.
func (s *Payments) RecordSuccess(ctx context.Context, paymentID uint, raw string, now time.Time) (order *models.Order, finalized bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Select("id", "order_id").First(&payment, paymentID).Error; err != nil {
			return notFound(err)
		}

		if err := tx.Model(&models.Payment{}).
			Where("id = ?", paymentID).
			Updates(map[string]any{
				"status":          models.PaymentStatusSuccess,
				"paid_at":         gorm.Expr("COALESCE(paid_at, ?)", now),
				"gateway_payload": raw,
			}).Error; err != nil {
			return err
		}

		finalized, err = finalize(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}

		order = &models.Order{}
		return tx.Preload("Items").Preload("Payment").First(order, payment.OrderID).Error
	})
	if err != nil {
		return nil, false, err
	}
	return order, finalized, nil
}

// finalize performs the guarded PENDING to PAID transition. Only the caller whose
// conditional update matched a row decrements stock and clears the cart.
func finalize(ctx context.Context, tx *gorm.DB, orderID uint) (bool, error) {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]any{
			"status":          models.OrderStatusPaid,
			"checkout_status": models.CheckoutStatusSuccess,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	var order models.Order
	if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
		return false, err
	}

	log := logging.Ctx(ctx)
	for _, item := range order.Items {
		var product models.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "stock").
			First(&product, item.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Uint("order_id", orderID).Uint("product_id", item.ProductID).Msg("paid order references a missing product")
			continue
		}
		if err != nil {
			return false, err
		}
		if product.Stock < item.Quantity {
			log.Warn().
				Uint("order_id", orderID).
				Uint("product_id", item.ProductID).
				Int("stock", product.Stock).
				Int("quantity", item.Quantity).
				Msg("oversold: stock clamped at zero")
		}

		if err := tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			UpdateColumn("stock", gorm.Expr("CASE WHEN stock >= ? THEN stock - ? ELSE 0 END", item.Quantity, item.Quantity)).Error; err != nil {
			return false, err
		}
	}

	var cart models.Cart
	if err := tx.Where("user_id = ?", order.UserID).Limit(1).Find(&cart).Error; err != nil {
		return false, err
	}
	if cart.ID != 0 {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return false, err
		}
	}
	return true, nil
}
