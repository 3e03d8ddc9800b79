package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ajebo/storefront-api/models"
)

// Customers reads the user-owned data checkout depends on.
type Customers struct {
	db *gorm.DB
}

func (s *Customers) FindUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Address").First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// LoadCart returns the user's cart with current product data. A user without
// a cart gets an empty one.
func (s *Customers) LoadCart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at, id") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Cart{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}
