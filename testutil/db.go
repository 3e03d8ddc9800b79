// Package testutil provides an in-memory database, fixtures, and a scripted
// payment gateway for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ajebo/storefront-api/models"
)

var dbSeq atomic.Int64

// NewDB opens a migrated in-memory SQLite database private to t.
// A single connection keeps every goroutine on the same in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func ValidAddress() models.Address {
	return models.Address{
		FullName: "Ada Obi",
		Phone:    "08031234567",
		Line1:    "12 Admiralty Way",
		Landmark: "Opposite the filling station",
		City:     "Lekki",
		State:    "Lagos",
	}
}

// SeedUser creates a user, with the given address when addr is non-nil.
func SeedUser(t *testing.T, db *gorm.DB, id string, addr *models.Address) *models.User {
	t.Helper()

	user := &models.User{ID: id, Email: id + "@example.com", Name: "Customer " + id}
	require.NoError(t, db.Create(user).Error)
	if addr != nil {
		a := *addr
		a.UserID = id
		require.NoError(t, db.Create(&a).Error)
		user.Address = &a
	}
	return user
}

func SeedProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:   name,
		Slug:   strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Price:  price,
		Stock:  stock,
		Active: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// AddToCart puts qty of productID into the user's cart, creating the cart if needed.
func AddToCart(t *testing.T, db *gorm.DB, userID string, productID uint, qty int) {
	t.Helper()

	var cart models.Cart
	require.NoError(t, db.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error)
	require.NoError(t, db.Create(&models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  qty,
		AddedAt:   time.Now(),
	}).Error)
}

func CartSize(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Count(&n).Error)
	return n
}

func Stock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()

	var p models.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Stock
}
