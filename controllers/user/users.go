package userControllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ajebo/storefront-api/apperr"
	"github.com/ajebo/storefront-api/checkout"
	"github.com/ajebo/storefront-api/middleware"
	"github.com/ajebo/storefront-api/models"
)

type AddressInput struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	Landmark string `json:"landmark"`
	City     string `json:"city"`
	State    string `json:"state"`
}

// GET /user
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var user models.User
		if err := db.WithContext(c.Request.Context()).Preload("Address").First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// GET /user/address
func GetAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var addr models.Address
		err := db.WithContext(c.Request.Context()).Where("user_id = ?", userID).First(&addr).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No saved address"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch address"})
			return
		}
		c.JSON(http.StatusOK, addr)
	}
}

// POST /user/address
//
// Replaces the saved delivery address. Orders already placed keep their own copy.
func SaveAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var input AddressInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		addr := models.Address{
			UserID:   userID,
			FullName: strings.TrimSpace(input.FullName),
			Phone:    strings.TrimSpace(input.Phone),
			Line1:    strings.TrimSpace(input.Line1),
			Line2:    strings.TrimSpace(input.Line2),
			Landmark: strings.TrimSpace(input.Landmark),
			City:     strings.TrimSpace(input.City),
			State:    strings.TrimSpace(input.State),
		}
		if err := checkout.ValidateAddress(&addr); err != nil {
			apperr.Abort(c, err)
			return
		}

		err := db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "phone", "line1", "line2", "landmark", "city", "state", "updated_at"}),
		}).Create(&addr).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save address"})
			return
		}

		c.JSON(http.StatusOK, addr)
	}
}
