package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ajebo/storefront-api/logging"
	"github.com/ajebo/storefront-api/models"
)

type sessionInput struct {
	UserID string `json:"userId" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Name   string `json:"name"`
}

// POST /auth/session
//
// Called server-side by the storefront frontend once the hosted identity
// provider has authenticated a customer. Creates or refreshes the local user
// and its empty cart, and returns an access token for the /user and /checkout
// routes.
func CreateSession(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input sessionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		user := models.User{
			ID:    strings.TrimSpace(input.UserID),
			Email: strings.ToLower(strings.TrimSpace(input.Email)),
			Name:  strings.TrimSpace(input.Name),
		}

		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"email", "name"}),
			}).Create(&user).Error; err != nil {
				return err
			}
			return tx.Where(models.Cart{UserID: user.ID}).FirstOrCreate(&models.Cart{}).Error
		})
		if err != nil {
			logging.Ctx(c.Request.Context()).Error().Err(err).Str("user_id", user.ID).Msg("session user upsert failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
			return
		}

		token, err := IssueToken(secret, user.ID, user.Email, TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  user,
		})
	}
}
