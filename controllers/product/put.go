package productcontroller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ajebo/storefront-api/models"
)

type UpdateProductInput struct {
	Name   *string `json:"name"`
	Slug   *string `json:"slug"`
	Price  *int64  `json:"price" binding:"omitempty,gt=0"`
	Stock  *int    `json:"stock" binding:"omitempty,min=0"`
	Active *bool   `json:"active"`
}

// PUT /admin/products/:id
//
// Only the fields present in the body change. A stock edit racing a payment
// finalize is accepted: the last write wins.
func UpdateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}

		var input UpdateProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		db := db.WithContext(c.Request.Context())

		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
			return
		}

		updates := make(map[string]any)
		if input.Name != nil {
			if name := strings.TrimSpace(*input.Name); name != "" {
				updates["name"] = name
			}
		}
		if input.Slug != nil {
			if slug := slugify(*input.Slug); slug != "" {
				updates["slug"] = slug
			}
		}
		if input.Price != nil {
			updates["price"] = *input.Price
		}
		if input.Stock != nil {
			updates["stock"] = *input.Stock
		}
		if input.Active != nil {
			updates["active"] = *input.Active
		}

		if len(updates) > 0 {
			if err := db.Model(&product).Updates(updates).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					c.JSON(http.StatusConflict, gin.H{"error": "Slug already in use"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
				return
			}
		}

		if err := db.First(&product, id).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": product})
	}
}
