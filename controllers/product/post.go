package productcontroller

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ajebo/storefront-api/models"
)

type CreateProductInput struct {
	Name   string `json:"name" binding:"required"`
	Slug   string `json:"slug"`
	Price  int64  `json:"price" binding:"required,gt=0"` // kobo
	Stock  int    `json:"stock" binding:"min=0"`
	Active *bool  `json:"active"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// POST /admin/products
func CreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		product := models.Product{
			Name:   strings.TrimSpace(input.Name),
			Slug:   slugify(input.Slug),
			Price:  input.Price,
			Stock:  input.Stock,
			Active: input.Active == nil || *input.Active,
		}
		if product.Slug == "" {
			product.Slug = slugify(product.Name)
		}

		if err := db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Slug already in use"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}

		c.JSON(http.StatusCreated, product)
	}
}
