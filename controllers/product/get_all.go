package productcontroller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ajebo/storefront-api/models"
)

var sortColumns = map[string]string{
	"created_at": "created_at",
	"price":      "price",
	"name":       "name",
}

// GetProducts lists active products.
// Query: search, min_price, max_price (kobo), sort_by (created_at|price|name), order (asc|desc).
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.WithContext(c.Request.Context()).Model(&models.Product{}).Where("active = ?", true)

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
		}

		for param, op := range map[string]string{"min_price": ">=", "max_price": "<="} {
			raw := c.Query(param)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
				return
			}
			query = query.Where("price "+op+" ?", v)
		}

		column, ok := sortColumns[c.DefaultQuery("sort_by", "created_at")]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by"})
			return
		}
		desc := strings.ToLower(c.DefaultQuery("order", "desc")) != "asc"

		var products []models.Product
		if err := query.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
