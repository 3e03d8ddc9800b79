package orderControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ajebo/storefront-api/middleware"
	"github.com/ajebo/storefront-api/models"
	"github.com/ajebo/storefront-api/store"
)

type UpdateDeliveryStatusRequest struct {
	DeliveryStatus models.DeliveryStatus `json:"deliveryStatus" binding:"required"`
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("orderID"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return uint(id), true
}

func writeStoreError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, store.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// GET /user/orders
func GetMyOrders(orders *store.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		list, err := orders.ListForUser(c.Request.Context(), userID)
		if err != nil {
			writeStoreError(c, err, "Failed to fetch orders")
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

// GET /user/orders/:reference
func GetMyOrder(orders *store.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		order, err := orders.FindForUser(c.Request.Context(), userID, c.Param("reference"))
		if err != nil {
			writeStoreError(c, err, "Failed to fetch order")
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /admin/orders?filter=all|pending|paid|shipping|completed&page=1&pageSize=20
func ListOrders(orders *store.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := c.DefaultQuery("filter", "all")
		switch filter {
		case "all", "pending", "paid", "shipping", "completed":
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter"})
			return
		}
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
		if page < 1 {
			page = 1
		}
		if pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		list, total, err := orders.List(c.Request.Context(), store.ListFilter{Filter: filter, Page: page, PageSize: pageSize})
		if err != nil {
			writeStoreError(c, err, "Failed to fetch orders")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders":   list,
			"total":    total,
			"page":     page,
			"pageSize": pageSize,
		})
	}
}

// PUT /admin/orders/:orderID/delivery-status
func UpdateDeliveryStatus(orders *store.Orders, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		var req UpdateDeliveryStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || !req.DeliveryStatus.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid delivery status"})
			return
		}

		order, err := orders.AdvanceDelivery(c.Request.Context(), orderID, req.DeliveryStatus)
		if err != nil {
			writeStoreError(c, err, "Failed to update delivery status")
			return
		}

		hub.Broadcast(EventOrderUpdated, order)
		c.JSON(http.StatusOK, gin.H{"message": "Delivery status updated", "order": order})
	}
}

// POST /admin/orders/:orderID/cancel
func CancelOrder(orders *store.Orders, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		order, err := orders.Cancel(c.Request.Context(), orderID)
		if err != nil {
			writeStoreError(c, err, "Failed to cancel order")
			return
		}

		hub.Broadcast(EventOrderUpdated, order)
		c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
	}
}
