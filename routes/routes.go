package routes

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ajebo/storefront-api/checkout"
	"github.com/ajebo/storefront-api/config"
	orderControllers "github.com/ajebo/storefront-api/controllers/order"
	"github.com/ajebo/storefront-api/metrics"
	"github.com/ajebo/storefront-api/middleware"
	"github.com/ajebo/storefront-api/reconcile"
	"github.com/ajebo/storefront-api/store"
)

// Deps is everything the route groups need.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Store     *store.Store
	Initiator *checkout.Initiator
	Engine    *reconcile.Engine
	Hub       *orderControllers.Hub
}

// NewRouter builds the gin engine with global middleware and every route group.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	origins := d.Config.Server.AllowedOrigins()
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.APIKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", healthz(d.DB))
	r.GET("/metrics", metrics.Handler())

	SetupRoutes(r, d)
	return r
}

// SetupRoutes is the single entry-point that wires up the Auth, User, Checkout and Admin route groups.
func SetupRoutes(r *gin.Engine, d Deps) {
	// Session bridge for the hosted identity provider (API-key protected)
	SetupAuthRoutes(r, d)

	// User routes (JWT-protected)
	SetupUserRoutes(r, d)

	// Checkout, verify and gateway webhook
	SetupCheckoutRoutes(r, d)

	// Admin routes (API-key protected)
	SetupAdminRoutes(r, d)
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
