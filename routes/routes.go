// Package routes registers the HTTP surface of the booking engine.
package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"salonbook/handlers"
	"salonbook/middleware"
)

// RegisterRoutes wires every endpoint group onto the router.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterCatalogRoutes(r, h)
	RegisterBookingRoutes(r, h)
	RegisterMasterRoutes(r, h)
	RegisterAdminRoutes(r, h)
	RegisterPaymentRoutes(r, h)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterCatalogRoutes registers catalog and availability endpoints.
func RegisterCatalogRoutes(r *gin.Engine, h *handlers.Handler) {
	api := r.Group("/api/catalog")
	{
		api.Use(middleware.JWTAuthMiddleware(h.Auth))
		api.GET("/services", h.ListServices)
		api.GET("/masters", h.ListMasters)
		api.GET("/availability/days", h.AvailableDays)
		api.GET("/availability/slots", h.AvailableSlots)
		api.POST("/quote", h.Quote)
	}
}

// RegisterBookingRoutes registers the client booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.Handler) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware(h.Auth))
		api.POST("/hold", h.Hold)
		api.POST("", h.Book)
		api.POST("/:id/finalize", h.Finalize)
		api.POST("/:id/invoice", h.CreateInvoice)
		api.POST("/:id/cancel", h.Cancel)
		api.POST("/:id/reschedule", h.Reschedule)
		api.POST("/:id/rate", h.Rate)
		api.GET("/my/active", h.MyActiveBookings)
		api.GET("/my/history", h.MyBookingHistory)
	}
}

// RegisterMasterRoutes registers master-side endpoints.
func RegisterMasterRoutes(r *gin.Engine, h *handlers.Handler) {
	api := r.Group("/api/master")
	{
		api.Use(middleware.JWTAuthMiddleware(h.Auth))
		api.Use(middleware.MasterAuthMiddleware(h.Auth))
		api.GET("/day", h.MasterDaySchedule)
		api.POST("/bookings/:id/done", h.MarkDone)
		api.POST("/bookings/:id/no-show", h.MarkNoShow)
		api.GET("/clients/:user_id/note", h.GetClientNote)
		api.PUT("/clients/:user_id/note", h.PutClientNote)
	}
}

// RegisterAdminRoutes registers admin CRUD endpoints.
func RegisterAdminRoutes(r *gin.Engine, h *handlers.Handler) {
	api := r.Group("/api/admin")
	{
		api.Use(middleware.JWTAuthMiddleware(h.Auth))
		api.Use(middleware.AdminAuthMiddleware(h.Auth))
		api.POST("/services", h.UpsertService)
		api.DELETE("/services/:id", h.DeleteService)
		api.POST("/masters", h.CreateMaster)
		api.PUT("/masters/:id", h.UpdateMaster)
		api.POST("/masters/:id/services", h.LinkMasterService)
		api.DELETE("/masters/:id/services/:service_id", h.UnlinkMasterService)
		api.PUT("/masters/:id/schedule/:day", h.ReplaceWeeklySchedule)
		api.PUT("/masters/:id/exceptions/:date", h.SetScheduleException)
		api.GET("/settings", h.ListSettings)
		api.PUT("/settings/:key", h.PutSetting)
		api.GET("/bookings", h.ListBookings)
		api.GET("/bookings/:id", h.AdminBookingDetail)
		api.PUT("/users/:id/admin", h.SetUserAdmin)
	}
}

// RegisterPaymentRoutes registers the payment provider callback.
func RegisterPaymentRoutes(r *gin.Engine, h *handlers.Handler) {
	r.POST("/api/payments/stripe/webhook", h.StripeWebhook)
}
