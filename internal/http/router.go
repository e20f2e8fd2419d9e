// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homeserve/internal/http/handlers"
	"homeserve/internal/http/middleware"
)

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	payments := handlers.NewPaymentHandler(s.booking)
	r.POST("/api/payments/webhook", payments.Webhook)

	api := r.Group("/api", middleware.Auth(s.verifier))

	bookings := handlers.NewBookingHandler(s.booking)
	api.GET("/bookings/:id", bookings.Get)
	api.POST("/bookings/:id/cancel", bookings.Cancel)

	customer := api.Group("", middleware.RequireRole(middleware.RoleCustomer))
	customer.POST("/bookings", bookings.Create)
	customer.POST("/bookings/:id/extra-charges/:chargeId/resolve", bookings.ResolveExtraCharge)
	customer.POST("/bookings/:id/payment/order", bookings.PaymentOrder)
	customer.POST("/bookings/:id/payment/verify", bookings.VerifyPayment)

	tech := api.Group("/technician", middleware.RequireRole(middleware.RoleTechnician))
	techHandler := handlers.NewTechnicianHandler(s.booking)
	tech.POST("/bookings/:id/respond", techHandler.Respond)
	tech.POST("/bookings/:id/status", techHandler.UpdateStatus)
	tech.POST("/bookings/:id/extra-charges", techHandler.AddExtraCharge)
	tech.POST("/bookings/:id/complete", techHandler.Complete)
	if s.location != nil {
		loc := handlers.NewLocationHandler(s.location)
		tech.PUT("/location", loc.Update)
		tech.DELETE("/location", loc.GoOffline)
	}

	admin := api.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	adminHandler := handlers.NewAdminHandler(s.booking)
	admin.POST("/bookings/:id/assign", adminHandler.ForceAssign)
	admin.POST("/bookings/:id/status", adminHandler.ForceStatus)

	return r
}
