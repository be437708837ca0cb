// Package handlers is the gin façade over the booking core. Handlers stay
// thin: bind, call a service, translate the result.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"salonbook/database/repository"
	"salonbook/middleware"
	"salonbook/models"
	"salonbook/services/auth"
	"salonbook/services/booking"
	"salonbook/services/pricing"
	"salonbook/services/schedule"
	"salonbook/services/settings"
	"salonbook/utils"
)

// BookingAdminRepo is the read surface of the admin booking views.
type BookingAdminRepo interface {
	GetPaginatedList(ctx context.Context, filters repository.BookingFilters) ([]models.Booking, error)
	GetDetails(ctx context.Context, bookingID int64) (*models.BookingDetails, error)
	Items(ctx context.Context, bookingID int64) ([]models.BookingItem, error)
	History(ctx context.Context, bookingID int64) ([]models.BookingStatusHistory, error)
	GetRating(ctx context.Context, bookingID int64) (*models.BookingRating, error)
}

// Handler bundles the services behind the HTTP endpoints.
type Handler struct {
	Bookings    booking.BookingService
	Schedule    schedule.ScheduleService
	Pricing     pricing.PricingService
	Auth        auth.AuthService
	Settings    settings.SettingsStore
	Users       *repository.UserRepository
	Masters     *repository.MasterRepository
	Services    *repository.ServiceRepository
	Schedules   *repository.ScheduleRepository
	BookingRepo BookingAdminRepo
	Cache       *redis.Client
}

// currentUser returns the authenticated user set by the auth middleware.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(middleware.CtxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// currentMaster returns the master principal when present.
func currentMaster(c *gin.Context) (*models.Master, bool) {
	v, ok := c.Get(middleware.CtxMaster)
	if !ok {
		return nil, false
	}
	m, _ := v.(*models.Master)
	return m, m != nil
}

func isAdmin(c *gin.Context) bool {
	v, ok := c.Get(middleware.CtxIsAdmin)
	return ok && v == true
}

// statusForCode maps stable error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case booking.CodeBookingNotFound:
		return http.StatusNotFound
	case booking.CodeUnauthorized:
		return http.StatusForbidden
	case booking.CodeMasterRequired, booking.CodeServiceRequired,
		booking.CodeSlotInPast, booking.CodeRatingInvalidValue:
		return http.StatusBadRequest
	case booking.CodeOnlinePaymentsUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}

// writeResult renders an orchestrator result, choosing the HTTP status from
// the error code on failure.
func writeResult(c *gin.Context, res booking.Result) {
	if res.OK {
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(statusForCode(res.Code), utils.ErrorResponse{Code: res.Code})
}

// serveResult handles the (Result, error) pair every orchestrator call
// returns.
func serveResult(c *gin.Context, res booking.Result, err error) {
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeResult(c, res)
}
