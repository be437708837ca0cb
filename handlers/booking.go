package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"salonbook/services/booking"
	"salonbook/utils"
)

type holdInput struct {
	MasterID      int64    `json:"master_id"`
	ServiceIDs    []string `json:"service_ids"`
	StartsAt      string   `json:"starts_at"`
	PaymentMethod string   `json:"payment_method"`
}

func (in *holdInput) startTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, in.StartsAt)
	return t, err == nil
}

func paymentMethod(raw string) booking.PaymentMethod {
	if raw == string(booking.PaymentOnline) {
		return booking.PaymentOnline
	}
	return booking.PaymentCash
}

// Hold places a transient reservation on a slot.
func (h *Handler) Hold(c *gin.Context) {
	var input holdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	startsAt, ok := input.startTime()
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "starts_at must be RFC3339")
		return
	}
	user := currentUser(c)
	res, err := h.Bookings.Hold(c.Request.Context(), user.ID, input.MasterID, input.ServiceIDs, startsAt, paymentMethod(input.PaymentMethod))
	serveResult(c, res, err)
}

// Book holds and immediately finalizes.
func (h *Handler) Book(c *gin.Context) {
	var input holdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	startsAt, ok := input.startTime()
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "starts_at must be RFC3339")
		return
	}
	user := currentUser(c)
	res, err := h.Bookings.CreateBooking(c.Request.Context(), user.ID, input.MasterID, input.ServiceIDs, startsAt, paymentMethod(input.PaymentMethod))
	serveResult(c, res, err)
}

// Finalize settles a held booking with the chosen payment method.
func (h *Handler) Finalize(c *gin.Context) {
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	var input struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	user := currentUser(c)
	res, err := h.Bookings.Finalize(c.Request.Context(), user.ID, bookingID, paymentMethod(input.PaymentMethod))
	serveResult(c, res, err)
}

// CreateInvoice returns a payment link for a held booking.
func (h *Handler) CreateInvoice(c *gin.Context) {
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.Bookings.CreateInvoice(c.Request.Context(), bookingID)
	serveResult(c, res, err)
}

// Cancel cancels the caller's booking; admins bypass the lock window.
func (h *Handler) Cancel(c *gin.Context) {
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	user := currentUser(c)
	res, err := h.Bookings.Cancel(c.Request.Context(), user.ID, bookingID, isAdmin(c))
	serveResult(c, res, err)
}

// Reschedule moves the caller's booking to a new start time.
func (h *Handler) Reschedule(c *gin.Context) {
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	var input struct {
		StartsAt string `json:"starts_at"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	startsAt, err := time.Parse(time.RFC3339, input.StartsAt)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "starts_at must be RFC3339")
		return
	}
	user := currentUser(c)
	res, err := h.Bookings.Reschedule(c.Request.Context(), user.ID, bookingID, startsAt, isAdmin(c))
	serveResult(c, res, err)
}

// Rate records the caller's rating of a completed booking.
func (h *Handler) Rate(c *gin.Context) {
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	var input struct {
		Rating  int     `json:"rating"`
		Comment *string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	user := currentUser(c)
	res, err := h.Bookings.Rate(c.Request.Context(), user.ID, bookingID, input.Rating, input.Comment)
	serveResult(c, res, err)
}

// MyActiveBookings lists the caller's upcoming bookings.
func (h *Handler) MyActiveBookings(c *gin.Context) {
	user := currentUser(c)
	bookings, err := h.Bookings.ActiveForUser(c.Request.Context(), user.ID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// MyBookingHistory lists the caller's most recent bookings.
func (h *Handler) MyBookingHistory(c *gin.Context) {
	user := currentUser(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	bookings, err := h.Bookings.HistoryForUser(c.Request.Context(), user.ID, limit)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "invalid booking id")
		return 0, false
	}
	return id, true
}
