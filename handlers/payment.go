package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"

	"salonbook/services/payment"
	"salonbook/utils"
)

// StripeWebhook handles checkout completion callbacks. The booking id rides
// in the session's client_reference_id.
func (h *Handler) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "unreadable payload")
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "malformed event")
		return
	}
	if event.Type != "checkout.session.completed" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "malformed session")
		return
	}
	bookingID, err := strconv.ParseInt(session.ClientReferenceID, 10, 64)
	if err != nil || bookingID <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "missing booking reference")
		return
	}

	res, err := h.Bookings.HandlePaymentSuccess(c.Request.Context(), bookingID, payment.ProviderName, session.ID)
	serveResult(c, res, err)
}
