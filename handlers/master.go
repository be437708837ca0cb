package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"salonbook/models"
	"salonbook/utils"
)

// resolveMasterID returns the master id the caller may act as: the master's
// own id, or an explicit ?master_id for admins.
func (h *Handler) resolveMasterID(c *gin.Context) (int64, bool) {
	if m, ok := currentMaster(c); ok {
		return m.ID, true
	}
	if isAdmin(c) {
		id, err := strconv.ParseInt(c.Query("master_id"), 10, 64)
		if err == nil && id > 0 {
			return id, true
		}
		utils.JSONError(c, http.StatusBadRequest, "master_required", "master_id is required for admins")
		return 0, false
	}
	utils.JSONError(c, http.StatusForbidden, "unauthorized", "master access required")
	return 0, false
}

// MasterDaySchedule lists the master's bookings for one local date.
func (h *Handler) MasterDaySchedule(c *gin.Context) {
	masterID, ok := h.resolveMasterID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	loc := h.Schedule.Location(ctx)
	date, err := time.ParseInLocation("2006-01-02", c.DefaultQuery("date", time.Now().In(loc).Format("2006-01-02")), loc)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "date must be YYYY-MM-DD")
		return
	}
	bookings, err := h.Bookings.DayForMaster(ctx, masterID, date.UTC(), date.AddDate(0, 0, 1).UTC())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// MarkDone completes a booking.
func (h *Handler) MarkDone(c *gin.Context) {
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	var masterID int64
	if m, isMasterCaller := currentMaster(c); isMasterCaller {
		masterID = m.ID
	}
	res, err := h.Bookings.MarkDone(c.Request.Context(), masterID, isAdmin(c), bookingID)
	serveResult(c, res, err)
}

// MarkNoShow flags a missed booking.
func (h *Handler) MarkNoShow(c *gin.Context) {
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	var masterID int64
	if m, isMasterCaller := currentMaster(c); isMasterCaller {
		masterID = m.ID
	}
	res, err := h.Bookings.MarkNoShow(c.Request.Context(), masterID, isAdmin(c), bookingID)
	serveResult(c, res, err)
}

// GetClientNote returns the master's note for one client.
func (h *Handler) GetClientNote(c *gin.Context) {
	masterID, ok := h.resolveMasterID(c)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "invalid user id")
		return
	}
	note, err := h.Masters.GetClientNote(c.Request.Context(), masterID, userID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if note == nil {
		c.JSON(http.StatusOK, gin.H{"note": nil})
		return
	}
	c.JSON(http.StatusOK, note)
}

// PutClientNote stores the master's single note for one client.
func (h *Handler) PutClientNote(c *gin.Context) {
	masterID, ok := h.resolveMasterID(c)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "invalid user id")
		return
	}
	var input struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	err = h.Masters.UpsertClientNote(c.Request.Context(), models.MasterClientNote{
		MasterID: masterID,
		UserID:   userID,
		Note:     input.Note,
	})
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
