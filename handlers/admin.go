package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonbook/database/repository"
	"salonbook/models"
	"salonbook/utils"
)

// UpsertService creates or rewrites a catalog entry and invalidates the
// catalog cache.
func (h *Handler) UpsertService(c *gin.Context) {
	var svc models.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if svc.Name == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "name is required")
		return
	}
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if err := h.Services.Upsert(c.Request.Context(), &svc); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.invalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, svc)
}

// DeleteService removes a catalog entry.
func (h *Handler) DeleteService(c *gin.Context) {
	if err := h.Services.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if err == repository.ErrServiceNotFound {
			utils.JSONError(c, http.StatusNotFound, "not_found", "service not found")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.invalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// CreateMaster registers a master.
func (h *Handler) CreateMaster(c *gin.Context) {
	var m models.Master
	if err := c.ShouldBindJSON(&m); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if m.Name == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "name is required")
		return
	}
	if err := h.Masters.Create(c.Request.Context(), &m); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.invalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, m)
}

// UpdateMaster rewrites a master's mutable fields.
func (h *Handler) UpdateMaster(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "invalid master id")
		return
	}
	var m models.Master
	if err := c.ShouldBindJSON(&m); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	m.ID = id
	if err := h.Masters.Update(c.Request.Context(), &m); err != nil {
		if err == repository.ErrMasterNotFound {
			utils.JSONError(c, http.StatusNotFound, "not_found", "master not found")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.invalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, m)
}

// LinkMasterService attaches a service (with optional duration override).
func (h *Handler) LinkMasterService(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "invalid master id")
		return
	}
	var input struct {
		ServiceID       string `json:"service_id"`
		DurationMinutes *int   `json:"duration_minutes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.ServiceID == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "service_id is required")
		return
	}
	link := models.MasterService{MasterID: id, ServiceID: input.ServiceID, DurationMinutes: input.DurationMinutes}
	if err := h.Masters.LinkService(c.Request.Context(), link); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.invalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, link)
}

// UnlinkMasterService detaches a service from a master.
func (h *Handler) UnlinkMasterService(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "invalid master id")
		return
	}
	if err := h.Masters.UnlinkService(c.Request.Context(), id, c.Param("service_id")); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.invalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ReplaceWeeklySchedule rewrites a master's windows for one weekday.
func (h *Handler) ReplaceWeeklySchedule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "invalid master id")
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < 0 || day > 6 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "day must be 0..6")
		return
	}
	var input struct {
		Windows []models.ScheduleWindow `json:"windows"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if err := h.Schedules.ReplaceWeekly(c.Request.Context(), id, day, input.Windows); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SetScheduleException rewrites the overrides for one date.
func (h *Handler) SetScheduleException(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "invalid master id")
		return
	}
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "date must be YYYY-MM-DD")
		return
	}
	var input struct {
		Exceptions []models.ScheduleException `json:"exceptions"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if err := h.Schedules.SetException(c.Request.Context(), id, date, input.Exceptions); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListSettings returns every persisted setting.
func (h *Handler) ListSettings(c *gin.Context) {
	settings, err := h.Settings.List(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PutSetting writes a runtime setting through the store.
func (h *Handler) PutSetting(c *gin.Context) {
	key := c.Param("key")
	var input struct {
		Value interface{} `json:"value"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if err := h.Settings.Set(c.Request.Context(), key, input.Value); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListBookings returns a filtered, paginated booking list.
func (h *Handler) ListBookings(c *gin.Context) {
	filters := repository.BookingFilters{}
	if v, err := strconv.ParseInt(c.Query("user_id"), 10, 64); err == nil {
		filters.UserID = v
	}
	if v, err := strconv.ParseInt(c.Query("master_id"), 10, 64); err == nil {
		filters.MasterID = v
	}
	for _, s := range splitIDs(c.Query("statuses")) {
		filters.Statuses = append(filters.Statuses, models.BookingStatus(s))
	}
	if v, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filters.FromTime = v
	}
	if v, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filters.ToTime = v
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, err := h.BookingRepo.GetPaginatedList(c.Request.Context(), filters)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// AdminBookingDetail returns the full audit view of one booking: the joined
// snapshot, its service lines, the transition log and any rating.
func (h *Handler) AdminBookingDetail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	details, err := h.BookingRepo.GetDetails(ctx, id)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			utils.JSONError(c, http.StatusNotFound, "not_found", "booking not found")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	items, err := h.BookingRepo.Items(ctx, id)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	history, err := h.BookingRepo.History(ctx, id)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	rating, err := h.BookingRepo.GetRating(ctx, id)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking": details,
		"items":   items,
		"history": history,
		"rating":  rating,
	})
}

// SetUserAdmin toggles a user's admin flag.
func (h *Handler) SetUserAdmin(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "invalid user id")
		return
	}
	var input struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if err := h.Users.SetAdmin(c.Request.Context(), id, input.IsAdmin); err != nil {
		if err == repository.ErrUserNotFound {
			utils.JSONError(c, http.StatusNotFound, "not_found", "user not found")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
