package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"salonbook/models"
	"salonbook/services/schedule"
	"salonbook/utils"
)

const (
	servicesCacheKey = "catalog:services"
	mastersCacheKey  = "catalog:masters"
	catalogCacheTTL  = 5 * time.Minute
)

// ListServices returns the service catalog, read through the redis cache.
func (h *Handler) ListServices(c *gin.Context) {
	ctx := c.Request.Context()

	if h.Cache != nil {
		if raw, err := h.Cache.Get(ctx, servicesCacheKey).Bytes(); err == nil {
			var services []models.Service
			if json.Unmarshal(raw, &services) == nil {
				c.JSON(http.StatusOK, services)
				return
			}
		}
	}

	services, err := h.Services.List(ctx)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.cacheJSON(ctx, servicesCacheKey, services)
	c.JSON(http.StatusOK, services)
}

// ListMasters returns active masters, optionally narrowed to those offering
// every service in ?service_ids.
func (h *Handler) ListMasters(c *gin.Context) {
	ctx := c.Request.Context()
	serviceIDs := splitIDs(c.Query("service_ids"))

	if len(serviceIDs) > 0 {
		masters, err := h.Masters.ListOfferingAll(ctx, serviceIDs)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		c.JSON(http.StatusOK, masters)
		return
	}

	if h.Cache != nil {
		if raw, err := h.Cache.Get(ctx, mastersCacheKey).Bytes(); err == nil {
			var masters []models.Master
			if json.Unmarshal(raw, &masters) == nil {
				c.JSON(http.StatusOK, masters)
				return
			}
		}
	}
	masters, err := h.Masters.ListActive(ctx)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	h.cacheJSON(ctx, mastersCacheKey, masters)
	c.JSON(http.StatusOK, masters)
}

// AvailableDays returns the day numbers of a month with at least one slot
// for the requested composition.
func (h *Handler) AvailableDays(c *gin.Context) {
	ctx := c.Request.Context()
	masterID, err := strconv.ParseInt(c.Query("master_id"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "master_required", "master_id is required")
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "year is required")
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "month must be 1..12")
		return
	}

	minutes, ok := h.compositionMinutes(c, masterID)
	if !ok {
		return
	}
	days, err := h.Schedule.AvailableDays(ctx, masterID, year, time.Month(month), minutes)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if days == nil {
		days = []int{}
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

// AvailableSlots returns bookable start times for a local calendar date, as
// HH:MM labels in the salon time zone.
func (h *Handler) AvailableSlots(c *gin.Context) {
	ctx := c.Request.Context()
	masterID, err := strconv.ParseInt(c.Query("master_id"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "master_required", "master_id is required")
		return
	}
	loc := h.Schedule.Location(ctx)
	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), loc)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "date must be YYYY-MM-DD")
		return
	}

	minutes, ok := h.compositionMinutes(c, masterID)
	if !ok {
		return
	}
	slots, err := h.Schedule.SlotsFor(ctx, masterID, date, minutes)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": schedule.ClockLabels(slots, loc)})
}

// Quote prices a composition for the chosen payment method.
func (h *Handler) Quote(c *gin.Context) {
	var input struct {
		ServiceIDs    []string `json:"service_ids"`
		MasterID      *int64   `json:"master_id"`
		PaymentMethod string   `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if len(input.ServiceIDs) == 0 {
		utils.JSONError(c, http.StatusBadRequest, "service_required", "service_ids is required")
		return
	}

	ctx := c.Request.Context()
	agg, err := h.Pricing.Aggregate(ctx, input.ServiceIDs, input.MasterID)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "service_required", err.Error())
		return
	}
	quote := h.Pricing.QuoteFor(ctx, agg.TotalPriceCents, input.PaymentMethod == "online")
	c.JSON(http.StatusOK, gin.H{"aggregate": agg, "quote": quote})
}

// compositionMinutes resolves the aggregate duration for ?service_ids,
// falling back to the slot default when the list is empty.
func (h *Handler) compositionMinutes(c *gin.Context, masterID int64) (int, bool) {
	serviceIDs := splitIDs(c.Query("service_ids"))
	if len(serviceIDs) == 0 {
		utils.JSONError(c, http.StatusBadRequest, "service_required", "service_ids is required")
		return 0, false
	}
	agg, err := h.Pricing.Aggregate(c.Request.Context(), serviceIDs, &masterID)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "service_required", err.Error())
		return 0, false
	}
	return agg.TotalMinutes, true
}

func (h *Handler) cacheJSON(ctx context.Context, key string, v interface{}) {
	if h.Cache == nil {
		return
	}
	if raw, err := json.Marshal(v); err == nil {
		h.Cache.Set(ctx, key, raw, catalogCacheTTL)
	}
}

// invalidateCatalog drops the catalog cache entries after admin CRUD.
func (h *Handler) invalidateCatalog(ctx context.Context) {
	if h.Cache != nil {
		h.Cache.Del(ctx, servicesCacheKey, mastersCacheKey)
	}
}

func splitIDs(raw string) []string {
	var ids []string
	for _, tok := range strings.Split(raw, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			ids = append(ids, tok)
		}
	}
	return ids
}
