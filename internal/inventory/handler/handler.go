package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fieldserve/parts-service/internal/inventory"
	"github.com/fieldserve/parts-service/internal/inventory/dto"
	"github.com/fieldserve/parts-service/internal/response"
	"github.com/fieldserve/parts-service/pkg/logger"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

// Availability answers GET /stock/availability?spare_part_id=&store_id=&quantity=.
func (h *InventoryHandler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	partID := q.Get("spare_part_id")
	storeID := q.Get("store_id")
	if partID == "" || storeID == "" {
		http.Error(w, "spare_part_id and store_id required", http.StatusBadRequest)
		return
	}
	quantity, err := strconv.Atoi(q.Get("quantity"))
	if err != nil || quantity <= 0 {
		http.Error(w, "quantity must be a positive integer", http.StatusBadRequest)
		return
	}

	result, err := h.uc.CheckAvailability(r.Context(), partID, storeID, quantity)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *InventoryHandler) Movements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &dto.MovementFilters{
		SparePartID:  q.Get("spare_part_id"),
		StoreID:      q.Get("store_id"),
		MovementType: q.Get("movement_type"),
		Page:         intQuery(q.Get("page"), 1),
		PageSize:     intQuery(q.Get("page_size"), 20),
	}
	if v := q.Get("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.StartDate = &t
		}
	}
	if v := q.Get("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.EndDate = &t
		}
	}

	movements, total, err := h.uc.ListMovements(r.Context(), filters)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"movements": movements,
		"total":     total,
	})
}

// LowStock lists levels at or below their part's reorder threshold.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	levels, total, err := h.uc.ListLowStock(r.Context(), q.Get("store_id"),
		intQuery(q.Get("page"), 1), intQuery(q.Get("page_size"), 20))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"levels": levels,
		"total":  total,
	})
}

func intQuery(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
