package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fieldserve/parts-service/internal/costing"
	"github.com/fieldserve/parts-service/internal/response"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/shopspring/decimal"
)

type CostingHandler struct {
	uc     costing.UseCase
	logger logger.ZapLogger
}

func NewCostingHandler(uc costing.UseCase, log logger.ZapLogger) *CostingHandler {
	return &CostingHandler{
		uc:     uc,
		logger: log,
	}
}

type computeBody struct {
	LaborHours decimal.Decimal `json:"labor_hours"`
}

// Compute settles POST /services/{id}/cost. Repeat calls return the stored
// breakdown with 200 instead of recomputing.
func (h *CostingHandler) Compute(w http.ResponseWriter, r *http.Request, serviceID string) {
	var body computeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.LaborHours.IsNegative() {
		http.Error(w, "labor_hours must not be negative", http.StatusBadRequest)
		return
	}

	existing, err := h.uc.GetByService(r.Context(), serviceID)
	if err != nil {
		response.Error(w, err)
		return
	}

	breakdown, err := h.uc.Compute(r.Context(), serviceID, body.LaborHours)
	if err != nil {
		response.Error(w, err)
		return
	}

	status := http.StatusCreated
	if existing != nil {
		status = http.StatusOK
	}
	response.JSON(w, status, breakdown)
}

func (h *CostingHandler) Get(w http.ResponseWriter, r *http.Request, serviceID string) {
	breakdown, err := h.uc.GetByService(r.Context(), serviceID)
	if err != nil {
		response.Error(w, err)
		return
	}
	if breakdown == nil {
		http.NotFound(w, r)
		return
	}
	response.JSON(w, http.StatusOK, breakdown)
}
