package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fieldserve/parts-service/internal/auth"
	"github.com/fieldserve/parts-service/internal/request"
	"github.com/fieldserve/parts-service/internal/request/dto"
	"github.com/fieldserve/parts-service/internal/response"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type RequestHandler struct {
	uc       request.UseCase
	validate *validator.Validate
	logger   logger.ZapLogger
}

func NewRequestHandler(uc request.UseCase, validate *validator.Validate, log logger.ZapLogger) *RequestHandler {
	return &RequestHandler{
		uc:       uc,
		validate: validate,
		logger:   log,
	}
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input dto.CreatePartRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.TechnicianID == "" {
		input.TechnicianID = auth.FromRequest(r).ID
	}
	if err := h.validate.Struct(&input); err != nil {
		response.Error(w, err)
		return
	}

	req, err := h.uc.Create(r.Context(), &input)
	if err != nil {
		h.logger.Warn("create part request failed", zap.Error(err))
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, req)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	req, err := h.uc.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, req)
}

type decisionBody struct {
	Comments string `json:"comments"`
	Reason   string `json:"reason"`
}

// decodeOptional parses an optional JSON body. An empty body is fine, a
// malformed one is a 400. Returns false when the response is already written.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request, id string) {
	var body decisionBody
	if !decodeOptional(w, r, &body) {
		return
	}

	actor := auth.FromRequest(r)
	req, err := h.uc.Approve(r.Context(), &dto.DecisionInput{
		RequestID:    id,
		ApproverID:   actor.ID,
		ApproverRank: actor.Rank,
		Comments:     body.Comments,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request, id string) {
	var body decisionBody
	if !decodeOptional(w, r, &body) {
		return
	}

	comments := body.Reason
	if comments == "" {
		comments = body.Comments
	}
	actor := auth.FromRequest(r)
	req, err := h.uc.Reject(r.Context(), &dto.DecisionInput{
		RequestID:    id,
		ApproverID:   actor.ID,
		ApproverRank: actor.Rank,
		Comments:     comments,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Issue(w http.ResponseWriter, r *http.Request, id string) {
	actor := auth.FromRequest(r)
	req, err := h.uc.Issue(r.Context(), id, actor.ID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, req)
}

func (h *RequestHandler) History(w http.ResponseWriter, r *http.Request, id string) {
	history, err := h.uc.ApprovalHistory(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, history)
}

func (h *RequestHandler) Install(w http.ResponseWriter, r *http.Request, serviceID string) {
	var input dto.InstallPartInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input.ServiceRequestID = serviceID
	if input.TechnicianID == "" {
		input.TechnicianID = auth.FromRequest(r).ID
	}
	if err := h.validate.Struct(&input); err != nil {
		response.Error(w, err)
		return
	}

	installed, err := h.uc.Install(r.Context(), &input)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, installed)
}

type returnsBody struct {
	Items []dto.ReturnItem `json:"items"`
}

func (h *RequestHandler) Returns(w http.ResponseWriter, r *http.Request, serviceID string) {
	var body returnsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	actor := auth.FromRequest(r)
	for i := range body.Items {
		if body.Items[i].TechnicianID == "" {
			body.Items[i].TechnicianID = actor.ID
		}
		if err := h.validate.Struct(&body.Items[i]); err != nil {
			response.Error(w, err)
			return
		}
	}

	movements, err := h.uc.ReturnParts(r.Context(), serviceID, body.Items)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, movements)
}

func (h *RequestHandler) ListByService(w http.ResponseWriter, r *http.Request, serviceID string) {
	reqs, err := h.uc.ListByService(r.Context(), serviceID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, reqs)
}

func (h *RequestHandler) ListByTechnician(w http.ResponseWriter, r *http.Request, technicianID string) {
	reqs, err := h.uc.ListByTechnician(r.Context(), technicianID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, reqs)
}
