package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/authcore/authcore/internal/api/middleware"
	"github.com/authcore/authcore/internal/api/response"
	"github.com/authcore/authcore/internal/api/validation"
	"github.com/authcore/authcore/internal/policy"
)

type createPolicyRequest struct {
	Name           string          `json:"name"`
	Version        string          `json:"version"`
	OrganizationID string          `json:"organizationId"`
	Statements     json.RawMessage `json:"statements"`
}

type policyResponse struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Version        string          `json:"version"`
	OrganizationID string          `json:"organizationId"`
	OwnerTeamID    *int64          `json:"ownerTeamId,omitempty"`
	Statements     json.RawMessage `json:"statements"`
}

func toPolicyResponse(p *policy.Policy) policyResponse {
	return policyResponse{
		ID:             p.ID,
		Name:           p.Name,
		Version:        p.Version,
		OrganizationID: p.OrgID,
		OwnerTeamID:    p.OwnerTeamID,
		Statements:     json.RawMessage(p.Statements),
	}
}

// PolicyHandler handles policy store endpoints.
type PolicyHandler struct {
	repo policy.Repository
}

// NewPolicyHandler creates a new PolicyHandler.
func NewPolicyHandler(repo policy.Repository) *PolicyHandler {
	return &PolicyHandler{repo: repo}
}

// Create handles POST /authorization/policies.
func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreatePolicyRequest(validation.CreatePolicyRequest{
		Name:           req.Name,
		OrganizationID: req.OrganizationID,
		Statements:     req.Statements,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	p := &policy.Policy{
		Name:       req.Name,
		Version:    req.Version,
		OrgID:      req.OrganizationID,
		Statements: req.Statements,
	}

	if err := h.repo.Create(r.Context(), p); err != nil {
		slog.Error("failed to create policy", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create policy", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toPolicyResponse(p), requestID)
}

// List handles GET /authorization/policies?org=.
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "org query parameter is required", requestID)
		return
	}

	refs, err := h.repo.ListByOrganization(r.Context(), orgID)
	if err != nil {
		slog.Error("failed to list policies", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list policies", requestID)
		return
	}

	response.Success(w, http.StatusOK, refs, requestID)
}

// Get handles GET /authorization/policies/{id}.
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, orgID, ok := policyParams(w, r, requestID)
	if !ok {
		return
	}

	p, err := h.repo.GetByID(r.Context(), id, orgID)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Policy not found", requestID)
			return
		}
		slog.Error("failed to read policy", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read policy", requestID)
		return
	}

	response.Success(w, http.StatusOK, toPolicyResponse(p), requestID)
}

// Delete handles DELETE /authorization/policies/{id}.
func (h *PolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, orgID, ok := policyParams(w, r, requestID)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id, orgID); err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Policy not found", requestID)
			return
		}
		slog.Error("failed to delete policy", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete policy", requestID)
		return
	}

	response.NoContent(w)
}

func policyParams(w http.ResponseWriter, r *http.Request, requestID string) (int64, string, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be an integer", requestID)
		return 0, "", false
	}

	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "org query parameter is required", requestID)
		return 0, "", false
	}

	return id, orgID, true
}
