package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/authcore/authcore/internal/api/middleware"
	"github.com/authcore/authcore/internal/api/response"
	"github.com/authcore/authcore/internal/api/validation"
	"github.com/authcore/authcore/internal/organization"
)

type createOrganizationRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type organizationResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

func toOrganizationResponse(org *organization.Organization) organizationResponse {
	return organizationResponse{
		ID:          org.ID,
		Name:        org.Name,
		Description: org.Description,
		CreatedAt:   org.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// OrganizationHandler handles organization CRUD endpoints.
type OrganizationHandler struct {
	repo organization.Repository
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(repo organization.Repository) *OrganizationHandler {
	return &OrganizationHandler{repo: repo}
}

// Create handles POST /authorization/organizations.
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateOrganizationRequest(validation.CreateOrganizationRequest{
		ID:   req.ID,
		Name: req.Name,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	org := &organization.Organization{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.repo.Create(r.Context(), org); err != nil {
		if errors.Is(err, organization.ErrDuplicateID) {
			response.Err(w, http.StatusConflict, "DUPLICATE_ID", fmt.Sprintf("An organization with id %q already exists", req.ID), requestID)
			return
		}
		slog.Error("failed to create organization", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create organization", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toOrganizationResponse(org), requestID)
}

// List handles GET /authorization/organizations.
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	orgs, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("failed to list organizations", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list organizations", requestID)
		return
	}

	items := make([]organizationResponse, 0, len(orgs))
	for i := range orgs {
		items = append(items, toOrganizationResponse(&orgs[i]))
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// Get handles GET /authorization/organizations/{id}.
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := chi.URLParam(r, "id")

	org, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, organization.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Organization not found", requestID)
			return
		}
		slog.Error("failed to read organization", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read organization", requestID)
		return
	}

	response.Success(w, http.StatusOK, toOrganizationResponse(org), requestID)
}

// Delete handles DELETE /authorization/organizations/{id}.
func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, organization.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Organization not found", requestID)
			return
		}
		if errors.Is(err, organization.ErrHasTeams) {
			response.Err(w, http.StatusConflict, "ORGANIZATION_HAS_TEAMS", "Cannot delete an organization that still has teams", requestID)
			return
		}
		slog.Error("failed to delete organization", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete organization", requestID)
		return
	}

	response.NoContent(w)
}
