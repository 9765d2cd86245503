package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/authcore/authcore/internal/api/middleware"
	"github.com/authcore/authcore/internal/api/response"
	"github.com/authcore/authcore/internal/api/validation"
	"github.com/authcore/authcore/internal/organization"
	"github.com/authcore/authcore/internal/policy"
	"github.com/authcore/authcore/internal/team"
	"github.com/authcore/authcore/internal/user"
)

type createTeamRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	ParentID       *int64  `json:"parentId"`
	OrganizationID string  `json:"organizationId"`
	User           *struct {
		Name string `json:"name"`
	} `json:"user"`
	CreateOnly bool `json:"createOnly"`
}

type updateTeamRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Users          []int64 `json:"users"`
	OrganizationID string  `json:"organizationId"`
}

type moveTeamRequest struct {
	ParentID       *int64 `json:"parentId"`
	OrganizationID string `json:"organizationId"`
}

type teamPoliciesRequest struct {
	Policies       []int64 `json:"policies"`
	OrganizationID string  `json:"organizationId"`
}

type teamResponse struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	OrganizationID string       `json:"organizationId"`
	ParentID       *int64       `json:"parentId"`
	Path           string       `json:"path"`
	Users          []user.Ref   `json:"users"`
	Policies       []policy.Ref `json:"policies"`
	CreatedAt      string       `json:"createdAt"`
	UpdatedAt      string       `json:"updatedAt"`
}

type teamSummaryResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	OrganizationID string `json:"organizationId"`
	ParentID       *int64 `json:"parentId"`
	Path           string `json:"path"`
}

func toTeamResponse(v *team.View) teamResponse {
	return teamResponse{
		ID:             v.ID,
		Name:           v.Name,
		Description:    v.Description,
		OrganizationID: v.OrgID,
		ParentID:       v.ParentID,
		Path:           v.Path.String(),
		Users:          v.Users,
		Policies:       v.Policies,
		CreatedAt:      v.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:      v.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// TeamHandler handles team lifecycle and policy-set endpoints.
type TeamHandler struct {
	engine team.Engine
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(engine team.Engine) *TeamHandler {
	return &TeamHandler{engine: engine}
}

// Create handles POST /authorization/teams.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{
		Name:           req.Name,
		OrganizationID: req.OrganizationID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	createReq := team.CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		OrgID:       req.OrganizationID,
	}
	if req.User != nil {
		createReq.AdminUser = &team.AdminUserSpec{Name: req.User.Name}
	}

	view, err := h.engine.Create(r.Context(), createReq, team.CreateOptions{CreateOnly: req.CreateOnly})
	if err != nil {
		h.respondError(w, err, "Failed to create team", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toTeamResponse(view), requestID)
}

// Get handles GET /authorization/teams/{id}.
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, orgID, ok := teamParams(w, r, requestID)
	if !ok {
		return
	}

	view, err := h.engine.Read(r.Context(), id, orgID)
	if err != nil {
		h.respondError(w, err, "Failed to read team", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTeamResponse(view), requestID)
}

// List handles GET /authorization/teams?org=.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "org query parameter is required", requestID)
		return
	}

	teams, err := h.engine.ListOrg(r.Context(), orgID)
	if err != nil {
		h.respondError(w, err, "Failed to list teams", requestID)
		return
	}

	items := make([]teamSummaryResponse, 0, len(teams))
	for i := range teams {
		t := &teams[i]
		items = append(items, teamSummaryResponse{
			ID:             t.ID,
			Name:           t.Name,
			Description:    t.Description,
			OrganizationID: t.OrgID,
			ParentID:       t.ParentID,
			Path:           t.Path.String(),
		})
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// Update handles PATCH /authorization/teams/{id}.
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := teamID(w, r, requestID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateTeamRequest(validation.UpdateTeamRequest{
		Name:           req.Name,
		OrganizationID: req.OrganizationID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	view, err := h.engine.Update(r.Context(), team.UpdateRequest{
		ID:          id,
		OrgID:       req.OrganizationID,
		Name:        req.Name,
		Description: req.Description,
		Users:       req.Users,
	})
	if err != nil {
		h.respondError(w, err, "Failed to update team", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTeamResponse(view), requestID)
}

// Move handles PUT /authorization/teams/{id}/parent.
func (h *TeamHandler) Move(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := teamID(w, r, requestID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req moveTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if req.OrganizationID == "" {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "organizationId is required", requestID)
		return
	}

	view, err := h.engine.Move(r.Context(), id, req.ParentID, req.OrganizationID)
	if err != nil {
		h.respondError(w, err, "Failed to move team", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTeamResponse(view), requestID)
}

// Delete handles DELETE /authorization/teams/{id}.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, orgID, ok := teamParams(w, r, requestID)
	if !ok {
		return
	}

	if err := h.engine.Delete(r.Context(), id, orgID); err != nil {
		h.respondError(w, err, "Failed to delete team", requestID)
		return
	}

	response.NoContent(w)
}

// ReplacePolicies handles POST /authorization/teams/{id}/policies.
func (h *TeamHandler) ReplacePolicies(w http.ResponseWriter, r *http.Request) {
	h.mutatePolicies(w, r, h.engine.ReplacePolicies)
}

// AddPolicies handles PATCH /authorization/teams/{id}/policies.
func (h *TeamHandler) AddPolicies(w http.ResponseWriter, r *http.Request) {
	h.mutatePolicies(w, r, h.engine.AddPolicies)
}

// ClearPolicies handles DELETE /authorization/teams/{id}/policies.
func (h *TeamHandler) ClearPolicies(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, orgID, ok := teamParams(w, r, requestID)
	if !ok {
		return
	}

	refs, err := h.engine.ClearPolicies(r.Context(), id, orgID)
	if err != nil {
		h.respondError(w, err, "Failed to delete team policies", requestID)
		return
	}

	response.Success(w, http.StatusOK, refs, requestID)
}

// RemovePolicy handles DELETE /authorization/teams/{id}/policies/{policyId}.
func (h *TeamHandler) RemovePolicy(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, orgID, ok := teamParams(w, r, requestID)
	if !ok {
		return
	}

	policyID, err := strconv.ParseInt(chi.URLParam(r, "policyId"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "policyId must be an integer", requestID)
		return
	}

	refs, err := h.engine.RemovePolicy(r.Context(), id, policyID, orgID)
	if err != nil {
		h.respondError(w, err, "Failed to delete team policy", requestID)
		return
	}

	response.Success(w, http.StatusOK, refs, requestID)
}

type policySetOp func(ctx context.Context, teamID int64, orgID string, policyIDs []int64) ([]policy.Ref, error)

func (h *TeamHandler) mutatePolicies(w http.ResponseWriter, r *http.Request, op policySetOp) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := teamID(w, r, requestID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req teamPoliciesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidatePolicyIDsRequest(validation.PolicyIDsRequest{
		Policies:       req.Policies,
		OrganizationID: req.OrganizationID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	refs, err := op(r.Context(), id, req.OrganizationID, req.Policies)
	if err != nil {
		h.respondError(w, err, "Failed to update team policies", requestID)
		return
	}

	response.Success(w, http.StatusOK, refs, requestID)
}

func (h *TeamHandler) respondError(w http.ResponseWriter, err error, message, requestID string) {
	switch {
	case errors.Is(err, team.ErrTeamNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
	case errors.Is(err, organization.ErrNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Organization not found", requestID)
	case errors.Is(err, team.ErrMissingOrganization),
		errors.Is(err, team.ErrCrossOrganization),
		errors.Is(err, team.ErrCycle),
		errors.Is(err, team.ErrUnknownPolicies),
		errors.Is(err, team.ErrUnknownUsers):
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
	default:
		slog.Error("team operation failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", message, requestID)
	}
}

func teamID(w http.ResponseWriter, r *http.Request, requestID string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be an integer", requestID)
		return 0, false
	}
	return id, true
}

func teamParams(w http.ResponseWriter, r *http.Request, requestID string) (int64, string, bool) {
	id, ok := teamID(w, r, requestID)
	if !ok {
		return 0, "", false
	}

	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "org query parameter is required", requestID)
		return 0, "", false
	}

	return id, orgID, true
}
