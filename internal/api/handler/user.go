package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/authcore/authcore/internal/api/middleware"
	"github.com/authcore/authcore/internal/api/response"
	"github.com/authcore/authcore/internal/api/validation"
	"github.com/authcore/authcore/internal/policy"
	"github.com/authcore/authcore/internal/user"
)

type createUserRequest struct {
	Name           string `json:"name"`
	OrganizationID string `json:"organizationId"`
}

type userResponse struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	OrganizationID string       `json:"organizationId"`
	Policies       []policy.Ref `json:"policies,omitempty"`
	CreatedAt      string       `json:"createdAt"`
}

// UserHandler handles user store endpoints.
type UserHandler struct {
	repo user.Repository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(repo user.Repository) *UserHandler {
	return &UserHandler{repo: repo}
}

// Create handles POST /authorization/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateUserRequest(validation.CreateUserRequest{
		Name:           req.Name,
		OrganizationID: req.OrganizationID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	u := &user.User{
		Name:  strings.TrimSpace(req.Name),
		OrgID: req.OrganizationID,
	}

	if err := h.repo.Create(r.Context(), u); err != nil {
		slog.Error("failed to create user", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user", requestID)
		return
	}

	response.Success(w, http.StatusCreated, userResponse{
		ID:             u.ID,
		Name:           u.Name,
		OrganizationID: u.OrgID,
		CreatedAt:      u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}, requestID)
}

// List handles GET /authorization/users?org=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "org query parameter is required", requestID)
		return
	}

	users, err := h.repo.List(r.Context(), orgID)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users", requestID)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, userResponse{
			ID:             u.ID,
			Name:           u.Name,
			OrganizationID: u.OrgID,
			CreatedAt:      u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// Get handles GET /authorization/users/{id}. The response includes the
// user's directly attached policies.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, orgID, ok := userParams(w, r, requestID)
	if !ok {
		return
	}

	detail, err := h.repo.Read(r.Context(), id, orgID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to read user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read user", requestID)
		return
	}

	response.Success(w, http.StatusOK, userResponse{
		ID:             detail.ID,
		Name:           detail.Name,
		OrganizationID: detail.OrgID,
		Policies:       detail.Policies,
		CreatedAt:      detail.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}, requestID)
}

// Delete handles DELETE /authorization/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, orgID, ok := userParams(w, r, requestID)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id, orgID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to delete user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete user", requestID)
		return
	}

	response.NoContent(w)
}

func userParams(w http.ResponseWriter, r *http.Request, requestID string) (int64, string, bool) {
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
