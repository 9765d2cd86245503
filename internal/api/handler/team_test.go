package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authcore/authcore/internal/api/handler"
	"github.com/authcore/authcore/internal/policy"
	"github.com/authcore/authcore/internal/team"
)

// mockEngine implements team.Engine with per-method overrides.
type mockEngine struct {
	createFn          func(ctx context.Context, req team.CreateRequest, opts team.CreateOptions) (*team.View, error)
	readFn            func(ctx context.Context, id int64, orgID string) (*team.View, error)
	updateFn          func(ctx context.Context, req team.UpdateRequest) (*team.View, error)
	moveFn            func(ctx context.Context, id int64, parentID *int64, orgID string) (*team.View, error)
	deleteFn          func(ctx context.Context, id int64, orgID string) error
	listOrgFn         func(ctx context.Context, orgID string) ([]team.Team, error)
	replacePoliciesFn func(ctx context.Context, teamID int64, orgID string, policyIDs []int64) ([]policy.Ref, error)
	addPoliciesFn     func(ctx context.Context, teamID int64, orgID string, policyIDs []int64) ([]policy.Ref, error)
	clearPoliciesFn   func(ctx context.Context, teamID int64, orgID string) ([]policy.Ref, error)
	removePolicyFn    func(ctx context.Context, teamID, policyID int64, orgID string) ([]policy.Ref, error)
}

func (m *mockEngine) Create(ctx context.Context, req team.CreateRequest, opts team.CreateOptions) (*team.View, error) {
	return m.createFn(ctx, req, opts)
}

func (m *mockEngine) Read(ctx context.Context, id int64, orgID string) (*team.View, error) {
	return m.readFn(ctx, id, orgID)
}

func (m *mockEngine) Update(ctx context.Context, req team.UpdateRequest) (*team.View, error) {
	return m.updateFn(ctx, req)
}

func (m *mockEngine) Move(ctx context.Context, id int64, parentID *int64, orgID string) (*team.View, error) {
	return m.moveFn(ctx, id, parentID, orgID)
}

func (m *mockEngine) Delete(ctx context.Context, id int64, orgID string) error {
	return m.deleteFn(ctx, id, orgID)
}

func (m *mockEngine) ListOrg(ctx context.Context, orgID string) ([]team.Team, error) {
	return m.listOrgFn(ctx, orgID)
}

func (m *mockEngine) ReplacePolicies(ctx context.Context, teamID int64, orgID string, policyIDs []int64) ([]policy.Ref, error) {
	return m.replacePoliciesFn(ctx, teamID, orgID, policyIDs)
}

func (m *mockEngine) AddPolicies(ctx context.Context, teamID int64, orgID string, policyIDs []int64) ([]policy.Ref, error) {
	return m.addPoliciesFn(ctx, teamID, orgID, policyIDs)
}

func (m *mockEngine) ClearPolicies(ctx context.Context, teamID int64, orgID string) ([]policy.Ref, error) {
	return m.clearPoliciesFn(ctx, teamID, orgID)
}

func (m *mockEngine) RemovePolicy(ctx context.Context, teamID, policyID int64, orgID string) ([]policy.Ref, error) {
	return m.removePolicyFn(ctx, teamID, policyID, orgID)
}

func teamRouter(engine team.Engine) http.Handler {
	h := handler.NewTeamHandler(engine)

	r := chi.NewRouter()
	r.Route("/teams", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Put("/{id}/parent", h.Move)
		r.Post("/{id}/policies", h.ReplacePolicies)
		r.Patch("/{id}/policies", h.AddPolicies)
		r.Delete("/{id}/policies", h.ClearPolicies)
		r.Delete("/{id}/policies/{policyId}", h.RemovePolicy)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func sampleView() *team.View {
	return &team.View{
		Team: team.Team{
			ID:    7,
			Name:  "Team 7",
			OrgID: "WONKA",
			Path:  team.Path{7},
		},
		Policies: []policy.Ref{{ID: 1, Name: "Default Team Admin for 7", Version: "0.1"}},
	}
}

// --- Create ---

func TestTeamCreate_Success(t *testing.T) {
	var gotReq team.CreateRequest
	var gotOpts team.CreateOptions
	engine := &mockEngine{
		createFn: func(_ context.Context, req team.CreateRequest, opts team.CreateOptions) (*team.View, error) {
			gotReq = req
			gotOpts = opts
			return sampleView(), nil
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodPost, "/teams", map[string]any{
		"name":           "Team 7",
		"description":    "desc",
		"organizationId": "WONKA",
		"user":           map[string]any{"name": "Admin"},
		"createOnly":     true,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Team 7", gotReq.Name)
	assert.Equal(t, "WONKA", gotReq.OrgID)
	require.NotNil(t, gotReq.AdminUser)
	assert.Equal(t, "Admin", gotReq.AdminUser.Name)
	assert.True(t, gotOpts.CreateOnly)

	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "7", data["path"])
}

func TestTeamCreate_MissingName(t *testing.T) {
	engine := &mockEngine{}

	rec := doJSON(t, teamRouter(engine), http.MethodPost, "/teams", map[string]any{
		"organizationId": "WONKA",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	errObj, ok := envelope["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestTeamCreate_InvalidJSON(t *testing.T) {
	engine := &mockEngine{}

	req := httptest.NewRequest(http.MethodPost, "/teams", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	teamRouter(engine).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	errObj := envelope["error"].(map[string]any)
	assert.Equal(t, "INVALID_JSON", errObj["code"])
}

func TestTeamCreate_CrossOrganization(t *testing.T) {
	engine := &mockEngine{
		createFn: func(_ context.Context, _ team.CreateRequest, _ team.CreateOptions) (*team.View, error) {
			return nil, team.ErrCrossOrganization
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodPost, "/teams", map[string]any{
		"name":           "Team 7",
		"organizationId": "ACME",
		"parentId":       3,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Get ---

func TestTeamGet_Success(t *testing.T) {
	engine := &mockEngine{
		readFn: func(_ context.Context, id int64, orgID string) (*team.View, error) {
			assert.Equal(t, int64(7), id)
			assert.Equal(t, "WONKA", orgID)
			return sampleView(), nil
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodGet, "/teams/7?org=WONKA", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTeamGet_NotFound(t *testing.T) {
	engine := &mockEngine{
		readFn: func(_ context.Context, _ int64, _ string) (*team.View, error) {
			return nil, team.ErrTeamNotFound
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodGet, "/teams/999?org=WONKA", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec)
	errObj := envelope["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
}

func TestTeamGet_MissingOrgQuery(t *testing.T) {
	engine := &mockEngine{}

	rec := doJSON(t, teamRouter(engine), http.MethodGet, "/teams/7", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamGet_NonIntegerID(t *testing.T) {
	engine := &mockEngine{}

	rec := doJSON(t, teamRouter(engine), http.MethodGet, "/teams/abc?org=WONKA", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	errObj := envelope["error"].(map[string]any)
	assert.Equal(t, "INVALID_ID", errObj["code"])
}

// --- Update ---

func TestTeamUpdate_PassesPartialFields(t *testing.T) {
	var gotReq team.UpdateRequest
	engine := &mockEngine{
		updateFn: func(_ context.Context, req team.UpdateRequest) (*team.View, error) {
			gotReq = req
			return sampleView(), nil
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodPatch, "/teams/7", map[string]any{
		"name":           "Renamed",
		"users":          []int64{1, 2},
		"organizationId": "WONKA",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), gotReq.ID)
	require.NotNil(t, gotReq.Name)
	assert.Equal(t, "Renamed", *gotReq.Name)
	assert.Nil(t, gotReq.Description)
	assert.Equal(t, []int64{1, 2}, gotReq.Users)
}

func TestTeamUpdate_UnknownUsers(t *testing.T) {
	engine := &mockEngine{
		updateFn: func(_ context.Context, _ team.UpdateRequest) (*team.View, error) {
			return nil, team.ErrUnknownUsers
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodPatch, "/teams/7", map[string]any{
		"users":          []int64{999},
		"organizationId": "WONKA",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Move ---

func TestTeamMove_Success(t *testing.T) {
	engine := &mockEngine{
		moveFn: func(_ context.Context, id int64, parentID *int64, orgID string) (*team.View, error) {
			assert.Equal(t, int64(7), id)
			require.NotNil(t, parentID)
			assert.Equal(t, int64(3), *parentID)
			assert.Equal(t, "WONKA", orgID)
			return sampleView(), nil
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodPut, "/teams/7/parent", map[string]any{
		"parentId":       3,
		"organizationId": "WONKA",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTeamMove_NullParentUnNests(t *testing.T) {
	engine := &mockEngine{
		moveFn: func(_ context.Context, _ int64, parentID *int64, _ string) (*team.View, error) {
			assert.Nil(t, parentID)
			return sampleView(), nil
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodPut, "/teams/7/parent", map[string]any{
		"parentId":       nil,
		"organizationId": "WONKA",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTeamMove_Cycle(t *testing.T) {
	engine := &mockEngine{
		moveFn: func(_ context.Context, _ int64, _ *int64, _ string) (*team.View, error) {
			return nil, team.ErrCycle
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodPut, "/teams/7/parent", map[string]any{
		"parentId":       9,
		"organizationId": "WONKA",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Delete ---

func TestTeamDelete_Success(t *testing.T) {
	called := false
	engine := &mockEngine{
		deleteFn: func(_ context.Context, id int64, orgID string) error {
			called = true
			assert.Equal(t, int64(7), id)
			assert.Equal(t, "WONKA", orgID)
			return nil
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodDelete, "/teams/7?org=WONKA", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, called)
	assert.Empty(t, rec.Body.String())
}

// --- Policy-set endpoints ---

func TestTeamReplacePolicies_Success(t *testing.T) {
	engine := &mockEngine{
		replacePoliciesFn: func(_ context.Context, teamID int64, orgID string, policyIDs []int64) ([]policy.Ref, error) {
			assert.Equal(t, int64(7), teamID)
			assert.Equal(t, []int64{2, 3}, policyIDs)
			return []policy.Ref{{ID: 2, Name: "Accountant", Version: "0.1"}, {ID: 3, Name: "Sys admin", Version: "0.1"}}, nil
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodPost, "/teams/7/policies", map[string]any{
		"policies":       []int64{2, 3},
		"organizationId": "WONKA",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestTeamAddPolicies_UnknownPolicy(t *testing.T) {
	engine := &mockEngine{
		addPoliciesFn: func(_ context.Context, _ int64, _ string, _ []int64) ([]policy.Ref, error) {
			return nil, team.ErrUnknownPolicies
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodPatch, "/teams/7/policies", map[string]any{
		"policies":       []int64{999},
		"organizationId": "WONKA",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamClearPolicies_Success(t *testing.T) {
	engine := &mockEngine{
		clearPoliciesFn: func(_ context.Context, teamID int64, orgID string) ([]policy.Ref, error) {
			assert.Equal(t, int64(7), teamID)
			return []policy.Ref{}, nil
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodDelete, "/teams/7/policies?org=WONKA", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].([]any)
	require.True(t, ok)
	assert.Empty(t, data)
}

func TestTeamRemovePolicy_Success(t *testing.T) {
	engine := &mockEngine{
		removePolicyFn: func(_ context.Context, teamID, policyID int64, orgID string) ([]policy.Ref, error) {
			assert.Equal(t, int64(7), teamID)
			assert.Equal(t, int64(2), policyID)
			return []policy.Ref{{ID: 3, Name: "Sys admin", Version: "0.1"}}, nil
		},
	}

	rec := doJSON(t, teamRouter(engine), http.MethodDelete, "/teams/7/policies/2?org=WONKA", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTeamRemovePolicy_NonIntegerPolicyID(t *testing.T) {
	engine := &mockEngine{}

	rec := doJSON(t, teamRouter(engine), http.MethodDelete, "/teams/7/policies/abc?org=WONKA", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
