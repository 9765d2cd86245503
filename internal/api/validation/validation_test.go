package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authcore/authcore/internal/api/validation"
)

func fieldNames(errs []validation.FieldError) []string {
	if len(errs) == 0 {
		return nil
	}
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		names = append(names, e.Field)
	}
	return names
}

func TestValidateCreateTeamRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        validation.CreateTeamRequest
		wantFields []string
	}{
		{
			name:       "valid",
			req:        validation.CreateTeamRequest{Name: "Team 1", OrganizationID: "WONKA"},
			wantFields: nil,
		},
		{
			name:       "missing name",
			req:        validation.CreateTeamRequest{OrganizationID: "WONKA"},
			wantFields: []string{"name"},
		},
		{
			name:       "whitespace name",
			req:        validation.CreateTeamRequest{Name: "   ", OrganizationID: "WONKA"},
			wantFields: []string{"name"},
		},
		{
			name:       "name too long",
			req:        validation.CreateTeamRequest{Name: strings.Repeat("x", 256), OrganizationID: "WONKA"},
			wantFields: []string{"name"},
		},
		{
			name:       "missing organization",
			req:        validation.CreateTeamRequest{Name: "Team 1"},
			wantFields: []string{"organizationId"},
		},
		{
			name:       "everything missing",
			req:        validation.CreateTeamRequest{},
			wantFields: []string{"name", "organizationId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validation.ValidateCreateTeamRequest(tt.req)
			assert.Equal(t, tt.wantFields, fieldNames(errs))
		})
	}
}

func TestValidateUpdateTeamRequest(t *testing.T) {
	empty := ""
	valid := "Team 2"

	errs := validation.ValidateUpdateTeamRequest(validation.UpdateTeamRequest{Name: &valid, OrganizationID: "WONKA"})
	assert.Empty(t, errs)

	// Omitted name is fine: partial update.
	errs = validation.ValidateUpdateTeamRequest(validation.UpdateTeamRequest{OrganizationID: "WONKA"})
	assert.Empty(t, errs)

	// Present but empty name is rejected.
	errs = validation.ValidateUpdateTeamRequest(validation.UpdateTeamRequest{Name: &empty, OrganizationID: "WONKA"})
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)

	errs = validation.ValidateUpdateTeamRequest(validation.UpdateTeamRequest{Name: &valid})
	require.Len(t, errs, 1)
	assert.Equal(t, "organizationId", errs[0].Field)
}

func TestValidatePolicyIDsRequest(t *testing.T) {
	errs := validation.ValidatePolicyIDsRequest(validation.PolicyIDsRequest{Policies: []int64{1, 2}, OrganizationID: "WONKA"})
	assert.Empty(t, errs)

	errs = validation.ValidatePolicyIDsRequest(validation.PolicyIDsRequest{OrganizationID: "WONKA"})
	require.Len(t, errs, 1)
	assert.Equal(t, "policies", errs[0].Field)

	errs = validation.ValidatePolicyIDsRequest(validation.PolicyIDsRequest{Policies: []int64{0}, OrganizationID: "WONKA"})
	require.Len(t, errs, 1)
	assert.Equal(t, "policies", errs[0].Field)

	errs = validation.ValidatePolicyIDsRequest(validation.PolicyIDsRequest{Policies: []int64{1}})
	require.Len(t, errs, 1)
	assert.Equal(t, "organizationId", errs[0].Field)
}

func TestValidateCreatePolicyRequest(t *testing.T) {
	errs := validation.ValidateCreatePolicyRequest(validation.CreatePolicyRequest{
		Name:           "Accountant",
		OrganizationID: "WONKA",
		Statements:     []byte(`{"Statement":[]}`),
	})
	assert.Empty(t, errs)

	errs = validation.ValidateCreatePolicyRequest(validation.CreatePolicyRequest{
		Name:           "Accountant",
		OrganizationID: "WONKA",
		Statements:     []byte(`{not json`),
	})
	require.Len(t, errs, 1)
	assert.Equal(t, "statements", errs[0].Field)
}

func TestValidateCreateOrganizationRequest(t *testing.T) {
	errs := validation.ValidateCreateOrganizationRequest(validation.CreateOrganizationRequest{ID: "WONKA", Name: "Wonka"})
	assert.Empty(t, errs)

	errs = validation.ValidateCreateOrganizationRequest(validation.CreateOrganizationRequest{ID: "has spaces", Name: "Wonka"})
	require.Len(t, errs, 1)
	assert.Equal(t, "id", errs[0].Field)

	errs = validation.ValidateCreateOrganizationRequest(validation.CreateOrganizationRequest{Name: "Wonka"})
	require.Len(t, errs, 1)
	assert.Equal(t, "id", errs[0].Field)

	errs = validation.ValidateCreateOrganizationRequest(validation.CreateOrganizationRequest{ID: "WONKA"})
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
}
