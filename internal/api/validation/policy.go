package validation

import (
	"encoding/json"
	"strings"
)

// CreatePolicyRequest mirrors the fields needed for create policy validation.
type CreatePolicyRequest struct {
	Name           string
	OrganizationID string
	Statements     json.RawMessage
}

// ValidateCreatePolicyRequest validates the fields of a create policy request.
func ValidateCreatePolicyRequest(req CreatePolicyRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	if strings.TrimSpace(req.OrganizationID) == "" {
		errs = append(errs, FieldError{Field: "organizationId", Message: "organizationId is required"})
	}

	if len(req.Statements) > 0 && !json.Valid(req.Statements) {
		errs = append(errs, FieldError{Field: "statements", Message: "statements must be valid JSON"})
	}

	return errs
}

// PolicyIDsRequest mirrors the fields of a policy-set mutation request.
type PolicyIDsRequest struct {
	Policies       []int64
	OrganizationID string
}

// ValidatePolicyIDsRequest validates a replace/add policy-set request.
func ValidatePolicyIDsRequest(req PolicyIDsRequest) []FieldError {
	var errs []FieldError

	if len(req.Policies) == 0 {
		errs = append(errs, FieldError{Field: "policies", Message: "policies is required"})
	}
	for _, id := range req.Policies {
		if id <= 0 {
			errs = append(errs, FieldError{Field: "policies", Message: "policy ids must be positive"})
			break
		}
	}

	if strings.TrimSpace(req.OrganizationID) == "" {
		errs = append(errs, FieldError{Field: "organizationId", Message: "organizationId is required"})
	}

	return errs
}
