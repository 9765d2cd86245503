package validation

import "strings"

// CreateTeamRequest mirrors the fields needed for create team validation.
type CreateTeamRequest struct {
	Name           string
	OrganizationID string
}

// ValidateCreateTeamRequest validates the fields of a create team request.
func ValidateCreateTeamRequest(req CreateTeamRequest) []FieldError {
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

	return errs
}

// UpdateTeamRequest mirrors the fields needed for update team validation.
// Nil fields are absent from the request and skipped.
type UpdateTeamRequest struct {
	Name           *string
	OrganizationID string
}

// ValidateUpdateTeamRequest validates the fields of an update team request.
func ValidateUpdateTeamRequest(req UpdateTeamRequest) []FieldError {
	var errs []FieldError

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			errs = append(errs, FieldError{Field: "name", Message: "name must not be empty"})
		} else if len(name) > 255 {
			errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
		}
	}

	if strings.TrimSpace(req.OrganizationID) == "" {
		errs = append(errs, FieldError{Field: "organizationId", Message: "organizationId is required"})
	}

	return errs
}
