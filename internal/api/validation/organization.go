package validation

import (
	"regexp"
	"strings"
)

var orgIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// CreateOrganizationRequest mirrors the fields needed for create organization
// validation.
type CreateOrganizationRequest struct {
	ID   string
	Name string
}

// ValidateCreateOrganizationRequest validates the fields of a create
// organization request.
func ValidateCreateOrganizationRequest(req CreateOrganizationRequest) []FieldError {
	var errs []FieldError

	if req.ID == "" {
		errs = append(errs, FieldError{Field: "id", Message: "id is required"})
	} else if !orgIDPattern.MatchString(req.ID) {
		errs = append(errs, FieldError{Field: "id", Message: "id must be 1-64 characters of letters, digits, hyphens or underscores"})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	return errs
}
