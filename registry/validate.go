package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// FieldError represents a validation failure for a specific field.
type FieldError struct {
	Field   string // Field path (e.g., "maintainers[0].github")
	Message string // Human-readable error message
}

func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []*FieldError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&b, "\n  - %s", err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying errors for errors.Is/As compatibility.
func (e *ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Add appends a validation error.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &FieldError{Field: field, Message: message})
}

// ToError returns nil if no errors, otherwise returns self.
func (e *ValidationErrors) ToError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// GitHub username: alphanumeric and hyphens
var githubUsernamePattern = regexp.MustCompile(`^[-a-zA-Z0-9]*$`)

// Validate checks that the Metadata is usable by the resolver.
// Returns nil if valid, or ValidationErrors containing all issues found.
func (m *Metadata) Validate() error {
	var errs ValidationErrors

	if len(m.Versions) == 0 {
		errs.Add("versions", "required field is missing or empty")
	}
	seen := make(map[string]bool, len(m.Versions))
	for i, v := range m.Versions {
		if _, err := version.Parse(v); err != nil {
			errs.Add(fmt.Sprintf("versions[%d]", i), err.Error())
		}
		if seen[v] {
			errs.Add(fmt.Sprintf("versions[%d]", i), fmt.Sprintf("duplicate version %q", v))
		}
		seen[v] = true
	}

	// Cross-field validation: yanked versions must exist in versions
	for v := range m.YankedVersions {
		if !seen[v] {
			errs.Add(
				fmt.Sprintf("yanked_versions[%q]", v),
				"yanked version does not exist in versions list",
			)
		}
	}

	for i, mt := range m.Maintainers {
		if mt.GitHub != "" && !githubUsernamePattern.MatchString(mt.GitHub) {
			errs.Add(fmt.Sprintf("maintainers[%d].github", i),
				"must contain only alphanumeric characters and hyphens")
		}
	}

	return errs.ToError()
}

// ValidateMetadataJSON decodes raw JSON as Metadata, rejecting unknown
// fields, and validates the result.
func ValidateMetadataJSON(data []byte) (*Metadata, error) {
	var m Metadata
	if err := unmarshalStrict(data, &m); err != nil {
		return nil, &FieldError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// decodeMetadata decodes metadata.json, validating it when strict is set.
func decodeMetadata(data []byte, strict bool) (*Metadata, error) {
	if strict {
		return ValidateMetadataJSON(data)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// unmarshalStrict unmarshals JSON with strict settings (disallow unknown fields).
func unmarshalStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
