//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SubmitRequest is the body of a submission. BlogURL is accepted as an
// alias for URL; URL wins when both are set.
type SubmitRequest struct {
	URL     string `json:"url,omitempty"`
	BlogURL string `json:"blogUrl,omitempty"`
}

type submitTarget struct {
	URL string `validate:"required,url"`
}

// Target returns the submitted URL, trimmed.
func (r *SubmitRequest) Target() string {
	if u := strings.TrimSpace(r.URL); u != "" {
		return u
	}
	return strings.TrimSpace(r.BlogURL)
}

// Validate validates the SubmitRequest using the validator.
func (r *SubmitRequest) Validate() error {
	return validate.Struct(submitTarget{URL: r.Target()})
}
