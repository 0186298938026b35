package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// ErrNoValidItems is returned by Validate when no item has both a name and a value.
var ErrNoValidItems = errors.New("add at least one valid name/value pair")

// ValidationError reports required connection fields that were left blank.
type ValidationError struct {
	Missing []string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// describeError reduces err to the text shown in a result entry: the
// server-provided message for GitHub API errors, the error text otherwise.
func describeError(err error) string {
	var apiErr *driven.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
