package source

import (
	"errors"
	"fmt"
)

// UnavailableError reports a data resource that could not be fetched or
// returned a non-success status.
type UnavailableError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("source: %s unavailable: status %d", e.Resource, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("source: %s unavailable: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("source: %s unavailable", e.Resource)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable returns true if err (or any error in its chain) is an
// UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
