package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidRequest is returned when a request fails validation
	ErrInvalidRequest = errors.New("invalid request")

	// ErrHandoffUnavailable is returned when no file storage is configured
	ErrHandoffUnavailable = errors.New("hand-off storage not configured")
)

// validationError wraps validator output so callers can match ErrInvalidRequest
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Errorf("%w: field %s failed on %s", ErrInvalidRequest, first.Field(), first.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}
