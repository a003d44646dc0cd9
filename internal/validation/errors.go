package validation

import (
	"errors"
	"fmt"

	"veriform/internal/domain"
)

var (
	ErrDispatchTimeout      = errors.New("validation dispatch timed out")
	ErrDispatchServiceError = errors.New("validation service returned an error")
	ErrDispatchNetwork      = errors.New("validation service unreachable")
)

// DispatchError is a classified failure to hand a submission to the AI workflow.
// Message is the text stored on the failed validation record.
type DispatchError struct {
	Type       domain.ValidationErrorType
	Message    string
	StatusCode int
	Err        error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes both the sentinel for Type and the underlying cause.
func (e *DispatchError) Unwrap() []error {
	errs := []error{sentinelFor(e.Type)}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func sentinelFor(t domain.ValidationErrorType) error {
	switch t {
	case domain.ValidationErrorTimeout:
		return ErrDispatchTimeout
	case domain.ValidationErrorService:
		return ErrDispatchServiceError
	}
	return ErrDispatchNetwork
}

// Classify returns the error type and message for any dispatch error.
// Unclassified errors count as network errors.
func Classify(err error) (domain.ValidationErrorType, string) {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Type, de.Message
	}
	return domain.ValidationErrorNetwork, "network error reaching the validation service"
}
