package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound        = errors.New("domain: not found")
	ErrUnauthorized    = errors.New("domain: unauthorized")
	ErrFeatureDisabled = errors.New("domain: feature disabled")
)

// FeatureDisabledError is returned by every entry point of a withdrawn feature.
// Error returns Message verbatim so callers can show it to end users as-is.
type FeatureDisabledError struct {
	Feature Feature
	Message string
}

func (e *FeatureDisabledError) Error() string {
	return e.Message
}

// Is reports ErrFeatureDisabled as a match so callers can use errors.Is.
func (e *FeatureDisabledError) Is(target error) bool {
	return target == ErrFeatureDisabled
}
