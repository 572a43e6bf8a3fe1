package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/docexport/internal/domain"
)

// featureError maps a guard failure to a problem response. A disabled
// feature is 501 with the user-facing message as detail.
func featureError(err error, fallback string) error {
	var fde *domain.FeatureDisabledError
	if errors.As(err, &fde) {
		return huma.Error501NotImplemented(fde.Message)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return huma.Error404NotFound(fallback)
	}
	return huma.Error500InternalServerError(fallback, err)
}
