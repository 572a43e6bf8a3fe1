package domain

import "fmt"

type Feature string

const (
	FeatureWordExport   Feature = "word_export"
	FeatureWordDocument Feature = "word_document"
)

type FeatureState string

// FeatureStateDisabled is the only state a withdrawn feature can be in.
const FeatureStateDisabled FeatureState = "disabled"

// FeatureStatus describes how a feature presents itself to callers.
type FeatureStatus struct {
	Feature    Feature      `json:"feature"`
	State      FeatureState `json:"state"`
	Message    string       `json:"message"`
	Diagnostic string       `json:"diagnostic"`
}

//nolint:gochecknoglobals // immutable catalog
var featureCatalog = []FeatureStatus{
	{
		Feature:    FeatureWordExport,
		State:      FeatureStateDisabled,
		Message:    "Word export functionality is not available.",
		Diagnostic: "Word export functionality is disabled",
	},
	{
		Feature:    FeatureWordDocument,
		State:      FeatureStateDisabled,
		Message:    "Word document creation is not available.",
		Diagnostic: "Word document creation is disabled",
	},
}

// Features returns every known feature in a stable order.
func Features() []Feature {
	out := make([]Feature, 0, len(featureCatalog))
	for _, s := range featureCatalog {
		out = append(out, s.Feature)
	}
	return out
}

// Statuses returns a copy of the feature catalog.
func Statuses() []FeatureStatus {
	out := make([]FeatureStatus, len(featureCatalog))
	copy(out, featureCatalog)
	return out
}

// StatusOf looks up a feature by name.
func StatusOf(f Feature) (FeatureStatus, error) {
	for _, s := range featureCatalog {
		if s.Feature == f {
			return s, nil
		}
	}
	return FeatureStatus{}, fmt.Errorf("feature %q: %w", f, ErrNotFound)
}

// Disabled builds the error returned for f. Unknown features still produce a
// FeatureDisabledError with a generic message.
func (f Feature) Disabled() *FeatureDisabledError {
	s, err := StatusOf(f)
	if err != nil {
		return &FeatureDisabledError{Feature: f, Message: string(f) + " is not available."}
	}
	return &FeatureDisabledError{Feature: f, Message: s.Message}
}
