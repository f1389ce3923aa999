package domain

import (
	"strconv"
	"strings"

	apperrors "github.com/reqforge/reqforge/internal/errors"
)

// MaxNameLength bounds requirement names.
const MaxNameLength = 200

// Content is the author-editable part of a requirement version.
type Content struct {
	Name        string
	Description string
	// Fields holds the kind-specific values keyed by the spec's field names.
	Fields map[string]string
}

// NormalizeContent trims and validates version content against the kind's
// field schema. Silence placeholders are validated the same way as surfaced
// requirements; only reqId assignment is gated on state.
func NormalizeContent(kind Kind, content Content) (Content, error) {
	spec, err := SpecFor(kind)
	if err != nil {
		return Content{}, apperrors.New(apperrors.CodeRequirementInvalidKind, "unknown requirement kind "+string(kind))
	}

	content.Name = strings.TrimSpace(content.Name)
	content.Description = strings.TrimSpace(content.Description)
	if content.Name == "" {
		return Content{}, apperrors.New(apperrors.CodeRequirementNameEmpty, "requirement name is required")
	}
	if len(content.Name) > MaxNameLength {
		return Content{}, apperrors.WithMetadata(
			apperrors.CodeRequirementNameTooLong,
			"requirement name exceeds maximum length",
			map[string]string{"MaxLength": strconv.Itoa(MaxNameLength)},
		)
	}

	normalized := make(map[string]string, len(content.Fields))
	for key, value := range content.Fields {
		normalized[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	for _, field := range spec.RequiredFields {
		if normalized[field] == "" {
			return Content{}, apperrors.WithMetadata(
				apperrors.CodeRequirementInvalidField,
				"missing required field "+field,
				map[string]string{"Field": field},
			)
		}
	}
	content.Fields = normalized
	return content, nil
}

// InitialState returns the workflow state of a freshly proposed requirement.
func InitialState(kind Kind, placeholder bool) (WorkflowState, error) {
	spec, err := SpecFor(kind)
	if err != nil {
		return "", apperrors.New(apperrors.CodeRequirementInvalidKind, "unknown requirement kind "+string(kind))
	}
	if spec.SilenceOnly || placeholder {
		return StateSilence, nil
	}
	return StateProposed, nil
}
