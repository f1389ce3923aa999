package domain

import (
	"errors"
	"strings"
)

// Kind identifies one requirement kind from the closed set.
type Kind string

const (
	// KindUnspecified represents an invalid kind value.
	KindUnspecified Kind = ""
	// KindGoal is a goal statement in the goals family.
	KindGoal Kind = "GOAL"
	// KindObstacle is an obstacle to a goal.
	KindObstacle Kind = "OBSTACLE"
	// KindStakeholder is a stakeholder statement in the project family.
	KindStakeholder Kind = "STAKEHOLDER"
	// KindPersona is a representative user description.
	KindPersona Kind = "PERSONA"
	// KindUseCase is an environment-family use case.
	KindUseCase Kind = "USE_CASE"
	// KindBehavior is an environment-family behavior statement.
	KindBehavior Kind = "BEHAVIOR"
	// KindConstraint is a system-family constraint.
	KindConstraint Kind = "CONSTRAINT"
	// KindGlossaryTerm is a system-family glossary definition.
	KindGlossaryTerm Kind = "GLOSSARY_TERM"
	// KindParsedRequirements is a placeholder container produced by the
	// natural-language parser. It never surfaces and is never reviewed.
	KindParsedRequirements Kind = "PARSED_REQUIREMENTS"
)

// Family groups kinds into the prefix families used by reqIds.
type Family string

const (
	FamilyGoals       Family = "G"
	FamilyProject     Family = "P"
	FamilyEnvironment Family = "E"
	FamilySystem      Family = "S"
)

// ErrUnknownKind indicates a kind outside the closed set.
var ErrUnknownKind = errors.New("unknown requirement kind")

// KindSpec describes the static configuration of one requirement kind.
type KindSpec struct {
	Kind   Kind
	Family Family
	// Prefix is the reqId prefix for the kind, e.g. "E.2.". Empty for
	// kinds that never receive a reqId.
	Prefix string
	// SilenceOnly kinds stay in Silence and cannot be surfaced or reviewed.
	SilenceOnly bool
	// RequiredCategories must all be Approved before activation.
	RequiredCategories []Category
	// RequiredFields are the kind-specific field keys that must be present.
	RequiredFields []string
}

// Reviewable reports whether requirements of this kind move through Review.
func (s KindSpec) Reviewable() bool {
	return !s.SilenceOnly
}

var kindSpecs = map[Kind]KindSpec{
	KindGoal: {
		Kind:               KindGoal,
		Family:             FamilyGoals,
		Prefix:             "G.1.",
		RequiredCategories: fullCategorySet(),
		RequiredFields:     []string{"priority"},
	},
	KindObstacle: {
		Kind:               KindObstacle,
		Family:             FamilyGoals,
		Prefix:             "G.2.",
		RequiredCategories: fullCategorySet(),
		RequiredFields:     []string{"goal_ref"},
	},
	KindStakeholder: {
		Kind:               KindStakeholder,
		Family:             FamilyProject,
		Prefix:             "P.1.",
		RequiredCategories: proseCategorySet(),
		RequiredFields:     []string{"role"},
	},
	KindPersona: {
		Kind:               KindPersona,
		Family:             FamilyProject,
		Prefix:             "P.2.",
		RequiredCategories: proseCategorySet(),
		RequiredFields:     nil,
	},
	KindUseCase: {
		Kind:               KindUseCase,
		Family:             FamilyEnvironment,
		Prefix:             "E.1.",
		RequiredCategories: fullCategorySet(),
		RequiredFields:     []string{"actor", "outcome"},
	},
	KindBehavior: {
		Kind:               KindBehavior,
		Family:             FamilyEnvironment,
		Prefix:             "E.2.",
		RequiredCategories: fullCategorySet(),
		RequiredFields:     []string{"trigger", "response"},
	},
	KindConstraint: {
		Kind:               KindConstraint,
		Family:             FamilySystem,
		Prefix:             "S.1.",
		RequiredCategories: fullCategorySet(),
		RequiredFields:     nil,
	},
	KindGlossaryTerm: {
		Kind:   KindGlossaryTerm,
		Family: FamilySystem,
		Prefix: "S.2.",
		RequiredCategories: []Category{
			CategoryRole,
			CategoryReadability,
			CategoryConsistency,
			CategoryRedundancy,
			CategoryConciseness,
		},
		RequiredFields: []string{"definition"},
	},
	KindParsedRequirements: {
		Kind:        KindParsedRequirements,
		SilenceOnly: true,
	},
}

// SpecFor returns the static configuration for a kind.
func SpecFor(kind Kind) (KindSpec, error) {
	spec, ok := kindSpecs[kind]
	if !ok {
		return KindSpec{}, ErrUnknownKind
	}
	return spec, nil
}

// ParseKind converts a stored or wire value into a Kind.
func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := kindSpecs[kind]; !ok {
		return KindUnspecified, ErrUnknownKind
	}
	return kind, nil
}

// Kinds returns every registered kind. Order is unspecified.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindSpecs))
	for kind := range kindSpecs {
		out = append(out, kind)
	}
	return out
}

// Prefixes returns every registered non-empty reqId prefix.
func Prefixes() []string {
	out := make([]string, 0, len(kindSpecs))
	for _, spec := range kindSpecs {
		if spec.Prefix != "" {
			out = append(out, spec.Prefix)
		}
	}
	return out
}
