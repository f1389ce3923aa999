package domain

import "strings"

// Category identifies one endorsement quality dimension.
type Category string

const (
	// CategoryRole is the manual, capability-gated endorsement.
	CategoryRole Category = "ROLE"

	// Automated quality categories, one per check service dimension.
	CategoryReadability        Category = "READABILITY"
	CategoryTypeCorrespondence Category = "TYPE_CORRESPONDENCE"
	CategoryGlossaryAlignment  Category = "GLOSSARY_ALIGNMENT"
	CategoryAmbiguity          Category = "AMBIGUITY"
	CategoryAtomicity          Category = "ATOMICITY"
	CategoryCompleteness       Category = "COMPLETENESS"
	CategoryConsistency        Category = "CONSISTENCY"
	CategoryVerifiability      Category = "VERIFIABILITY"
	CategoryFeasibility        Category = "FEASIBILITY"
	CategoryTraceability       Category = "TRACEABILITY"
	CategoryRedundancy         Category = "REDUNDANCY"
	CategoryConciseness        Category = "CONCISENESS"
)

// SystemEndorserID is the reserved endorser identity for automated checks.
// Modeling the system as an explicit endorser keeps the aggregation rule
// uniform between manual and automated endorsements.
const SystemEndorserID = "system"

// EndorsementStatus is the resolution state of one endorsement row.
type EndorsementStatus string

const (
	EndorsementPending  EndorsementStatus = "PENDING"
	EndorsementApproved EndorsementStatus = "APPROVED"
	EndorsementRejected EndorsementStatus = "REJECTED"
)

var automatedCategories = []Category{
	CategoryReadability,
	CategoryTypeCorrespondence,
	CategoryGlossaryAlignment,
	CategoryAmbiguity,
	CategoryAtomicity,
	CategoryCompleteness,
	CategoryConsistency,
	CategoryVerifiability,
	CategoryFeasibility,
	CategoryTraceability,
	CategoryRedundancy,
	CategoryConciseness,
}

func fullCategorySet() []Category {
	out := make([]Category, 0, len(automatedCategories)+1)
	out = append(out, CategoryRole)
	out = append(out, automatedCategories...)
	return out
}

// proseCategorySet covers kinds whose content is narrative prose, where the
// structural checks (type correspondence, verifiability, feasibility) do not
// apply.
func proseCategorySet() []Category {
	return []Category{
		CategoryRole,
		CategoryReadability,
		CategoryGlossaryAlignment,
		CategoryAmbiguity,
		CategoryCompleteness,
		CategoryConsistency,
		CategoryRedundancy,
		CategoryConciseness,
	}
}

// AutomatedCategories returns every automated check category.
func AutomatedCategories() []Category {
	out := make([]Category, len(automatedCategories))
	copy(out, automatedCategories)
	return out
}

// IsAutomated reports whether the category is produced by a check service.
func (c Category) IsAutomated() bool {
	return c != CategoryRole
}

// ParseCategory converts a stored or wire value into a Category.
func ParseCategory(value string) (Category, bool) {
	category := Category(strings.ToUpper(strings.TrimSpace(value)))
	if category == CategoryRole {
		return category, true
	}
	for _, automated := range automatedCategories {
		if category == automated {
			return category, true
		}
	}
	return "", false
}

// CategoryJudgment is the non-superseded resolution of one required category.
type CategoryJudgment struct {
	Category Category
	Status   EndorsementStatus
}

// EndorsementOutcome is the aggregate decision over a version's endorsements.
type EndorsementOutcome int

const (
	// OutcomeIncomplete means at least one required category is unresolved.
	OutcomeIncomplete EndorsementOutcome = iota
	// OutcomeApproved means every required category has an Approved judgment.
	OutcomeApproved
	// OutcomeRejected means at least one required category was Rejected.
	OutcomeRejected
)

// Aggregate reduces the non-superseded judgments for a version to an
// activation decision. A single Rejected judgment dominates; Approved
// requires full coverage of the required set.
func Aggregate(required []Category, judgments []CategoryJudgment) EndorsementOutcome {
	approved := make(map[Category]bool, len(required))
	for _, judgment := range judgments {
		switch judgment.Status {
		case EndorsementRejected:
			return OutcomeRejected
		case EndorsementApproved:
			approved[judgment.Category] = true
		}
	}
	for _, category := range required {
		if !approved[category] {
			return OutcomeIncomplete
		}
	}
	return OutcomeApproved
}
