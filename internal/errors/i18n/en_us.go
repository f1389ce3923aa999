package i18n

import "golang.org/x/text/language"

// Error codes must match the codes defined in internal/errors/codes.go.
const (
	CodeUnknown = "UNKNOWN"

	CodeRequirementNotFound         = "REQUIREMENT_NOT_FOUND"
	CodeRequirementNameEmpty        = "REQUIREMENT_NAME_EMPTY"
	CodeRequirementNameTooLong      = "REQUIREMENT_NAME_TOO_LONG"
	CodeRequirementInvalidKind      = "REQUIREMENT_INVALID_KIND"
	CodeRequirementEmptyContainerID = "REQUIREMENT_EMPTY_CONTAINER_ID"
	CodeRequirementInvalidField     = "REQUIREMENT_INVALID_FIELD"
	CodeWorkflowInvalidTransition   = "WORKFLOW_INVALID_TRANSITION"
	CodeWorkflowKindNotReviewable   = "WORKFLOW_KIND_NOT_REVIEWABLE"
	CodeVersionNotFound             = "VERSION_NOT_FOUND"
	CodeVersionTimestamp            = "VERSION_TIMESTAMP_CONFLICT"
	CodeEndorsementNotFound         = "ENDORSEMENT_NOT_FOUND"
	CodeEndorsementAlreadyResolved  = "ENDORSEMENT_ALREADY_RESOLVED"
	CodeEndorsementPermissionDenied = "ENDORSEMENT_PERMISSION_DENIED"
	CodeEndorsementReasonRequired   = "ENDORSEMENT_REASON_REQUIRED"
	CodeEndorsementInvalidCategory  = "ENDORSEMENT_INVALID_CATEGORY"
	CodeReqIDMalformed              = "REQ_ID_MALFORMED"
	CodeReqIDConflict               = "REQ_ID_CONFLICT"
	CodeReqIDNotFound               = "REQ_ID_NOT_FOUND"
	CodeNotFound                    = "NOT_FOUND"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	tag:    language.AmericanEnglish,
	messages: map[Code]string{
		CodeUnknown: "An unexpected error occurred",

		// Requirement errors
		CodeRequirementNotFound:         "The requested requirement was not found",
		CodeRequirementNameEmpty:        "Requirement name cannot be empty",
		CodeRequirementNameTooLong:      "Requirement name exceeds {{.MaxLength}} characters",
		CodeRequirementInvalidKind:      "Invalid requirement kind specified",
		CodeRequirementEmptyContainerID: "Solution ID is required for requirement",
		CodeRequirementInvalidField:     "Invalid value for field {{.Field}}",

		// Workflow errors
		CodeWorkflowInvalidTransition: "Cannot move requirement from {{.FromState}} to {{.ToState}}",
		CodeWorkflowKindNotReviewable: "Requirements of kind {{.Kind}} cannot be submitted for review",

		// Version errors
		CodeVersionNotFound:  "No requirement version exists at the requested time",
		CodeVersionTimestamp: "Another change was saved at the same instant; retry the edit",

		// Endorsement errors
		CodeEndorsementNotFound:         "The requested endorsement was not found",
		CodeEndorsementAlreadyResolved:  "This endorsement has already been {{.Status}}",
		CodeEndorsementPermissionDenied: "You are not allowed to endorse {{.Category}} for this requirement",
		CodeEndorsementReasonRequired:   "A reason is required to reject a requirement",
		CodeEndorsementInvalidCategory:  "Invalid endorsement category specified",

		// Identifier errors
		CodeReqIDMalformed: "Requirement ID {{.ReqID}} is not a valid identifier",
		CodeReqIDConflict:  "Requirement ID numbering changed concurrently; retry the operation",
		CodeReqIDNotFound:  "No requirement ID is assigned",

		// Storage errors
		CodeNotFound: "The requested resource was not found",
	},
}
