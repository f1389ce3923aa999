// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Requirement errors
	CodeRequirementNotFound         Code = "REQUIREMENT_NOT_FOUND"
	CodeRequirementNameEmpty        Code = "REQUIREMENT_NAME_EMPTY"
	CodeRequirementNameTooLong      Code = "REQUIREMENT_NAME_TOO_LONG"
	CodeRequirementInvalidKind      Code = "REQUIREMENT_INVALID_KIND"
	CodeRequirementEmptyContainerID Code = "REQUIREMENT_EMPTY_CONTAINER_ID"
	CodeRequirementInvalidField     Code = "REQUIREMENT_INVALID_FIELD"

	// Workflow errors
	CodeWorkflowInvalidTransition Code = "WORKFLOW_INVALID_TRANSITION"
	CodeWorkflowKindNotReviewable Code = "WORKFLOW_KIND_NOT_REVIEWABLE"

	// Version errors
	CodeVersionNotFound  Code = "VERSION_NOT_FOUND"
	CodeVersionTimestamp Code = "VERSION_TIMESTAMP_CONFLICT"

	// Endorsement errors
	CodeEndorsementNotFound         Code = "ENDORSEMENT_NOT_FOUND"
	CodeEndorsementAlreadyResolved  Code = "ENDORSEMENT_ALREADY_RESOLVED"
	CodeEndorsementPermissionDenied Code = "ENDORSEMENT_PERMISSION_DENIED"
	CodeEndorsementReasonRequired   Code = "ENDORSEMENT_REASON_REQUIRED"
	CodeEndorsementInvalidCategory  Code = "ENDORSEMENT_INVALID_CATEGORY"

	// Identifier errors
	CodeReqIDMalformed Code = "REQ_ID_MALFORMED"
	CodeReqIDConflict  Code = "REQ_ID_CONFLICT"
	CodeReqIDNotFound  Code = "REQ_ID_NOT_FOUND"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - caller sent bad input
	case CodeRequirementNameEmpty,
		CodeRequirementNameTooLong,
		CodeRequirementInvalidKind,
		CodeRequirementEmptyContainerID,
		CodeRequirementInvalidField,
		CodeEndorsementReasonRequired,
		CodeEndorsementInvalidCategory,
		CodeReqIDMalformed:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeWorkflowInvalidTransition,
		CodeWorkflowKindNotReviewable,
		CodeEndorsementAlreadyResolved:
		return codes.FailedPrecondition

	// Aborted - concurrent writer won; caller should retry
	case CodeVersionTimestamp,
		CodeReqIDConflict:
		return codes.Aborted

	// PermissionDenied - endorser lacks capability
	case CodeEndorsementPermissionDenied:
		return codes.PermissionDenied

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeRequirementNotFound,
		CodeVersionNotFound,
		CodeEndorsementNotFound,
		CodeReqIDNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
