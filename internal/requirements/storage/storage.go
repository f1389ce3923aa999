// Package storage defines persistence contracts for requirement lifecycle state.
//
// Every multi-step mutation (submit, endorse, reject, remove) is one store
// method so implementations can run it in a single transaction; the engine
// never partially applies a logical operation.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/reqforge/reqforge/internal/requirements/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrVersionExists indicates a version with the same effective_from
	// already exists for the requirement (clock collision; caller retries
	// with a fresh timestamp).
	ErrVersionExists = errors.New("version timestamp already exists")
	// ErrAlreadyResolved indicates an endorsement that is no longer Pending.
	ErrAlreadyResolved = errors.New("endorsement already resolved")
)

// Requirement is the immutable identity record of one requirement.
type Requirement struct {
	ID          string
	Kind        domain.Kind
	ContainerID string
	CreatedBy   string
	CreatedAt   time.Time
}

// Version is one append-only time-sliced snapshot of a requirement.
type Version struct {
	RequirementID string
	EffectiveFrom time.Time
	Name          string
	Description   string
	Fields        map[string]string
	State         domain.WorkflowState
	Deleted       bool
	ModifiedBy    string
}

// Endorsement is one judgment on one quality category for one version.
type Endorsement struct {
	RequirementID string
	EffectiveFrom time.Time
	Category      domain.Category
	Status        domain.EndorsementStatus
	EndorsedBy    string
	EndorsedAt    time.Time
	RejectedAt    time.Time
	Comments      string
	CheckDetails  *CheckDetails
	Superseded    bool
}

// CheckDetails is the structured payload returned by an automated check.
type CheckDetails struct {
	Verdict   string   `json:"verdict"`
	Score     float64  `json:"score,omitempty"`
	Findings  []string `json:"findings,omitempty"`
	Detail    string   `json:"detail,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}

// EndorsementKey identifies one non-superseded endorsement row.
type EndorsementKey struct {
	RequirementID string
	EffectiveFrom time.Time
	Category      domain.Category
	EndorsedBy    string
}

// Allocation is the reqId assignment of one requirement within its
// (container, prefix) scope.
type Allocation struct {
	RequirementID string
	ContainerID   string
	Prefix        string
	Number        int
}

// ReqID formats the allocation as a human-facing identifier.
func (a Allocation) ReqID() string {
	return domain.ReqID{Prefix: a.Prefix, Number: a.Number}.String()
}

// CheckWrite describes the row written back for an automated check result.
type CheckWrite struct {
	Status       domain.EndorsementStatus
	ResolvedAt   time.Time
	CheckDetails CheckDetails
}

// CascadeOutcome reports the workflow side effect of an endorsement write.
type CascadeOutcome int

const (
	// CascadeNone means the requirement stayed in Review.
	CascadeNone CascadeOutcome = iota
	// CascadeActivated means the write completed the required set and the
	// activation version was appended.
	CascadeActivated
	// CascadeRejected means the write rejected a required category and the
	// rejection version was appended.
	CascadeRejected
)

// RequirementStore persists requirement lifecycle state.
//
// Methods that combine a version append with endorsement or allocation
// writes must be atomic. Renumbering under one (container, prefix) scope
// must be serialized across concurrent callers.
type RequirementStore interface {
	// CreateRequirement inserts the identity and first version. When prefix
	// is non-empty it also allocates the next reqId number in the same
	// transaction and returns the allocation.
	CreateRequirement(ctx context.Context, requirement Requirement, version Version, prefix string) (*Allocation, error)
	GetRequirement(ctx context.Context, requirementID string) (Requirement, error)

	// GetCurrentVersion returns the version with the greatest
	// effective_from <= asOf. ErrNotFound when none exists or the latest
	// such version is deleted.
	GetCurrentVersion(ctx context.Context, requirementID string, asOf time.Time) (Version, error)
	// ListHistory returns every version newest first, including deleted ones.
	ListHistory(ctx context.Context, requirementID string) ([]Version, error)
	// AppendVersion appends one snapshot. ErrVersionExists on an
	// effective_from collision.
	AppendVersion(ctx context.Context, version Version) error
	// SurfaceVersion appends the Proposed version of a silence requirement
	// and allocates its reqId in the same transaction.
	SurfaceVersion(ctx context.Context, version Version, containerID, prefix string) (Allocation, error)
	// AppendVersionWithEndorsements appends one snapshot and the Pending
	// endorsement rows bound to it in the same transaction.
	AppendVersionWithEndorsements(ctx context.Context, version Version, endorsements []Endorsement) error

	GetEndorsement(ctx context.Context, key EndorsementKey) (Endorsement, error)
	// ListEndorsements returns the non-superseded rows for one version.
	ListEndorsements(ctx context.Context, requirementID string, effectiveFrom time.Time) ([]Endorsement, error)
	// ApproveEndorsement marks the row approved, re-aggregates the
	// version's judgments and, when the required set is complete, appends
	// the provided activation version, all in one transaction.
	// ErrAlreadyResolved when the row is not Pending.
	ApproveEndorsement(ctx context.Context, key EndorsementKey, approvedAt time.Time, comments string, required []domain.Category, activation Version) (CascadeOutcome, error)
	// RejectEndorsement marks the row rejected and appends the rejection
	// version in one transaction. ErrAlreadyResolved when not Pending.
	RejectEndorsement(ctx context.Context, key EndorsementKey, rejectedAt time.Time, reason string, rejection Version) error
	// RecordCheckResult supersedes the prior system row for the category,
	// inserts the new judgment and applies the activation or rejection
	// cascade, all in one transaction.
	RecordCheckResult(ctx context.Context, key EndorsementKey, write CheckWrite, required []domain.Category, activation Version, rejection Version) (CascadeOutcome, error)

	GetAllocation(ctx context.Context, requirementID string) (Allocation, error)
	// FindAllocation resolves a (container, prefix, number) triple to its
	// holder. ErrNotFound when the number is unassigned.
	FindAllocation(ctx context.Context, containerID, prefix string, number int) (Allocation, error)
	// ListAllocations returns the scope's allocations ordered by number.
	ListAllocations(ctx context.Context, containerID, prefix string) ([]Allocation, error)
	// RemoveRequirement appends the deletion version and, when the
	// requirement holds a reqId, releases it and renumbers the scope in
	// the same transaction.
	RemoveRequirement(ctx context.Context, version Version) error
}

// Scope identifies one independent reqId numbering sequence.
type Scope struct {
	ContainerID string
	Prefix      string
}

// AuditStore exposes the whole-database scans used by offline
// consistency audits. Implemented by the sqlite store alongside
// RequirementStore.
type AuditStore interface {
	// ListScopes returns every (container, prefix) scope holding at
	// least one allocation.
	ListScopes(ctx context.Context) ([]Scope, error)
	// ListRequirementIDs returns every requirement identity id.
	ListRequirementIDs(ctx context.Context) ([]string, error)
	GetRequirement(ctx context.Context, requirementID string) (Requirement, error)
	GetCurrentVersion(ctx context.Context, requirementID string, asOf time.Time) (Version, error)
	GetAllocation(ctx context.Context, requirementID string) (Allocation, error)
	ListAllocations(ctx context.Context, containerID, prefix string) ([]Allocation, error)
	ListEndorsements(ctx context.Context, requirementID string, effectiveFrom time.Time) ([]Endorsement, error)
}

// TelemetryEvent is one operational event recorded by the engine.
type TelemetryEvent struct {
	EventName     string
	Severity      string
	ContainerID   string
	RequirementID string
	ActorType     string
	ActorID       string
	Timestamp     time.Time
	Attributes    map[string]any
}

// TelemetryStore persists operational events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, event TelemetryEvent) error
}
