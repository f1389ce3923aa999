package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/reqforge/reqforge/internal/errors"
	"github.com/reqforge/reqforge/internal/requirements/domain"
	"github.com/reqforge/reqforge/internal/requirements/storage"
)

// ProposeInput describes a new requirement statement.
type ProposeInput struct {
	Kind        domain.Kind
	ContainerID string
	ActorID     string
	// Placeholder creates the requirement in Silence; it acquires a reqId
	// only when surfaced later.
	Placeholder bool
	Content     domain.Content
}

// RequirementView is the engine's read model for one requirement.
type RequirementView struct {
	Requirement storage.Requirement
	Version     storage.Version
	// ReqID is empty while the requirement is in Silence.
	ReqID string
}

// Propose creates a new requirement with its first version. Non-placeholder
// requirements of prefixed kinds receive their reqId in the same transaction.
func (e *Engine) Propose(ctx context.Context, input ProposeInput) (RequirementView, error) {
	ctx, span := e.startSpan(ctx, "requirements.Propose", "")
	defer span.End()

	input.ContainerID = strings.TrimSpace(input.ContainerID)
	if input.ContainerID == "" {
		return RequirementView{}, apperrors.New(apperrors.CodeRequirementEmptyContainerID, "container id is required")
	}
	content, err := domain.NormalizeContent(input.Kind, input.Content)
	if err != nil {
		return RequirementView{}, err
	}
	spec, err := domain.SpecFor(input.Kind)
	if err != nil {
		return RequirementView{}, apperrors.New(apperrors.CodeRequirementInvalidKind, "unknown requirement kind "+string(input.Kind))
	}
	state, err := domain.InitialState(input.Kind, input.Placeholder)
	if err != nil {
		return RequirementView{}, err
	}

	requirementID, err := e.idGenerator()
	if err != nil {
		return RequirementView{}, fmt.Errorf("generate requirement id: %w", err)
	}
	now := e.now()
	requirement := storage.Requirement{
		ID:          requirementID,
		Kind:        input.Kind,
		ContainerID: input.ContainerID,
		CreatedBy:   input.ActorID,
		CreatedAt:   now,
	}
	version := storage.Version{
		RequirementID: requirementID,
		EffectiveFrom: now,
		Name:          content.Name,
		Description:   content.Description,
		Fields:        content.Fields,
		State:         state,
		ModifiedBy:    input.ActorID,
	}

	prefix := ""
	if state != domain.StateSilence {
		prefix = spec.Prefix
	}
	allocation, err := e.store.CreateRequirement(ctx, requirement, version, prefix)
	if err != nil {
		return RequirementView{}, versionConflict(err)
	}

	view := RequirementView{Requirement: requirement, Version: version}
	if allocation != nil {
		view.ReqID = allocation.ReqID()
	}
	e.emit(ctx, "requirements.proposed", requirement, map[string]any{
		"kind":   string(input.Kind),
		"state":  string(state),
		"req_id": view.ReqID,
	})
	return view, nil
}

// Surface moves a Silence requirement to Proposed and allocates its reqId.
func (e *Engine) Surface(ctx context.Context, requirementID, actorID string) (RequirementView, error) {
	ctx, span := e.startSpan(ctx, "requirements.Surface", requirementID)
	defer span.End()

	requirement, spec, current, err := e.loadCurrent(ctx, requirementID)
	if err != nil {
		return RequirementView{}, err
	}
	if current.State != domain.StateSilence || !domain.CanTransition(current.State, domain.StateProposed) {
		return RequirementView{}, invalidTransition(current.State, domain.StateProposed)
	}
	if spec.SilenceOnly || spec.Prefix == "" {
		return RequirementView{}, apperrors.WithMetadata(
			apperrors.CodeWorkflowKindNotReviewable,
			"kind "+string(requirement.Kind)+" cannot be surfaced",
			map[string]string{"Kind": string(requirement.Kind)},
		)
	}
	if _, err := e.store.GetAllocation(ctx, requirementID); err == nil {
		return RequirementView{}, apperrors.New(apperrors.CodeReqIDConflict, "requirement already holds a reqId")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return RequirementView{}, err
	}

	version := nextVersion(current, actorID, e.now())
	version.State = domain.StateProposed
	allocation, err := e.store.SurfaceVersion(ctx, version, requirement.ContainerID, spec.Prefix)
	if err != nil {
		return RequirementView{}, versionConflict(err)
	}

	e.emit(ctx, "requirements.surfaced", requirement, map[string]any{
		"req_id": allocation.ReqID(),
	})
	return RequirementView{Requirement: requirement, Version: version, ReqID: allocation.ReqID()}, nil
}

// Edit creates a new version with updated content, keeping the workflow
// state. While under Review the endorsement set restarts from Pending
// against the new version.
func (e *Engine) Edit(ctx context.Context, requirementID, actorID string, content domain.Content) (RequirementView, error) {
	ctx, span := e.startSpan(ctx, "requirements.Edit", requirementID)
	defer span.End()

	requirement, spec, current, err := e.loadCurrent(ctx, requirementID)
	if err != nil {
		return RequirementView{}, err
	}
	if !current.State.Editable() {
		return RequirementView{}, apperrors.WithMetadata(
			apperrors.CodeWorkflowInvalidTransition,
			"requirements in "+string(current.State)+" cannot be edited",
			map[string]string{"FromState": string(current.State), "ToState": string(current.State)},
		)
	}
	normalized, err := domain.NormalizeContent(requirement.Kind, content)
	if err != nil {
		return RequirementView{}, err
	}

	version := nextVersion(current, actorID, e.now())
	version.Name = normalized.Name
	version.Description = normalized.Description
	version.Fields = normalized.Fields

	if current.State == domain.StateReview {
		endorsements, err := e.pendingEndorsements(ctx, requirement, spec, version)
		if err != nil {
			return RequirementView{}, err
		}
		if err := e.store.AppendVersionWithEndorsements(ctx, version, endorsements); err != nil {
			return RequirementView{}, versionConflict(err)
		}
	} else if err := e.store.AppendVersion(ctx, version); err != nil {
		return RequirementView{}, versionConflict(err)
	}

	return e.view(ctx, requirement, version)
}

// SubmitForReview moves a Proposed requirement to Review and creates the
// Pending endorsement set for its kind: one row per eligible endorser for
// the role category and one system row per automated category.
func (e *Engine) SubmitForReview(ctx context.Context, requirementID, actorID string) (RequirementView, error) {
	ctx, span := e.startSpan(ctx, "requirements.SubmitForReview", requirementID)
	defer span.End()

	requirement, spec, current, err := e.loadCurrent(ctx, requirementID)
	if err != nil {
		return RequirementView{}, err
	}
	if !spec.Reviewable() {
		return RequirementView{}, apperrors.WithMetadata(
			apperrors.CodeWorkflowKindNotReviewable,
			"kind "+string(requirement.Kind)+" is not reviewable",
			map[string]string{"Kind": string(requirement.Kind)},
		)
	}
	if !domain.CanTransition(current.State, domain.StateReview) {
		return RequirementView{}, invalidTransition(current.State, domain.StateReview)
	}

	version := nextVersion(current, actorID, e.now())
	version.State = domain.StateReview
	endorsements, err := e.pendingEndorsements(ctx, requirement, spec, version)
	if err != nil {
		return RequirementView{}, err
	}
	if err := e.store.AppendVersionWithEndorsements(ctx, version, endorsements); err != nil {
		return RequirementView{}, versionConflict(err)
	}

	e.emit(ctx, "requirements.submitted", requirement, map[string]any{
		"endorsements": len(endorsements),
	})
	return e.view(ctx, requirement, version)
}

// Revise moves a Rejected requirement back to Proposed with a new version.
// Endorsements on the rejected version stay attached to it for audit; a
// fresh Pending set is created on the next submission.
func (e *Engine) Revise(ctx context.Context, requirementID, actorID string) (RequirementView, error) {
	ctx, span := e.startSpan(ctx, "requirements.Revise", requirementID)
	defer span.End()

	requirement, _, current, err := e.loadCurrent(ctx, requirementID)
	if err != nil {
		return RequirementView{}, err
	}
	if !domain.CanTransition(current.State, domain.StateProposed) || current.State != domain.StateRejected {
		return RequirementView{}, invalidTransition(current.State, domain.StateProposed)
	}

	version := nextVersion(current, actorID, e.now())
	version.State = domain.StateProposed
	if err := e.store.AppendVersion(ctx, version); err != nil {
		return RequirementView{}, versionConflict(err)
	}

	e.emit(ctx, "requirements.revised", requirement, nil)
	return e.view(ctx, requirement, version)
}

// Remove soft-deletes an Active requirement and releases its reqId,
// renumbering the (container, prefix) scope to stay dense.
func (e *Engine) Remove(ctx context.Context, requirementID, actorID string) error {
	ctx, span := e.startSpan(ctx, "requirements.Remove", requirementID)
	defer span.End()

	requirement, _, current, err := e.loadCurrent(ctx, requirementID)
	if err != nil {
		return err
	}
	if current.State != domain.StateActive {
		return apperrors.WithMetadata(
			apperrors.CodeWorkflowInvalidTransition,
			"only active requirements can be removed",
			map[string]string{"FromState": string(current.State)},
		)
	}

	version := nextVersion(current, actorID, e.now())
	version.Deleted = true
	if err := e.store.RemoveRequirement(ctx, version); err != nil {
		return versionConflict(err)
	}

	e.emit(ctx, "requirements.removed", requirement, nil)
	return nil
}

// nextVersion copies the current snapshot forward with a fresh timestamp.
func nextVersion(current storage.Version, actorID string, now time.Time) storage.Version {
	next := current
	next.EffectiveFrom = now
	next.ModifiedBy = actorID
	return next
}

// pendingEndorsements builds the Pending set bound to a Review version.
func (e *Engine) pendingEndorsements(ctx context.Context, requirement storage.Requirement, spec domain.KindSpec, version storage.Version) ([]storage.Endorsement, error) {
	var endorsements []storage.Endorsement
	for _, category := range spec.RequiredCategories {
		if category.IsAutomated() {
			endorsements = append(endorsements, storage.Endorsement{
				RequirementID: version.RequirementID,
				EffectiveFrom: version.EffectiveFrom,
				Category:      category,
				Status:        domain.EndorsementPending,
				EndorsedBy:    domain.SystemEndorserID,
			})
			continue
		}
		endorsers, err := e.directory.EligibleEndorsers(ctx, requirement.ContainerID, spec.Family)
		if err != nil {
			return nil, fmt.Errorf("resolve eligible endorsers: %w", err)
		}
		for _, endorser := range endorsers {
			endorsements = append(endorsements, storage.Endorsement{
				RequirementID: version.RequirementID,
				EffectiveFrom: version.EffectiveFrom,
				Category:      category,
				Status:        domain.EndorsementPending,
				EndorsedBy:    endorser,
			})
		}
	}
	return endorsements, nil
}

func (e *Engine) view(ctx context.Context, requirement storage.Requirement, version storage.Version) (RequirementView, error) {
	view := RequirementView{Requirement: requirement, Version: version}
	allocation, err := e.store.GetAllocation(ctx, requirement.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return view, nil
		}
		return RequirementView{}, err
	}
	view.ReqID = allocation.ReqID()
	return view, nil
}
