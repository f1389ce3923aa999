package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/reqforge/reqforge/internal/errors"
	"github.com/reqforge/reqforge/internal/requirements/domain"
	"github.com/reqforge/reqforge/internal/requirements/storage"
)

// CheckVerdict is the outcome reported by an automated check service.
type CheckVerdict string

const (
	// VerdictPass approves the category.
	VerdictPass CheckVerdict = "pass"
	// VerdictFail rejects the category and cascades to the workflow.
	VerdictFail CheckVerdict = "fail"
	// VerdictError records a service failure; the endorsement stays
	// Pending with a retryable detail payload instead of cascading.
	VerdictError CheckVerdict = "error"
)

// CheckResult is the structured writeback of one automated check run.
type CheckResult struct {
	Verdict  CheckVerdict
	Score    float64
	Findings []string
	Detail   string
}

// ApproveEndorsement records a manual role approval. When the approval
// completes the required category set the requirement activates in the
// same transaction.
func (e *Engine) ApproveEndorsement(ctx context.Context, requirementID string, category domain.Category, endorserID, comments string) (RequirementView, error) {
	ctx, span := e.startSpan(ctx, "requirements.ApproveEndorsement", requirementID)
	defer span.End()

	requirement, spec, current, err := e.endorsableVersion(ctx, requirementID)
	if err != nil {
		return RequirementView{}, err
	}
	if err := e.checkEndorserCapability(ctx, requirement, spec, category, endorserID); err != nil {
		return RequirementView{}, err
	}

	activation := nextVersion(current, endorserID, e.now())
	activation.State = domain.StateActive
	key := storage.EndorsementKey{
		RequirementID: requirementID,
		EffectiveFrom: current.EffectiveFrom,
		Category:      category,
		EndorsedBy:    endorserID,
	}
	outcome, err := e.store.ApproveEndorsement(ctx, key, e.now(), comments, spec.RequiredCategories, activation)
	if err != nil {
		return RequirementView{}, e.endorsementError(err)
	}

	version := current
	if outcome == storage.CascadeActivated {
		version = activation
		e.emit(ctx, "requirements.activated", requirement, nil)
	}
	return e.view(ctx, requirement, version)
}

// RejectEndorsement records a manual role rejection. The reason is
// mandatory and the requirement moves to Rejected immediately, even while
// other categories are still Pending.
func (e *Engine) RejectEndorsement(ctx context.Context, requirementID string, category domain.Category, endorserID, reason string) (RequirementView, error) {
	ctx, span := e.startSpan(ctx, "requirements.RejectEndorsement", requirementID)
	defer span.End()

	if strings.TrimSpace(reason) == "" {
		return RequirementView{}, apperrors.New(apperrors.CodeEndorsementReasonRequired, "rejection reason is required")
	}
	requirement, spec, current, err := e.endorsableVersion(ctx, requirementID)
	if err != nil {
		return RequirementView{}, err
	}
	if err := e.checkEndorserCapability(ctx, requirement, spec, category, endorserID); err != nil {
		return RequirementView{}, err
	}

	rejection := nextVersion(current, endorserID, e.now())
	rejection.State = domain.StateRejected
	key := storage.EndorsementKey{
		RequirementID: requirementID,
		EffectiveFrom: current.EffectiveFrom,
		Category:      category,
		EndorsedBy:    endorserID,
	}
	if err := e.store.RejectEndorsement(ctx, key, e.now(), reason, rejection); err != nil {
		return RequirementView{}, e.endorsementError(err)
	}

	e.emit(ctx, "requirements.rejected", requirement, map[string]any{
		"category": string(category),
	})
	return e.view(ctx, requirement, rejection)
}

// RecordCheckResult writes back one automated check run. A re-run
// supersedes the prior system row for the category. Pass may activate the
// requirement, fail rejects it, and a service error keeps the row Pending
// with a retryable payload.
func (e *Engine) RecordCheckResult(ctx context.Context, requirementID string, category domain.Category, result CheckResult) (RequirementView, error) {
	ctx, span := e.startSpan(ctx, "requirements.RecordCheckResult", requirementID)
	defer span.End()

	if !category.IsAutomated() {
		return RequirementView{}, apperrors.New(apperrors.CodeEndorsementInvalidCategory, "category "+string(category)+" is not an automated check")
	}
	if _, ok := domain.ParseCategory(string(category)); !ok {
		return RequirementView{}, apperrors.New(apperrors.CodeEndorsementInvalidCategory, "unknown category "+string(category))
	}
	requirement, spec, current, err := e.endorsableVersion(ctx, requirementID)
	if err != nil {
		return RequirementView{}, err
	}

	now := e.now()
	write := storage.CheckWrite{
		ResolvedAt: now,
		CheckDetails: storage.CheckDetails{
			Verdict:  string(result.Verdict),
			Score:    result.Score,
			Findings: result.Findings,
			Detail:   result.Detail,
		},
	}
	switch result.Verdict {
	case VerdictPass:
		write.Status = domain.EndorsementApproved
	case VerdictFail:
		write.Status = domain.EndorsementRejected
	case VerdictError:
		write.Status = domain.EndorsementPending
		write.CheckDetails.Retryable = true
	default:
		return RequirementView{}, fmt.Errorf("unknown check verdict %q", result.Verdict)
	}

	activation := nextVersion(current, domain.SystemEndorserID, now)
	activation.State = domain.StateActive
	rejection := nextVersion(current, domain.SystemEndorserID, now)
	rejection.State = domain.StateRejected
	key := storage.EndorsementKey{
		RequirementID: requirementID,
		EffectiveFrom: current.EffectiveFrom,
		Category:      category,
		EndorsedBy:    domain.SystemEndorserID,
	}
	outcome, err := e.store.RecordCheckResult(ctx, key, write, spec.RequiredCategories, activation, rejection)
	if err != nil {
		return RequirementView{}, e.endorsementError(err)
	}

	version := current
	switch outcome {
	case storage.CascadeActivated:
		version = activation
		e.emit(ctx, "requirements.activated", requirement, nil)
	case storage.CascadeRejected:
		version = rejection
		e.emit(ctx, "requirements.rejected", requirement, map[string]any{
			"category": string(category),
		})
	default:
		if result.Verdict == VerdictError {
			e.emit(ctx, "requirements.check_errored", requirement, map[string]any{
				"category": string(category),
				"detail":   result.Detail,
			})
		}
	}
	return e.view(ctx, requirement, version)
}

// endorsableVersion loads the requirement and enforces the Review state.
func (e *Engine) endorsableVersion(ctx context.Context, requirementID string) (storage.Requirement, domain.KindSpec, storage.Version, error) {
	requirement, spec, current, err := e.loadCurrent(ctx, requirementID)
	if err != nil {
		return storage.Requirement{}, domain.KindSpec{}, storage.Version{}, err
	}
	if current.State != domain.StateReview {
		return storage.Requirement{}, domain.KindSpec{}, storage.Version{},
			apperrors.WithMetadata(
				apperrors.CodeWorkflowInvalidTransition,
				"endorsements require the requirement to be in review",
				map[string]string{"FromState": string(current.State), "ToState": string(domain.StateReview)},
			)
	}
	return requirement, spec, current, nil
}

// checkEndorserCapability gates manual endorsements: automated categories
// belong to the system endorser, and the role category requires the
// family capability within the requirement's container.
func (e *Engine) checkEndorserCapability(ctx context.Context, requirement storage.Requirement, spec domain.KindSpec, category domain.Category, endorserID string) error {
	if category.IsAutomated() {
		return apperrors.WithMetadata(
			apperrors.CodeEndorsementPermissionDenied,
			"category "+string(category)+" is resolved by automated checks",
			map[string]string{"Category": string(category)},
		)
	}
	capabilities, err := e.directory.Capabilities(ctx, endorserID, requirement.ContainerID)
	if err != nil {
		return fmt.Errorf("resolve capabilities: %w", err)
	}
	if !capabilities.CanEndorse(spec.Family) {
		return apperrors.WithMetadata(
			apperrors.CodeEndorsementPermissionDenied,
			"endorser "+endorserID+" lacks the capability for "+string(spec.Family),
			map[string]string{"Category": string(category)},
		)
	}
	return nil
}

func (e *Engine) endorsementError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeEndorsementNotFound, "endorsement not found", err)
	case errors.Is(err, storage.ErrAlreadyResolved):
		return apperrors.Wrap(apperrors.CodeEndorsementAlreadyResolved, "endorsement already resolved", err)
	case errors.Is(err, storage.ErrVersionExists):
		return apperrors.Wrap(apperrors.CodeVersionTimestamp, "version timestamp collision", err)
	}
	return err
}
