package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/reqforge/reqforge/internal/errors"
	"github.com/reqforge/reqforge/internal/requirements/domain"
	"github.com/reqforge/reqforge/internal/requirements/storage"
)

// GetCurrent returns the requirement as of the given instant. A zero asOf
// reads the present. Deleted requirements report not found.
func (e *Engine) GetCurrent(ctx context.Context, requirementID string, asOf time.Time) (RequirementView, error) {
	ctx, span := e.startSpan(ctx, "requirements.GetCurrent", requirementID)
	defer span.End()

	requirement, err := e.store.GetRequirement(ctx, requirementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return RequirementView{}, apperrors.New(apperrors.CodeRequirementNotFound, "requirement "+requirementID+" not found")
		}
		return RequirementView{}, err
	}
	if asOf.IsZero() {
		asOf = e.now()
	}
	version, err := e.store.GetCurrentVersion(ctx, requirementID, asOf)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return RequirementView{}, apperrors.New(apperrors.CodeVersionNotFound, "requirement "+requirementID+" has no live version at the requested time")
		}
		return RequirementView{}, err
	}
	return e.view(ctx, requirement, version)
}

// GetHistory returns every version of the requirement, newest first,
// including deletion markers.
func (e *Engine) GetHistory(ctx context.Context, requirementID string) (storage.Requirement, []storage.Version, error) {
	ctx, span := e.startSpan(ctx, "requirements.GetHistory", requirementID)
	defer span.End()

	requirement, err := e.store.GetRequirement(ctx, requirementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Requirement{}, nil, apperrors.New(apperrors.CodeRequirementNotFound, "requirement "+requirementID+" not found")
		}
		return storage.Requirement{}, nil, err
	}
	versions, err := e.store.ListHistory(ctx, requirementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Requirement{}, nil, apperrors.New(apperrors.CodeVersionNotFound, "requirement "+requirementID+" has no versions")
		}
		return storage.Requirement{}, nil, err
	}
	return requirement, versions, nil
}

// ListEndorsements returns the endorsement rows attached to the current
// version, live rows first as stored.
func (e *Engine) ListEndorsements(ctx context.Context, requirementID string) ([]storage.Endorsement, error) {
	ctx, span := e.startSpan(ctx, "requirements.ListEndorsements", requirementID)
	defer span.End()

	_, _, current, err := e.loadCurrent(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	return e.store.ListEndorsements(ctx, requirementID, current.EffectiveFrom)
}

// ResolveReqID maps a human-facing reqId such as "E.2.5" to the id of the
// requirement holding it within the container.
func (e *Engine) ResolveReqID(ctx context.Context, containerID, value string) (string, error) {
	ctx, span := e.startSpan(ctx, "requirements.ResolveReqID", "")
	defer span.End()

	reqID, err := domain.ParseReqID(value)
	if err != nil {
		return "", apperrors.WithMetadata(apperrors.CodeReqIDMalformed, err.Error(),
			map[string]string{"ReqID": value})
	}
	allocation, err := e.store.FindAllocation(ctx, containerID, reqID.Prefix, reqID.Number)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", apperrors.WithMetadata(apperrors.CodeReqIDNotFound,
				"reqId "+value+" is not assigned in container "+containerID,
				map[string]string{"ReqID": value})
		}
		return "", err
	}
	return allocation.RequirementID, nil
}
