// Package service implements the requirement lifecycle engine: proposing,
// editing, review submission, endorsement resolution and removal, each as a
// single transactional unit of work over the requirement store.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/reqforge/reqforge/internal/errors"
	"github.com/reqforge/reqforge/internal/id"
	"github.com/reqforge/reqforge/internal/requirements/domain"
	"github.com/reqforge/reqforge/internal/requirements/storage"
	"github.com/reqforge/reqforge/internal/telemetry"
)

const tracerName = "reqforge/requirements"

// ActorDirectory resolves endorsement capabilities, scoped to a container.
// It is an external collaborator of the engine.
type ActorDirectory interface {
	Capabilities(ctx context.Context, actorID, containerID string) (domain.Capabilities, error)
	// EligibleEndorsers returns every actor holding the role-endorsement
	// capability for the family within the container.
	EligibleEndorsers(ctx context.Context, containerID string, family domain.Family) ([]string, error)
}

// Engine coordinates the requirement lifecycle over a requirement store.
type Engine struct {
	store       storage.RequirementStore
	directory   ActorDirectory
	emitter     *telemetry.Emitter
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewEngine creates an engine with default clock and id generation.
func NewEngine(store storage.RequirementStore, directory ActorDirectory) *Engine {
	return &Engine{
		store:       store,
		directory:   directory,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// WithTelemetry attaches an operational event emitter.
func (e *Engine) WithTelemetry(emitter *telemetry.Emitter) *Engine {
	e.emitter = emitter
	return e
}

// WithClock overrides the engine clock, primarily for tests.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	if clock != nil {
		e.clock = clock
	}
	return e
}

func (e *Engine) now() time.Time {
	if e.clock == nil {
		return time.Now().UTC()
	}
	return e.clock().UTC()
}

func (e *Engine) startSpan(ctx context.Context, operation, requirementID string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, operation)
	if requirementID != "" {
		span.SetAttributes(attribute.String("requirement.id", requirementID))
	}
	return ctx, span
}

// eventSeverities raises events operators should notice above the INFO
// default.
var eventSeverities = map[string]telemetry.Severity{
	"requirements.rejected":      telemetry.SeverityWarn,
	"requirements.check_errored": telemetry.SeverityError,
}

func (e *Engine) emit(ctx context.Context, name string, requirement storage.Requirement, attributes map[string]any) {
	if e.emitter == nil {
		return
	}
	severity, ok := eventSeverities[name]
	if !ok {
		severity = telemetry.SeverityInfo
	}
	err := e.emitter.Emit(ctx, storage.TelemetryEvent{
		EventName:     name,
		Severity:      string(severity),
		ContainerID:   requirement.ContainerID,
		RequirementID: requirement.ID,
		Attributes:    attributes,
	})
	if err != nil {
		log.Printf("telemetry emit %s: %v", name, err)
	}
}

// loadCurrent fetches the identity, kind spec and live current version.
func (e *Engine) loadCurrent(ctx context.Context, requirementID string) (storage.Requirement, domain.KindSpec, storage.Version, error) {
	requirement, err := e.store.GetRequirement(ctx, requirementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Requirement{}, domain.KindSpec{}, storage.Version{},
				apperrors.New(apperrors.CodeRequirementNotFound, "requirement "+requirementID+" not found")
		}
		return storage.Requirement{}, domain.KindSpec{}, storage.Version{}, err
	}
	spec, err := domain.SpecFor(requirement.Kind)
	if err != nil {
		return storage.Requirement{}, domain.KindSpec{}, storage.Version{},
			apperrors.New(apperrors.CodeRequirementInvalidKind, "stored kind is unknown: "+string(requirement.Kind))
	}
	version, err := e.store.GetCurrentVersion(ctx, requirementID, e.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Requirement{}, domain.KindSpec{}, storage.Version{},
				apperrors.New(apperrors.CodeVersionNotFound, "requirement "+requirementID+" has no live version")
		}
		return storage.Requirement{}, domain.KindSpec{}, storage.Version{}, err
	}
	return requirement, spec, version, nil
}

func invalidTransition(from, to domain.WorkflowState) error {
	return apperrors.WithMetadata(
		apperrors.CodeWorkflowInvalidTransition,
		"cannot transition from "+string(from)+" to "+string(to),
		map[string]string{"FromState": string(from), "ToState": string(to)},
	)
}

// versionConflict maps a store timestamp collision to the retryable code.
func versionConflict(err error) error {
	if errors.Is(err, storage.ErrVersionExists) {
		return apperrors.Wrap(apperrors.CodeVersionTimestamp, "version timestamp collision", err)
	}
	return err
}
