package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apperrors "github.com/reqforge/reqforge/internal/errors"
	"github.com/reqforge/reqforge/internal/requirements/domain"
	"github.com/reqforge/reqforge/internal/requirements/storage"
	"github.com/reqforge/reqforge/internal/requirements/storage/sqlite"
	"github.com/reqforge/reqforge/internal/telemetry"
)

func TestResolveReqID(t *testing.T) {
	engine, _ := newTestEngine(t)

	created, err := engine.Propose(context.Background(), goalInput("Raise conversion rate"))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	id, err := engine.ResolveReqID(context.Background(), "container-1", "G.1.1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != created.Requirement.ID {
		t.Fatalf("resolved id = %q, want %q", id, created.Requirement.ID)
	}

	if _, err := engine.ResolveReqID(context.Background(), "container-1", "G.1.0"); !apperrors.IsCode(err, apperrors.CodeReqIDMalformed) {
		t.Fatalf("malformed err = %v, want %s", err, apperrors.CodeReqIDMalformed)
	}
	if _, err := engine.ResolveReqID(context.Background(), "container-1", "G.1.9"); !apperrors.IsCode(err, apperrors.CodeReqIDNotFound) {
		t.Fatalf("unassigned err = %v, want %s", err, apperrors.CodeReqIDNotFound)
	}
	if _, err := engine.ResolveReqID(context.Background(), "container-2", "G.1.1"); !apperrors.IsCode(err, apperrors.CodeReqIDNotFound) {
		t.Fatalf("wrong container err = %v, want %s", err, apperrors.CodeReqIDNotFound)
	}
}

func TestProposeAssignsReqID(t *testing.T) {
	engine, _ := newTestEngine(t)

	view, err := engine.Propose(context.Background(), goalInput("Raise conversion rate"))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if view.Version.State != domain.StateProposed {
		t.Fatalf("state = %s, want %s", view.Version.State, domain.StateProposed)
	}
	if view.ReqID != "G.1.1" {
		t.Fatalf("reqId = %q, want %q", view.ReqID, "G.1.1")
	}

	second, err := engine.Propose(context.Background(), goalInput("Reduce churn"))
	if err != nil {
		t.Fatalf("propose second: %v", err)
	}
	if second.ReqID != "G.1.2" {
		t.Fatalf("second reqId = %q, want %q", second.ReqID, "G.1.2")
	}
}

func TestProposeValidation(t *testing.T) {
	engine, _ := newTestEngine(t)

	input := goalInput("Raise conversion rate")
	input.ContainerID = "  "
	if _, err := engine.Propose(context.Background(), input); !apperrors.IsCode(err, apperrors.CodeRequirementEmptyContainerID) {
		t.Fatalf("err = %v, want empty container code", err)
	}

	input = goalInput("")
	if _, err := engine.Propose(context.Background(), input); !apperrors.IsCode(err, apperrors.CodeRequirementNameEmpty) {
		t.Fatalf("err = %v, want empty name code", err)
	}

	input = goalInput("valid name")
	input.Kind = "EPIC"
	if _, err := engine.Propose(context.Background(), input); !apperrors.IsCode(err, apperrors.CodeRequirementInvalidKind) {
		t.Fatalf("err = %v, want invalid kind code", err)
	}
}

func TestProposePlaceholderStaysInSilence(t *testing.T) {
	engine, _ := newTestEngine(t)

	input := goalInput("Placeholder goal")
	input.Placeholder = true
	view, err := engine.Propose(context.Background(), input)
	if err != nil {
		t.Fatalf("propose placeholder: %v", err)
	}
	if view.Version.State != domain.StateSilence {
		t.Fatalf("state = %s, want %s", view.Version.State, domain.StateSilence)
	}
	if view.ReqID != "" {
		t.Fatalf("reqId = %q, want empty in silence", view.ReqID)
	}
}

func TestSurfaceAllocatesReqID(t *testing.T) {
	engine, _ := newTestEngine(t)

	input := goalInput("Placeholder goal")
	input.Placeholder = true
	created, err := engine.Propose(context.Background(), input)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	view, err := engine.Surface(context.Background(), created.Requirement.ID, "author")
	if err != nil {
		t.Fatalf("surface: %v", err)
	}
	if view.Version.State != domain.StateProposed {
		t.Fatalf("state = %s, want %s", view.Version.State, domain.StateProposed)
	}
	if view.ReqID != "G.1.1" {
		t.Fatalf("reqId = %q, want %q", view.ReqID, "G.1.1")
	}

	// A surfaced requirement cannot be surfaced again.
	if _, err := engine.Surface(context.Background(), created.Requirement.ID, "author"); !apperrors.IsCode(err, apperrors.CodeWorkflowInvalidTransition) {
		t.Fatalf("second surface err = %v, want invalid transition", err)
	}
}

func TestSurfaceRejectsSilenceOnlyKind(t *testing.T) {
	engine, _ := newTestEngine(t)

	view, err := engine.Propose(context.Background(), ProposeInput{
		Kind:        domain.KindParsedRequirements,
		ContainerID: "container-1",
		ActorID:     "author",
		Content:     domain.Content{Name: "Imported batch"},
	})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if _, err := engine.Surface(context.Background(), view.Requirement.ID, "author"); !apperrors.IsCode(err, apperrors.CodeWorkflowKindNotReviewable) {
		t.Fatalf("err = %v, want kind not reviewable", err)
	}
}

func TestSubmitForReviewCreatesPendingSet(t *testing.T) {
	engine, _ := newTestEngine(t)

	created, err := engine.Propose(context.Background(), goalInput("Raise conversion rate"))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	view, err := engine.SubmitForReview(context.Background(), created.Requirement.ID, "author")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if view.Version.State != domain.StateReview {
		t.Fatalf("state = %s, want %s", view.Version.State, domain.StateReview)
	}

	endorsements, err := engine.ListEndorsements(context.Background(), created.Requirement.ID)
	if err != nil {
		t.Fatalf("list endorsements: %v", err)
	}
	// One role row per eligible endorser plus one system row per
	// automated category in the goal's required set.
	spec, err := domain.SpecFor(domain.KindGoal)
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	wantRows := len(spec.RequiredCategories) - 1 + 2
	if len(endorsements) != wantRows {
		t.Fatalf("len(endorsements) = %d, want %d", len(endorsements), wantRows)
	}
	roleRows := 0
	for _, endorsement := range endorsements {
		if endorsement.Status != domain.EndorsementPending {
			t.Fatalf("status = %s, want %s", endorsement.Status, domain.EndorsementPending)
		}
		if endorsement.Category == domain.CategoryRole {
			roleRows++
		} else if endorsement.EndorsedBy != domain.SystemEndorserID {
			t.Fatalf("automated row endorsed by %q, want %q", endorsement.EndorsedBy, domain.SystemEndorserID)
		}
	}
	if roleRows != 2 {
		t.Fatalf("role rows = %d, want 2", roleRows)
	}
}

func TestConcurrentSubmitsOnDistinctRequirements(t *testing.T) {
	engine, _ := newTestEngine(t)

	names := []string{"Raise conversion rate", "Reduce churn", "Grow referrals", "Cut onboarding time"}
	ids := make([]string, len(names))
	for i, name := range names {
		created, err := engine.Propose(context.Background(), goalInput(name))
		if err != nil {
			t.Fatalf("propose %s: %v", name, err)
		}
		ids[i] = created.Requirement.ID
	}

	errs := make(chan error, len(ids))
	for _, id := range ids {
		go func() {
			_, err := engine.SubmitForReview(context.Background(), id, "author")
			errs <- err
		}()
	}
	for range ids {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent submit: %v", err)
		}
	}

	spec, err := domain.SpecFor(domain.KindGoal)
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	wantRows := len(spec.RequiredCategories) - 1 + 2
	for _, id := range ids {
		view, err := engine.GetCurrent(context.Background(), id, time.Time{})
		if err != nil {
			t.Fatalf("get current %s: %v", id, err)
		}
		if view.Version.State != domain.StateReview {
			t.Fatalf("state = %s, want %s", view.Version.State, domain.StateReview)
		}
		endorsements, err := engine.ListEndorsements(context.Background(), id)
		if err != nil {
			t.Fatalf("list endorsements %s: %v", id, err)
		}
		if len(endorsements) != wantRows {
			t.Fatalf("len(endorsements) = %d, want %d", len(endorsements), wantRows)
		}
		for _, endorsement := range endorsements {
			if endorsement.RequirementID != id {
				t.Fatalf("endorsement belongs to %s, want %s", endorsement.RequirementID, id)
			}
		}
	}
}

func TestSubmitForReviewRequiresProposed(t *testing.T) {
	engine, _ := newTestEngine(t)

	input := goalInput("Placeholder goal")
	input.Placeholder = true
	created, err := engine.Propose(context.Background(), input)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if _, err := engine.SubmitForReview(context.Background(), created.Requirement.ID, "author"); !apperrors.IsCode(err, apperrors.CodeWorkflowInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
}

func TestFullApprovalActivates(t *testing.T) {
	engine, _ := newTestEngine(t)

	id := submitGoal(t, engine)

	// Resolve every automated category with a passing check.
	for _, category := range domain.AutomatedCategories() {
		view, err := engine.RecordCheckResult(context.Background(), id, category, CheckResult{Verdict: VerdictPass, Score: 0.9})
		if err != nil {
			t.Fatalf("record %s: %v", category, err)
		}
		if view.Version.State != domain.StateReview {
			t.Fatalf("state after %s = %s, want %s", category, view.Version.State, domain.StateReview)
		}
	}

	// The role approval completes the set and activates.
	view, err := engine.ApproveEndorsement(context.Background(), id, domain.CategoryRole, "alice", "approved")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if view.Version.State != domain.StateActive {
		t.Fatalf("state = %s, want %s", view.Version.State, domain.StateActive)
	}
}

func TestRejectionCascadesImmediately(t *testing.T) {
	engine, _ := newTestEngine(t)

	id := submitGoal(t, engine)

	view, err := engine.RejectEndorsement(context.Background(), id, domain.CategoryRole, "alice", "goal is not measurable")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if view.Version.State != domain.StateRejected {
		t.Fatalf("state = %s, want %s", view.Version.State, domain.StateRejected)
	}

	// Revise returns the requirement to Proposed.
	view, err = engine.Revise(context.Background(), id, "author")
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	if view.Version.State != domain.StateProposed {
		t.Fatalf("state after revise = %s, want %s", view.Version.State, domain.StateProposed)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	engine, _ := newTestEngine(t)

	id := submitGoal(t, engine)

	if _, err := engine.RejectEndorsement(context.Background(), id, domain.CategoryRole, "alice", "  "); !apperrors.IsCode(err, apperrors.CodeEndorsementReasonRequired) {
		t.Fatalf("err = %v, want reason required", err)
	}
}

func TestApproveRequiresCapability(t *testing.T) {
	engine, _ := newTestEngine(t)

	id := submitGoal(t, engine)

	if _, err := engine.ApproveEndorsement(context.Background(), id, domain.CategoryRole, "mallory", ""); !apperrors.IsCode(err, apperrors.CodeEndorsementPermissionDenied) {
		t.Fatalf("err = %v, want permission denied", err)
	}
}

func TestApproveRejectsAutomatedCategory(t *testing.T) {
	engine, _ := newTestEngine(t)

	id := submitGoal(t, engine)

	if _, err := engine.ApproveEndorsement(context.Background(), id, domain.CategoryReadability, "alice", ""); !apperrors.IsCode(err, apperrors.CodeEndorsementPermissionDenied) {
		t.Fatalf("err = %v, want permission denied for automated category", err)
	}
}

func TestRecordCheckResultRejectsManualCategory(t *testing.T) {
	engine, _ := newTestEngine(t)

	id := submitGoal(t, engine)

	if _, err := engine.RecordCheckResult(context.Background(), id, domain.CategoryRole, CheckResult{Verdict: VerdictPass}); !apperrors.IsCode(err, apperrors.CodeEndorsementInvalidCategory) {
		t.Fatalf("err = %v, want invalid category", err)
	}
}

func TestRecordCheckResultErrorStaysPending(t *testing.T) {
	engine, _ := newTestEngine(t)

	id := submitGoal(t, engine)

	view, err := engine.RecordCheckResult(context.Background(), id, domain.CategoryReadability, CheckResult{
		Verdict: VerdictError,
		Detail:  "check service timeout",
	})
	if err != nil {
		t.Fatalf("record errored check: %v", err)
	}
	if view.Version.State != domain.StateReview {
		t.Fatalf("state = %s, want %s", view.Version.State, domain.StateReview)
	}

	endorsements, err := engine.ListEndorsements(context.Background(), id)
	if err != nil {
		t.Fatalf("list endorsements: %v", err)
	}
	for _, endorsement := range endorsements {
		if endorsement.Category != domain.CategoryReadability {
			continue
		}
		if endorsement.Status != domain.EndorsementPending {
			t.Fatalf("status = %s, want pending", endorsement.Status)
		}
		if endorsement.CheckDetails == nil || !endorsement.CheckDetails.Retryable {
			t.Fatalf("check details = %+v, want retryable", endorsement.CheckDetails)
		}
	}
}

func TestRecordCheckResultFailRejects(t *testing.T) {
	engine, _ := newTestEngine(t)

	id := submitGoal(t, engine)

	view, err := engine.RecordCheckResult(context.Background(), id, domain.CategoryAmbiguity, CheckResult{
		Verdict:  VerdictFail,
		Findings: []string{"the word 'fast' is ambiguous"},
	})
	if err != nil {
		t.Fatalf("record failing check: %v", err)
	}
	if view.Version.State != domain.StateRejected {
		t.Fatalf("state = %s, want %s", view.Version.State, domain.StateRejected)
	}
}

func TestEditInReviewResetsEndorsements(t *testing.T) {
	engine, _ := newTestEngine(t)

	id := submitGoal(t, engine)

	// Resolve one automated category before the edit.
	if _, err := engine.RecordCheckResult(context.Background(), id, domain.CategoryReadability, CheckResult{Verdict: VerdictPass}); err != nil {
		t.Fatalf("record check: %v", err)
	}

	view, err := engine.Edit(context.Background(), id, "author", domain.Content{
		Name:   "Raise conversion rate by 5%",
		Fields: map[string]string{"priority": "high"},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if view.Version.State != domain.StateReview {
		t.Fatalf("state = %s, want %s (edit keeps state)", view.Version.State, domain.StateReview)
	}

	endorsements, err := engine.ListEndorsements(context.Background(), id)
	if err != nil {
		t.Fatalf("list endorsements: %v", err)
	}
	for _, endorsement := range endorsements {
		if endorsement.Status != domain.EndorsementPending {
			t.Fatalf("%s status = %s, want pending after edit", endorsement.Category, endorsement.Status)
		}
	}
}

func TestRemoveRenumbersScope(t *testing.T) {
	engine, _ := newTestEngine(t)

	first := activateGoal(t, engine, "First goal")
	second := activateGoal(t, engine, "Second goal")
	third := activateGoal(t, engine, "Third goal")

	if err := engine.Remove(context.Background(), first, "author"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	view, err := engine.GetCurrent(context.Background(), second, time.Time{})
	if err != nil {
		t.Fatalf("get second: %v", err)
	}
	if view.ReqID != "G.1.1" {
		t.Fatalf("second reqId = %q, want %q", view.ReqID, "G.1.1")
	}
	view, err = engine.GetCurrent(context.Background(), third, time.Time{})
	if err != nil {
		t.Fatalf("get third: %v", err)
	}
	if view.ReqID != "G.1.2" {
		t.Fatalf("third reqId = %q, want %q", view.ReqID, "G.1.2")
	}

	if _, err := engine.GetCurrent(context.Background(), first, time.Time{}); !apperrors.IsCode(err, apperrors.CodeVersionNotFound) {
		t.Fatalf("removed read err = %v, want version not found", err)
	}
}

func TestRemoveRequiresActive(t *testing.T) {
	engine, _ := newTestEngine(t)

	created, err := engine.Propose(context.Background(), goalInput("Raise conversion rate"))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := engine.Remove(context.Background(), created.Requirement.ID, "author"); !apperrors.IsCode(err, apperrors.CodeWorkflowInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
}

func TestGetCurrentAsOf(t *testing.T) {
	engine, clock := newTestEngine(t)

	created, err := engine.Propose(context.Background(), goalInput("Raise conversion rate"))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	beforeEdit := clock.last

	if _, err := engine.Edit(context.Background(), created.Requirement.ID, "author", domain.Content{
		Name:   "Raise conversion rate by 5%",
		Fields: map[string]string{"priority": "high"},
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	view, err := engine.GetCurrent(context.Background(), created.Requirement.ID, time.Time{})
	if err != nil {
		t.Fatalf("get current: %v", err)
	}
	if view.Version.Name != "Raise conversion rate by 5%" {
		t.Fatalf("current name = %q, want edited name", view.Version.Name)
	}

	view, err = engine.GetCurrent(context.Background(), created.Requirement.ID, beforeEdit)
	if err != nil {
		t.Fatalf("get as-of: %v", err)
	}
	if view.Version.Name != "Raise conversion rate" {
		t.Fatalf("as-of name = %q, want original name", view.Version.Name)
	}
}

func TestGetHistory(t *testing.T) {
	engine, _ := newTestEngine(t)

	id := submitGoal(t, engine)

	requirement, versions, err := engine.GetHistory(context.Background(), id)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if requirement.ID != id {
		t.Fatalf("requirement.ID = %q, want %q", requirement.ID, id)
	}
	if len(versions) != 2 {
		t.Fatalf("len(versions) = %d, want 2", len(versions))
	}
	if versions[0].State != domain.StateReview || versions[1].State != domain.StateProposed {
		t.Fatalf("states = %s, %s; want REVIEW then PROPOSED", versions[0].State, versions[1].State)
	}
}

func TestOperationsOnMissingRequirement(t *testing.T) {
	engine, _ := newTestEngine(t)

	if _, err := engine.GetCurrent(context.Background(), "missing", time.Time{}); !apperrors.IsCode(err, apperrors.CodeRequirementNotFound) {
		t.Fatalf("get err = %v, want requirement not found", err)
	}
	if _, err := engine.SubmitForReview(context.Background(), "missing", "author"); !apperrors.IsCode(err, apperrors.CodeRequirementNotFound) {
		t.Fatalf("submit err = %v, want requirement not found", err)
	}
}

func TestTelemetryEventSeverities(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "requirements.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	recorder := &recordingTelemetry{}
	clock := &stepClock{last: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	engine := NewEngine(store, fakeDirectory{}).
		WithTelemetry(telemetry.NewEmitter(recorder)).
		WithClock(clock.now)

	id := submitGoal(t, engine)
	if _, err := engine.RecordCheckResult(context.Background(), id, domain.CategoryReadability, CheckResult{
		Verdict: VerdictError,
		Detail:  "check service timeout",
	}); err != nil {
		t.Fatalf("record errored check: %v", err)
	}
	if _, err := engine.RejectEndorsement(context.Background(), id, domain.CategoryRole, "alice", "goal is not measurable"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	severities := map[string]string{}
	for _, event := range recorder.events {
		severities[event.EventName] = event.Severity
	}
	want := map[string]string{
		"requirements.proposed":      "INFO",
		"requirements.submitted":     "INFO",
		"requirements.check_errored": "ERROR",
		"requirements.rejected":      "WARN",
	}
	for name, severity := range want {
		if severities[name] != severity {
			t.Fatalf("severity[%s] = %q, want %q", name, severities[name], severity)
		}
	}
}

// recordingTelemetry captures emitted events for assertions.
type recordingTelemetry struct {
	events []storage.TelemetryEvent
}

func (r *recordingTelemetry) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	r.events = append(r.events, event)
	return nil
}

// stepClock hands out strictly increasing timestamps so consecutive
// versions never collide on effective_from.
type stepClock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = c.last.Add(time.Second)
	return c.last
}

// fakeDirectory grants alice product ownership and bob the goals family.
type fakeDirectory struct{}

func (fakeDirectory) Capabilities(ctx context.Context, actorID, containerID string) (domain.Capabilities, error) {
	switch actorID {
	case "alice":
		return domain.Capabilities{ProductOwner: true}, nil
	case "bob":
		return domain.Capabilities{EndorseGoals: true}, nil
	}
	return domain.Capabilities{}, nil
}

func (fakeDirectory) EligibleEndorsers(ctx context.Context, containerID string, family domain.Family) ([]string, error) {
	if family == domain.FamilyGoals {
		return []string{"alice", "bob"}, nil
	}
	return []string{"alice"}, nil
}

func newTestEngine(t *testing.T) (*Engine, *stepClock) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "requirements.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	clock := &stepClock{last: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	engine := NewEngine(store, fakeDirectory{}).
		WithTelemetry(telemetry.NewEmitter(store)).
		WithClock(clock.now)
	return engine, clock
}

func goalInput(name string) ProposeInput {
	return ProposeInput{
		Kind:        domain.KindGoal,
		ContainerID: "container-1",
		ActorID:     "author",
		Content: domain.Content{
			Name:        name,
			Description: "a goal statement",
			Fields:      map[string]string{"priority": "high"},
		},
	}
}

func submitGoal(t *testing.T, engine *Engine) string {
	t.Helper()
	created, err := engine.Propose(context.Background(), goalInput("Raise conversion rate"))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := engine.SubmitForReview(context.Background(), created.Requirement.ID, "author"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	return created.Requirement.ID
}

// activateGoal walks a goal through the full approval path.
func activateGoal(t *testing.T, engine *Engine, name string) string {
	t.Helper()
	created, err := engine.Propose(context.Background(), goalInput(name))
	if err != nil {
		t.Fatalf("propose %s: %v", name, err)
	}
	id := created.Requirement.ID
	if _, err := engine.SubmitForReview(context.Background(), id, "author"); err != nil {
		t.Fatalf("submit %s: %v", name, err)
	}
	for _, category := range domain.AutomatedCategories() {
		if _, err := engine.RecordCheckResult(context.Background(), id, category, CheckResult{Verdict: VerdictPass}); err != nil {
			t.Fatalf("record %s for %s: %v", category, name, err)
		}
	}
	if _, err := engine.ApproveEndorsement(context.Background(), id, domain.CategoryRole, "alice", ""); err != nil {
		t.Fatalf("approve %s: %v", name, err)
	}
	return id
}
