package reqaudit

import (
	"context"
	"time"

	"github.com/reqforge/reqforge/internal/requirements/domain"
	"github.com/reqforge/reqforge/internal/requirements/storage"
)

// fakeStore serves canned audit scans so tests can stage inconsistencies
// the real store's transactions never produce.
type fakeStore struct {
	scopes       []storage.Scope
	allocations  map[storage.Scope][]storage.Allocation
	requirements map[string]storage.Requirement
	versions     map[string]storage.Version
	endorsements map[string][]storage.Endorsement
	closed       bool
}

func (f *fakeStore) ListScopes(ctx context.Context) ([]storage.Scope, error) {
	return f.scopes, nil
}

func (f *fakeStore) ListRequirementIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for id := range f.requirements {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) GetRequirement(ctx context.Context, requirementID string) (storage.Requirement, error) {
	requirement, ok := f.requirements[requirementID]
	if !ok {
		return storage.Requirement{}, storage.ErrNotFound
	}
	return requirement, nil
}

func (f *fakeStore) GetCurrentVersion(ctx context.Context, requirementID string, asOf time.Time) (storage.Version, error) {
	version, ok := f.versions[requirementID]
	if !ok || version.Deleted {
		return storage.Version{}, storage.ErrNotFound
	}
	return version, nil
}

func (f *fakeStore) GetAllocation(ctx context.Context, requirementID string) (storage.Allocation, error) {
	for _, allocations := range f.allocations {
		for _, allocation := range allocations {
			if allocation.RequirementID == requirementID {
				return allocation, nil
			}
		}
	}
	return storage.Allocation{}, storage.ErrNotFound
}

func (f *fakeStore) ListAllocations(ctx context.Context, containerID, prefix string) ([]storage.Allocation, error) {
	return f.allocations[storage.Scope{ContainerID: containerID, Prefix: prefix}], nil
}

func (f *fakeStore) ListEndorsements(ctx context.Context, requirementID string, effectiveFrom time.Time) ([]storage.Endorsement, error) {
	return f.endorsements[requirementID], nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func fakeRequirement(id string, kind domain.Kind) storage.Requirement {
	return storage.Requirement{ID: id, Kind: kind, ContainerID: "container-1"}
}

func fakeVersion(id string, state domain.WorkflowState) storage.Version {
	return storage.Version{
		RequirementID: id,
		EffectiveFrom: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Name:          "requirement name",
		State:         state,
	}
}
