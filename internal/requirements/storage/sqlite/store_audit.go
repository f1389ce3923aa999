package sqlite

import (
	"context"
	"fmt"

	"github.com/reqforge/reqforge/internal/requirements/storage"
)

var _ storage.AuditStore = (*Store)(nil)

// ListScopes returns every (container, prefix) pair holding allocations.
func (s *Store) ListScopes(ctx context.Context) ([]storage.Scope, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT DISTINCT container_id, prefix FROM req_id_allocations
		ORDER BY container_id, prefix`)
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	defer rows.Close()

	var scopes []storage.Scope
	for rows.Next() {
		var scope storage.Scope
		if err := rows.Scan(&scope.ContainerID, &scope.Prefix); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

// ListRequirementIDs returns every requirement identity id.
func (s *Store) ListRequirementIDs(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id FROM requirements ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list requirement ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan requirement id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
