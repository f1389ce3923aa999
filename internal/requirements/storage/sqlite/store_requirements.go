package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/reqforge/reqforge/internal/requirements/domain"
	"github.com/reqforge/reqforge/internal/requirements/storage"
)

// CreateRequirement inserts the identity record and first version. When
// prefix is non-empty the next reqId number for (container, prefix) is
// allocated in the same transaction.
func (s *Store) CreateRequirement(ctx context.Context, requirement storage.Requirement, version storage.Version, prefix string) (*storage.Allocation, error) {
	requirement.ID = strings.TrimSpace(requirement.ID)
	requirement.ContainerID = strings.TrimSpace(requirement.ContainerID)
	if requirement.ID == "" {
		return nil, fmt.Errorf("requirement id is required")
	}
	if requirement.ContainerID == "" {
		return nil, fmt.Errorf("container id is required")
	}

	var allocation *storage.Allocation
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO requirements (id, kind, container_id, created_by, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			requirement.ID,
			string(requirement.Kind),
			requirement.ContainerID,
			requirement.CreatedBy,
			toMillis(requirement.CreatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrAlreadyExists
			}
			return fmt.Errorf("create requirement: %w", err)
		}
		if err := insertVersionTx(ctx, tx, version); err != nil {
			return err
		}
		if prefix != "" {
			alloc, err := allocateNextTx(ctx, tx, requirement.ID, requirement.ContainerID, prefix)
			if err != nil {
				return err
			}
			allocation = &alloc
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return allocation, nil
}

// GetRequirement returns the identity record for one requirement.
func (s *Store) GetRequirement(ctx context.Context, requirementID string) (storage.Requirement, error) {
	if err := ctx.Err(); err != nil {
		return storage.Requirement{}, err
	}
	if err := s.ready(); err != nil {
		return storage.Requirement{}, err
	}
	requirementID = strings.TrimSpace(requirementID)
	if requirementID == "" {
		return storage.Requirement{}, fmt.Errorf("requirement id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, kind, container_id, created_by, created_at
		   FROM requirements
		  WHERE id = ?`,
		requirementID,
	)

	var requirement storage.Requirement
	var kind string
	var createdAt int64
	err := row.Scan(&requirement.ID, &kind, &requirement.ContainerID, &requirement.CreatedBy, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Requirement{}, storage.ErrNotFound
		}
		return storage.Requirement{}, fmt.Errorf("get requirement: %w", err)
	}
	requirement.Kind = domain.Kind(kind)
	requirement.CreatedAt = fromMillis(createdAt)
	return requirement, nil
}
