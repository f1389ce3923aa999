package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reqforge/reqforge/internal/requirements/domain"
	"github.com/reqforge/reqforge/internal/requirements/storage"
)

func insertVersionTx(ctx context.Context, tx *sql.Tx, version storage.Version) error {
	version.RequirementID = strings.TrimSpace(version.RequirementID)
	if version.RequirementID == "" {
		return fmt.Errorf("requirement id is required")
	}
	if version.EffectiveFrom.IsZero() {
		return fmt.Errorf("effective from is required")
	}
	fields := version.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	encodedFields, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode version fields: %w", err)
	}

	deleted := 0
	if version.Deleted {
		deleted = 1
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO requirement_versions (
		   requirement_id, effective_from, name, description, fields,
		   workflow_state, is_deleted, modified_by
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		version.RequirementID,
		toMillis(version.EffectiveFrom),
		version.Name,
		version.Description,
		string(encodedFields),
		string(version.State),
		deleted,
		version.ModifiedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrVersionExists
		}
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

const versionColumns = `requirement_id, effective_from, name, description, fields,
       workflow_state, is_deleted, modified_by`

func scanVersion(scanner interface{ Scan(...any) error }) (storage.Version, error) {
	var version storage.Version
	var effectiveFrom int64
	var encodedFields string
	var state string
	var deleted int
	err := scanner.Scan(
		&version.RequirementID,
		&effectiveFrom,
		&version.Name,
		&version.Description,
		&encodedFields,
		&state,
		&deleted,
		&version.ModifiedBy,
	)
	if err != nil {
		return storage.Version{}, err
	}
	version.EffectiveFrom = fromMillis(effectiveFrom)
	version.State = domain.WorkflowState(state)
	version.Deleted = deleted != 0
	if err := json.Unmarshal([]byte(encodedFields), &version.Fields); err != nil {
		return storage.Version{}, fmt.Errorf("decode version fields: %w", err)
	}
	return version, nil
}

// AppendVersion appends one snapshot for an existing requirement.
func (s *Store) AppendVersion(ctx context.Context, version storage.Version) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertVersionTx(ctx, tx, version)
	})
}

// SurfaceVersion appends the Proposed version of a silence requirement and
// allocates its reqId in the same transaction.
func (s *Store) SurfaceVersion(ctx context.Context, version storage.Version, containerID, prefix string) (storage.Allocation, error) {
	if strings.TrimSpace(prefix) == "" {
		return storage.Allocation{}, fmt.Errorf("prefix is required")
	}
	var allocation storage.Allocation
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertVersionTx(ctx, tx, version); err != nil {
			return err
		}
		alloc, err := allocateNextTx(ctx, tx, version.RequirementID, containerID, prefix)
		if err != nil {
			return err
		}
		allocation = alloc
		return nil
	})
	if err != nil {
		return storage.Allocation{}, err
	}
	return allocation, nil
}

// AppendVersionWithEndorsements appends one snapshot and its Pending
// endorsement rows in the same transaction.
func (s *Store) AppendVersionWithEndorsements(ctx context.Context, version storage.Version, endorsements []storage.Endorsement) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertVersionTx(ctx, tx, version); err != nil {
			return err
		}
		for _, endorsement := range endorsements {
			if err := insertEndorsementTx(ctx, tx, endorsement); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCurrentVersion returns the version with the greatest effective_from at
// or before asOf. ErrNotFound when no version exists or the latest one at
// that instant is deleted.
func (s *Store) GetCurrentVersion(ctx context.Context, requirementID string, asOf time.Time) (storage.Version, error) {
	if err := ctx.Err(); err != nil {
		return storage.Version{}, err
	}
	if err := s.ready(); err != nil {
		return storage.Version{}, err
	}
	requirementID = strings.TrimSpace(requirementID)
	if requirementID == "" {
		return storage.Version{}, fmt.Errorf("requirement id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+versionColumns+`
		   FROM requirement_versions
		  WHERE requirement_id = ? AND effective_from <= ?
		  ORDER BY effective_from DESC
		  LIMIT 1`,
		requirementID,
		toMillis(asOf),
	)
	version, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Version{}, storage.ErrNotFound
		}
		return storage.Version{}, fmt.Errorf("get current version: %w", err)
	}
	if version.Deleted {
		return storage.Version{}, storage.ErrNotFound
	}
	return version, nil
}

// ListHistory returns every version newest first, including deleted ones.
func (s *Store) ListHistory(ctx context.Context, requirementID string) ([]storage.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	requirementID = strings.TrimSpace(requirementID)
	if requirementID == "" {
		return nil, fmt.Errorf("requirement id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+versionColumns+`
		   FROM requirement_versions
		  WHERE requirement_id = ?
		  ORDER BY effective_from DESC`,
		requirementID,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var history []storage.Version
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("list history: %w", err)
		}
		history = append(history, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if len(history) == 0 {
		return nil, storage.ErrNotFound
	}
	return history, nil
}
