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

func allocateNextTx(ctx context.Context, tx *sql.Tx, requirementID, containerID, prefix string) (storage.Allocation, error) {
	var max sql.NullInt64
	row := tx.QueryRowContext(
		ctx,
		`SELECT MAX(number) FROM req_id_allocations
		  WHERE container_id = ? AND prefix = ?`,
		containerID,
		prefix,
	)
	if err := row.Scan(&max); err != nil {
		return storage.Allocation{}, fmt.Errorf("scan max reqId number: %w", err)
	}
	next := 1
	if max.Valid {
		next = int(max.Int64) + 1
	}
	// Malformed reqIds never reach the table.
	if _, err := domain.FormatReqID(prefix, next); err != nil {
		return storage.Allocation{}, fmt.Errorf("allocate reqId: %w", err)
	}

	allocation := storage.Allocation{
		RequirementID: requirementID,
		ContainerID:   containerID,
		Prefix:        prefix,
		Number:        next,
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO req_id_allocations (requirement_id, container_id, prefix, number)
		 VALUES (?, ?, ?, ?)`,
		allocation.RequirementID,
		allocation.ContainerID,
		allocation.Prefix,
		allocation.Number,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.Allocation{}, storage.ErrAlreadyExists
		}
		return storage.Allocation{}, fmt.Errorf("allocate reqId: %w", err)
	}
	return allocation, nil
}

// releaseTx removes the requirement's allocation and closes the numbering
// gap: every number above the released one in the same (container, prefix)
// scope is decremented by one, in ascending order so the unique constraint
// never trips on the way down.
func releaseTx(ctx context.Context, tx *sql.Tx, requirementID string) error {
	var containerID, prefix string
	var number int
	row := tx.QueryRowContext(
		ctx,
		`SELECT container_id, prefix, number FROM req_id_allocations
		  WHERE requirement_id = ?`,
		requirementID,
	)
	if err := row.Scan(&containerID, &prefix, &number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Silence requirements never acquired a number.
			return nil
		}
		return fmt.Errorf("load allocation: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM req_id_allocations WHERE requirement_id = ?`,
		requirementID,
	); err != nil {
		return fmt.Errorf("release reqId: %w", err)
	}

	rows, err := tx.QueryContext(
		ctx,
		`SELECT requirement_id, number FROM req_id_allocations
		  WHERE container_id = ? AND prefix = ? AND number > ?
		  ORDER BY number ASC`,
		containerID,
		prefix,
		number,
	)
	if err != nil {
		return fmt.Errorf("scan renumber candidates: %w", err)
	}
	type shift struct {
		requirementID string
		number        int
	}
	var shifts []shift
	for rows.Next() {
		var item shift
		if err := rows.Scan(&item.requirementID, &item.number); err != nil {
			rows.Close()
			return fmt.Errorf("scan renumber candidates: %w", err)
		}
		shifts = append(shifts, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("scan renumber candidates: %w", err)
	}
	rows.Close()

	for _, item := range shifts {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE req_id_allocations SET number = ? WHERE requirement_id = ?`,
			item.number-1,
			item.requirementID,
		); err != nil {
			return fmt.Errorf("renumber reqId %d: %w", item.number, err)
		}
	}
	return nil
}

// GetAllocation returns the reqId assignment for one requirement.
func (s *Store) GetAllocation(ctx context.Context, requirementID string) (storage.Allocation, error) {
	if err := ctx.Err(); err != nil {
		return storage.Allocation{}, err
	}
	if err := s.ready(); err != nil {
		return storage.Allocation{}, err
	}
	requirementID = strings.TrimSpace(requirementID)
	if requirementID == "" {
		return storage.Allocation{}, fmt.Errorf("requirement id is required")
	}

	var allocation storage.Allocation
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT requirement_id, container_id, prefix, number
		   FROM req_id_allocations
		  WHERE requirement_id = ?`,
		requirementID,
	)
	err := row.Scan(&allocation.RequirementID, &allocation.ContainerID, &allocation.Prefix, &allocation.Number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Allocation{}, storage.ErrNotFound
		}
		return storage.Allocation{}, fmt.Errorf("get allocation: %w", err)
	}
	return allocation, nil
}

// FindAllocation resolves a (container, prefix, number) triple to its holder.
func (s *Store) FindAllocation(ctx context.Context, containerID, prefix string, number int) (storage.Allocation, error) {
	if err := ctx.Err(); err != nil {
		return storage.Allocation{}, err
	}
	if err := s.ready(); err != nil {
		return storage.Allocation{}, err
	}

	var allocation storage.Allocation
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT requirement_id, container_id, prefix, number
		   FROM req_id_allocations
		  WHERE container_id = ? AND prefix = ? AND number = ?`,
		containerID,
		prefix,
		number,
	)
	err := row.Scan(&allocation.RequirementID, &allocation.ContainerID, &allocation.Prefix, &allocation.Number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Allocation{}, storage.ErrNotFound
		}
		return storage.Allocation{}, fmt.Errorf("find allocation: %w", err)
	}
	return allocation, nil
}

// ListAllocations returns one scope's allocations ordered by number.
func (s *Store) ListAllocations(ctx context.Context, containerID, prefix string) ([]storage.Allocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT requirement_id, container_id, prefix, number
		   FROM req_id_allocations
		  WHERE container_id = ? AND prefix = ?
		  ORDER BY number ASC`,
		containerID,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocations []storage.Allocation
	for rows.Next() {
		var allocation storage.Allocation
		if err := rows.Scan(&allocation.RequirementID, &allocation.ContainerID, &allocation.Prefix, &allocation.Number); err != nil {
			return nil, fmt.Errorf("list allocations: %w", err)
		}
		allocations = append(allocations, allocation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocations, nil
}

// RemoveRequirement appends the deletion version and releases the
// requirement's reqId, renumbering the scope, in one transaction.
func (s *Store) RemoveRequirement(ctx context.Context, version storage.Version) error {
	if !version.Deleted {
		return fmt.Errorf("removal version must be marked deleted")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertVersionTx(ctx, tx, version); err != nil {
			return err
		}
		return releaseTx(ctx, tx, version.RequirementID)
	})
}
