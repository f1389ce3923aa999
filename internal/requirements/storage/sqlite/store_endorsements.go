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

func insertEndorsementTx(ctx context.Context, tx *sql.Tx, endorsement storage.Endorsement) error {
	endorsement.RequirementID = strings.TrimSpace(endorsement.RequirementID)
	if endorsement.RequirementID == "" {
		return fmt.Errorf("requirement id is required")
	}
	if endorsement.EndorsedBy == "" {
		return fmt.Errorf("endorser id is required")
	}

	var endorsedAt, rejectedAt any
	if !endorsement.EndorsedAt.IsZero() {
		endorsedAt = toMillis(endorsement.EndorsedAt)
	}
	if !endorsement.RejectedAt.IsZero() {
		rejectedAt = toMillis(endorsement.RejectedAt)
	}
	var checkDetails any
	if endorsement.CheckDetails != nil {
		encoded, err := json.Marshal(endorsement.CheckDetails)
		if err != nil {
			return fmt.Errorf("encode check details: %w", err)
		}
		checkDetails = string(encoded)
	}
	superseded := 0
	if endorsement.Superseded {
		superseded = 1
	}

	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO endorsements (
		   requirement_id, effective_from, category, status, endorsed_by,
		   endorsed_at, rejected_at, comments, check_details, superseded
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		endorsement.RequirementID,
		toMillis(endorsement.EffectiveFrom),
		string(endorsement.Category),
		string(endorsement.Status),
		endorsement.EndorsedBy,
		endorsedAt,
		rejectedAt,
		endorsement.Comments,
		checkDetails,
		superseded,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert endorsement: %w", err)
	}
	return nil
}

const endorsementColumns = `requirement_id, effective_from, category, status, endorsed_by,
       endorsed_at, rejected_at, comments, check_details, superseded`

func scanEndorsement(scanner interface{ Scan(...any) error }) (storage.Endorsement, error) {
	var endorsement storage.Endorsement
	var effectiveFrom int64
	var category, status string
	var endorsedAt, rejectedAt sql.NullInt64
	var checkDetails sql.NullString
	var superseded int
	err := scanner.Scan(
		&endorsement.RequirementID,
		&effectiveFrom,
		&category,
		&status,
		&endorsement.EndorsedBy,
		&endorsedAt,
		&rejectedAt,
		&endorsement.Comments,
		&checkDetails,
		&superseded,
	)
	if err != nil {
		return storage.Endorsement{}, err
	}
	endorsement.EffectiveFrom = fromMillis(effectiveFrom)
	endorsement.Category = domain.Category(category)
	endorsement.Status = domain.EndorsementStatus(status)
	if endorsedAt.Valid {
		endorsement.EndorsedAt = fromMillis(endorsedAt.Int64)
	}
	if rejectedAt.Valid {
		endorsement.RejectedAt = fromMillis(rejectedAt.Int64)
	}
	if checkDetails.Valid && checkDetails.String != "" {
		var details storage.CheckDetails
		if err := json.Unmarshal([]byte(checkDetails.String), &details); err != nil {
			return storage.Endorsement{}, fmt.Errorf("decode check details: %w", err)
		}
		endorsement.CheckDetails = &details
	}
	endorsement.Superseded = superseded != 0
	return endorsement, nil
}

// GetEndorsement returns the non-superseded row for one endorsement key.
func (s *Store) GetEndorsement(ctx context.Context, key storage.EndorsementKey) (storage.Endorsement, error) {
	if err := ctx.Err(); err != nil {
		return storage.Endorsement{}, err
	}
	if err := s.ready(); err != nil {
		return storage.Endorsement{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+endorsementColumns+`
		   FROM endorsements
		  WHERE requirement_id = ? AND effective_from = ? AND category = ?
		    AND endorsed_by = ? AND superseded = 0`,
		key.RequirementID,
		toMillis(key.EffectiveFrom),
		string(key.Category),
		key.EndorsedBy,
	)
	endorsement, err := scanEndorsement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Endorsement{}, storage.ErrNotFound
		}
		return storage.Endorsement{}, fmt.Errorf("get endorsement: %w", err)
	}
	return endorsement, nil
}

// ListEndorsements returns the non-superseded rows for one version.
func (s *Store) ListEndorsements(ctx context.Context, requirementID string, effectiveFrom time.Time) ([]storage.Endorsement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+endorsementColumns+`
		   FROM endorsements
		  WHERE requirement_id = ? AND effective_from = ? AND superseded = 0
		  ORDER BY category ASC, endorsed_by ASC`,
		requirementID,
		toMillis(effectiveFrom),
	)
	if err != nil {
		return nil, fmt.Errorf("list endorsements: %w", err)
	}
	defer rows.Close()

	var endorsements []storage.Endorsement
	for rows.Next() {
		endorsement, err := scanEndorsement(rows)
		if err != nil {
			return nil, fmt.Errorf("list endorsements: %w", err)
		}
		endorsements = append(endorsements, endorsement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list endorsements: %w", err)
	}
	return endorsements, nil
}

func listJudgmentsTx(ctx context.Context, tx *sql.Tx, requirementID string, effectiveFrom time.Time) ([]domain.CategoryJudgment, error) {
	rows, err := tx.QueryContext(
		ctx,
		`SELECT category, status
		   FROM endorsements
		  WHERE requirement_id = ? AND effective_from = ? AND superseded = 0`,
		requirementID,
		toMillis(effectiveFrom),
	)
	if err != nil {
		return nil, fmt.Errorf("list judgments: %w", err)
	}
	defer rows.Close()

	var judgments []domain.CategoryJudgment
	for rows.Next() {
		var category, status string
		if err := rows.Scan(&category, &status); err != nil {
			return nil, fmt.Errorf("list judgments: %w", err)
		}
		judgments = append(judgments, domain.CategoryJudgment{
			Category: domain.Category(category),
			Status:   domain.EndorsementStatus(status),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list judgments: %w", err)
	}
	return judgments, nil
}

// resolvePendingTx flips one Pending row to a terminal status. It returns
// ErrNotFound for a missing row and ErrAlreadyResolved for a resolved one.
func resolvePendingTx(ctx context.Context, tx *sql.Tx, key storage.EndorsementKey, status domain.EndorsementStatus, resolvedAt time.Time, comments string) error {
	var current string
	row := tx.QueryRowContext(
		ctx,
		`SELECT status FROM endorsements
		  WHERE requirement_id = ? AND effective_from = ? AND category = ?
		    AND endorsed_by = ? AND superseded = 0`,
		key.RequirementID,
		toMillis(key.EffectiveFrom),
		string(key.Category),
		key.EndorsedBy,
	)
	if err := row.Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("load endorsement: %w", err)
	}
	if domain.EndorsementStatus(current) != domain.EndorsementPending {
		return storage.ErrAlreadyResolved
	}

	timestampColumn := "endorsed_at"
	if status == domain.EndorsementRejected {
		timestampColumn = "rejected_at"
	}
	_, err := tx.ExecContext(
		ctx,
		`UPDATE endorsements
		    SET status = ?, `+timestampColumn+` = ?, comments = ?
		  WHERE requirement_id = ? AND effective_from = ? AND category = ?
		    AND endorsed_by = ? AND superseded = 0`,
		string(status),
		toMillis(resolvedAt),
		comments,
		key.RequirementID,
		toMillis(key.EffectiveFrom),
		string(key.Category),
		key.EndorsedBy,
	)
	if err != nil {
		return fmt.Errorf("resolve endorsement: %w", err)
	}
	return nil
}

// ApproveEndorsement marks the row approved and appends the activation
// version when the approval completes the required set.
func (s *Store) ApproveEndorsement(ctx context.Context, key storage.EndorsementKey, approvedAt time.Time, comments string, required []domain.Category, activation storage.Version) (storage.CascadeOutcome, error) {
	outcome := storage.CascadeNone
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := resolvePendingTx(ctx, tx, key, domain.EndorsementApproved, approvedAt, comments); err != nil {
			return err
		}
		judgments, err := listJudgmentsTx(ctx, tx, key.RequirementID, key.EffectiveFrom)
		if err != nil {
			return err
		}
		if domain.Aggregate(required, judgments) != domain.OutcomeApproved {
			return nil
		}
		if err := insertVersionTx(ctx, tx, activation); err != nil {
			return err
		}
		outcome = storage.CascadeActivated
		return nil
	})
	if err != nil {
		return storage.CascadeNone, err
	}
	return outcome, nil
}

// RejectEndorsement marks the row rejected and appends the rejection
// version in the same transaction.
func (s *Store) RejectEndorsement(ctx context.Context, key storage.EndorsementKey, rejectedAt time.Time, reason string, rejection storage.Version) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := resolvePendingTx(ctx, tx, key, domain.EndorsementRejected, rejectedAt, reason); err != nil {
			return err
		}
		return insertVersionTx(ctx, tx, rejection)
	})
}

// RecordCheckResult supersedes the prior system row for the category,
// inserts the new judgment and applies any workflow cascade.
func (s *Store) RecordCheckResult(ctx context.Context, key storage.EndorsementKey, write storage.CheckWrite, required []domain.Category, activation storage.Version, rejection storage.Version) (storage.CascadeOutcome, error) {
	outcome := storage.CascadeNone
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(
			ctx,
			`UPDATE endorsements SET superseded = 1
			  WHERE requirement_id = ? AND effective_from = ? AND category = ?
			    AND endorsed_by = ? AND superseded = 0`,
			key.RequirementID,
			toMillis(key.EffectiveFrom),
			string(key.Category),
			key.EndorsedBy,
		)
		if err != nil {
			return fmt.Errorf("supersede endorsement: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("supersede endorsement: %w", err)
		}
		if affected == 0 {
			return storage.ErrNotFound
		}

		replacement := storage.Endorsement{
			RequirementID: key.RequirementID,
			EffectiveFrom: key.EffectiveFrom,
			Category:      key.Category,
			Status:        write.Status,
			EndorsedBy:    key.EndorsedBy,
			CheckDetails:  &write.CheckDetails,
		}
		switch write.Status {
		case domain.EndorsementApproved:
			replacement.EndorsedAt = write.ResolvedAt
		case domain.EndorsementRejected:
			replacement.RejectedAt = write.ResolvedAt
		}
		if err := insertEndorsementTx(ctx, tx, replacement); err != nil {
			return err
		}

		switch write.Status {
		case domain.EndorsementRejected:
			if err := insertVersionTx(ctx, tx, rejection); err != nil {
				return err
			}
			outcome = storage.CascadeRejected
		case domain.EndorsementApproved:
			judgments, err := listJudgmentsTx(ctx, tx, key.RequirementID, key.EffectiveFrom)
			if err != nil {
				return err
			}
			if domain.Aggregate(required, judgments) == domain.OutcomeApproved {
				if err := insertVersionTx(ctx, tx, activation); err != nil {
					return err
				}
				outcome = storage.CascadeActivated
			}
		}
		return nil
	})
	if err != nil {
		return storage.CascadeNone, err
	}
	return outcome, nil
}
