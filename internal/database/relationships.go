package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nannylink/internal/models"
)

// ProposeLink inserts a proposed relationship row. An existing row for the
// pair, proposed or linked, makes this a no-op: callers pre-filter via
// search-result exclusion and a repeated proposal carries no new state.
func (db *DB) ProposeLink(ctx context.Context, employerID, nannyID string) (bool, error) {
	query := `INSERT INTO relationships (employer_id, nanny_id, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)
              ON CONFLICT(employer_id, nanny_id) DO NOTHING`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, employerID, nannyID, models.RelationshipProposed, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to propose link: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// AcceptLink moves the pair from proposed to linked and records the
// acceptance notification in the same transaction. With the pair stored
// once, both parties observe the link the moment this commits.
func (db *DB) AcceptLink(ctx context.Context, employerID, nannyID string, notification *models.Notification) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE relationships SET status = ?, updated_at = ?
              WHERE employer_id = ? AND nanny_id = ? AND status = ?`
	result, err := tx.ExecContext(ctx, query,
		models.RelationshipLinked, time.Now(), employerID, nannyID, models.RelationshipProposed)
	if err != nil {
		return fmt.Errorf("failed to accept link: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNoPendingRequest
	}

	if notification != nil {
		if err := insertNotificationTx(ctx, tx, notification); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RejectLink removes a proposed row. No record of the rejection persists,
// so the employer may propose again later.
func (db *DB) RejectLink(ctx context.Context, employerID, nannyID string) error {
	query := `DELETE FROM relationships WHERE employer_id = ? AND nanny_id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, employerID, nannyID, models.RelationshipProposed)
	if err != nil {
		return fmt.Errorf("failed to reject link: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNoPendingRequest
	}
	return nil
}

// Unlink deletes a linked row. One row, one write: there is no partial
// failure mode that leaves the parties disagreeing about the link.
func (db *DB) Unlink(ctx context.Context, employerID, nannyID string) error {
	query := `DELETE FROM relationships WHERE employer_id = ? AND nanny_id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, employerID, nannyID, models.RelationshipLinked)
	if err != nil {
		return fmt.Errorf("failed to unlink: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotLinked
	}
	return nil
}

// ResetLinks removes every relationship row involving the user, in one
// transaction. Both sides of each pair are cleared together.
func (db *DB) ResetLinks(ctx context.Context, userID string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM relationships WHERE employer_id = ? OR nanny_id = ?`, userID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset links: %w", err)
	}
	removed, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return removed, nil
}

func (db *DB) GetRelationship(ctx context.Context, employerID, nannyID string) (*models.Relationship, error) {
	query := `SELECT employer_id, nanny_id, status, created_at, updated_at
              FROM relationships WHERE employer_id = ? AND nanny_id = ?`
	var rel models.Relationship
	err := db.QueryRowContext(ctx, query, employerID, nannyID).Scan(
		&rel.EmployerID, &rel.NannyID, &rel.Status, &rel.CreatedAt, &rel.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return &rel, nil
}

// IsLinked reports whether the pair has a linked row.
func (db *DB) IsLinked(ctx context.Context, employerID, nannyID string) (bool, error) {
	rel, err := db.GetRelationship(ctx, employerID, nannyID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rel.Status == models.RelationshipLinked, nil
}

// GetRelationshipsForUser returns every row the user is party to,
// optionally filtered by status ("" means all).
func (db *DB) GetRelationshipsForUser(ctx context.Context, userID, status string) ([]*models.Relationship, error) {
	query := `SELECT employer_id, nanny_id, status, created_at, updated_at
              FROM relationships
              WHERE (employer_id = ? OR nanny_id = ?)`
	args := []interface{}{userID, userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at, employer_id, nanny_id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get relationships: %w", err)
	}
	defer rows.Close()

	var rels []*models.Relationship
	for rows.Next() {
		r := &models.Relationship{}
		if err := rows.Scan(&r.EmployerID, &r.NannyID, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
