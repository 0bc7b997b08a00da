package database

import (
	"context"
	"fmt"
	"time"

	"nannylink/internal/models"
)

const changeLogColumns = `id, event_type, entity_id, employer_id, nanny_id, payload,
	                 status, retry_count, last_error, created_at, processed_at, next_retry_at`

// AppendChange records one state transition. The row starts pending so the
// refresh worker picks it up; readers replaying history see every append
// regardless of worker status.
func (db *DB) AppendChange(ctx context.Context, rec *models.ChangeRecord) error {
	query := `INSERT INTO change_log (event_type, entity_id, employer_id, nanny_id, payload, status, retry_count, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	if rec.Status == "" {
		rec.Status = "pending"
	}
	result, err := db.ExecContext(ctx, query,
		rec.EventType,
		rec.EntityID,
		rec.EmployerID,
		rec.NannyID,
		rec.Payload,
		rec.Status,
		rec.RetryCount,
		now,
		rec.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append change record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = now
	return nil
}

// GetPendingChanges returns rows ready for the refresh worker, oldest
// first, respecting the retry schedule.
func (db *DB) GetPendingChanges(ctx context.Context, limit int) ([]models.ChangeRecord, error) {
	query := `SELECT ` + changeLogColumns + `
              FROM change_log
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY id ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending changes: %w", err)
	}
	defer rows.Close()

	var records []models.ChangeRecord
	for rows.Next() {
		var r models.ChangeRecord
		err := rows.Scan(
			&r.ID, &r.EventType, &r.EntityID, &r.EmployerID, &r.NannyID, &r.Payload,
			&r.Status, &r.RetryCount, &r.LastError, &r.CreatedAt, &r.ProcessedAt, &r.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetChangesForUser returns the full ordered transition history the user
// is party to. This is the replay input for the ledger.
func (db *DB) GetChangesForUser(ctx context.Context, userID string) ([]models.ChangeRecord, error) {
	query := `SELECT ` + changeLogColumns + `
              FROM change_log
              WHERE employer_id = ? OR nanny_id = ?
              ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get change history: %w", err)
	}
	defer rows.Close()

	var records []models.ChangeRecord
	for rows.Next() {
		var r models.ChangeRecord
		err := rows.Scan(
			&r.ID, &r.EventType, &r.EntityID, &r.EmployerID, &r.NannyID, &r.Payload,
			&r.Status, &r.RetryCount, &r.LastError, &r.CreatedAt, &r.ProcessedAt, &r.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (db *DB) UpdateChangeStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	now := time.Now()

	switch status {
	case "retry":
		query = `UPDATE change_log SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	case "processed", "failed":
		query = `UPDATE change_log SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, &now, id}
	default:
		query = `UPDATE change_log SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	}

	_, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update change record status: %w", err)
	}
	return nil
}
