package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nannylink/internal/models"
)

const scheduleRequestColumns = `id, employer_id, nanny_id, date, start_time, end_time,
	                 status, hourly_rate, created_at, updated_at, version`

func (db *DB) CreateScheduleRequest(ctx context.Context, req *models.ScheduleRequest) error {
	query := `INSERT INTO schedule_requests (
				id, employer_id, nanny_id, date, start_time, end_time,
				status, hourly_rate, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		req.ID,
		req.EmployerID,
		req.NannyID,
		req.Date.Format(models.DateLayout),
		req.StartTime,
		req.EndTime,
		req.Status,
		req.HourlyRate,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule request: %w", err)
	}
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Version = 1
	return nil
}

func (db *DB) GetScheduleRequest(ctx context.Context, id string) (*models.ScheduleRequest, error) {
	query := `SELECT ` + scheduleRequestColumns + ` FROM schedule_requests WHERE id = ?`
	req, err := db.scanScheduleRequestRow(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (db *DB) scanScheduleRequestRow(row *sql.Row) (*models.ScheduleRequest, error) {
	req := &models.ScheduleRequest{}
	var dateStr string
	err := row.Scan(
		&req.ID, &req.EmployerID, &req.NannyID, &dateStr, &req.StartTime, &req.EndTime,
		&req.Status, &req.HourlyRate, &req.CreatedAt, &req.UpdatedAt, &req.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule request: %w", err)
	}

	req.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse request date %s: %w", dateStr, err)
	}
	return req, nil
}

// UpdateScheduleRequestStatusWithVersion applies a status transition with
// optimistic locking. The store is the only arbiter of ordering between
// the two parties, so a lost race surfaces as ErrConcurrentModification.
func (db *DB) UpdateScheduleRequestStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE schedule_requests SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update schedule request status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// UpdateScheduleRequestTimes rewrites start/end only. Day, status and the
// rate snapshot never change through this path.
func (db *DB) UpdateScheduleRequestTimes(ctx context.Context, id string, fromVersion int64, startTime, endTime string) error {
	query := `UPDATE schedule_requests SET start_time = ?, end_time = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, startTime, endTime, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update schedule request times: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) DeleteScheduleRequest(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM schedule_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule request: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetScheduleRequestsForUser returns requests the user is party to, newest
// date first, optionally filtered by status ("" means all).
func (db *DB) GetScheduleRequestsForUser(ctx context.Context, userID, status string) ([]*models.ScheduleRequest, error) {
	query := `SELECT ` + scheduleRequestColumns + `
              FROM schedule_requests
              WHERE (employer_id = ? OR nanny_id = ?)`
	args := []interface{}{userID, userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule requests: %w", err)
	}
	defer rows.Close()

	return scanScheduleRequests(rows)
}

func scanScheduleRequests(rows *sql.Rows) ([]*models.ScheduleRequest, error) {
	var requests []*models.ScheduleRequest
	for rows.Next() {
		req := &models.ScheduleRequest{}
		var dateStr string
		err := rows.Scan(
			&req.ID, &req.EmployerID, &req.NannyID, &dateStr, &req.StartTime, &req.EndTime,
			&req.Status, &req.HourlyRate, &req.CreatedAt, &req.UpdatedAt, &req.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule request: %w", err)
		}
		req.Date, err = time.Parse(models.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse request date %s: %w", dateStr, err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
