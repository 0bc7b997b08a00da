package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nannylink/internal/models"
)

const paymentColumns = `id, employer_id, nanny_id, amount, date, status, method,
	                 note, employer_name, nanny_name, created_at, updated_at, version`

func (db *DB) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `INSERT INTO payments (
				id, employer_id, nanny_id, amount, date, status, method,
				note, employer_name, nanny_name, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		payment.ID,
		payment.EmployerID,
		payment.NannyID,
		payment.Amount,
		payment.Date.Format(models.DateLayout),
		payment.Status,
		payment.Method,
		payment.Note,
		payment.EmployerName,
		payment.NannyName,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	payment.CreatedAt = now
	payment.UpdatedAt = now
	payment.Version = 1
	return nil
}

func (db *DB) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	p := &models.Payment{}
	var dateStr string
	var note sql.NullString
	err := db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.EmployerID, &p.NannyID, &p.Amount, &dateStr, &p.Status, &p.Method,
		&note, &p.EmployerName, &p.NannyName, &p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	p.Note = note.String
	p.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payment date %s: %w", dateStr, err)
	}
	return p, nil
}

func (db *DB) UpdatePaymentStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE payments SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) DeletePayment(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPaymentsForUser returns payments the user is party to, newest date
// first, optionally filtered by status ("" means all).
func (db *DB) GetPaymentsForUser(ctx context.Context, userID, status string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + `
              FROM payments
              WHERE (employer_id = ? OR nanny_id = ?)`
	args := []interface{}{userID, userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		var dateStr string
		var note sql.NullString
		err := rows.Scan(
			&p.ID, &p.EmployerID, &p.NannyID, &p.Amount, &dateStr, &p.Status, &p.Method,
			&note, &p.EmployerName, &p.NannyName, &p.CreatedAt, &p.UpdatedAt, &p.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Note = note.String
		p.Date, err = time.Parse(models.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse payment date %s: %w", dateStr, err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// DeletePaymentsForUser removes every payment the user is party to inside
// one transaction. Used only by the maintenance reset flows.
func (db *DB) DeletePaymentsForUser(ctx context.Context, userID string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM payments WHERE employer_id = ? OR nanny_id = ?`, userID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payments: %w", err)
	}
	removed, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return removed, nil
}

// ClearBalances reverts the user's approved schedule requests to pending
// and deletes all of the user's payments, atomically. Destructive and
// meant for development resets only; the service layer gates it.
func (db *DB) ClearBalances(ctx context.Context, userID string) (int64, int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	reverted, err := tx.ExecContext(ctx,
		`UPDATE schedule_requests SET status = ?, version = version + 1, updated_at = ?
         WHERE (employer_id = ? OR nanny_id = ?) AND status = ?`,
		models.StatusPending, time.Now(), userID, userID, models.StatusApproved)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to revert schedule requests: %w", err)
	}

	deleted, err := tx.ExecContext(ctx,
		`DELETE FROM payments WHERE employer_id = ? OR nanny_id = ?`, userID, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete payments: %w", err)
	}

	revertedRows, _ := reverted.RowsAffected()
	deletedRows, _ := deleted.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return revertedRows, deletedRows, nil
}
