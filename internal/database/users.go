package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"nannylink/internal/models"

	"github.com/shopspring/decimal"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, display_name, role, hourly_rate, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.HourlyRate,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, display_name, role, hourly_rate, created_at, updated_at
              FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.Role,
		&user.HourlyRate, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (db *DB) GetUsers(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`SELECT id, email, display_name, role, hourly_rate, created_at, updated_at
              FROM users WHERE id IN (%s) ORDER BY display_name, id`, placeholders)

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// UpdateHourlyRate changes a nanny's live profile rate. Rate snapshots on
// existing schedule requests are untouched.
func (db *DB) UpdateHourlyRate(ctx context.Context, id string, rate decimal.Decimal) error {
	query := `UPDATE users SET hourly_rate = ?, updated_at = ? WHERE id = ? AND role = 'nanny'`
	result, err := db.ExecContext(ctx, query, rate, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update hourly rate: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchUsers returns users of the given role whose display name contains
// term case-insensitively, excluding excludeID and any user already in a
// relationship row with the caller. Ordering is deterministic so repeated
// searches over unchanged data return identical result sets.
func (db *DB) SearchUsers(ctx context.Context, role, term, excludeID string, limit int) ([]*models.User, error) {
	if limit <= 0 {
		limit = models.DefaultSearchLimit
	}

	query := `SELECT u.id, u.email, u.display_name, u.role, u.hourly_rate, u.created_at, u.updated_at
              FROM users u
              WHERE u.role = ?
                AND u.id != ?
                AND LOWER(u.display_name) LIKE '%' || LOWER(?) || '%'
                AND NOT EXISTS (
                    SELECT 1 FROM relationships r
                    WHERE (r.employer_id = ? AND r.nanny_id = u.id)
                       OR (r.nanny_id = ? AND r.employer_id = u.id)
                )
              ORDER BY u.display_name, u.id
              LIMIT ?`

	rows, err := db.QueryContext(ctx, query, role, excludeID, term, excludeID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		err := rows.Scan(
			&u.ID, &u.Email, &u.DisplayName, &u.Role,
			&u.HourlyRate, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
