package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nannylink/internal/models"
)

func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertNotificationTx(ctx, tx, n); err != nil {
		return err
	}
	return tx.Commit()
}

func insertNotificationTx(ctx context.Context, tx *sql.Tx, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Status == "" {
		n.Status = models.NotificationUnread
	}
	query := `INSERT INTO notifications (id, type, from_user_id, to_user_id, status, message, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, query,
		n.ID, n.Type, n.FromUserID, n.ToUserID, n.Status, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (db *DB) GetNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	query := `SELECT id, type, from_user_id, to_user_id, status, message, created_at
              FROM notifications WHERE to_user_id = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(&n.ID, &n.Type, &n.FromUserID, &n.ToUserID, &n.Status, &n.Message, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (db *DB) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	query := `UPDATE notifications SET status = ? WHERE id = ? AND to_user_id = ?`
	result, err := db.ExecContext(ctx, query, models.NotificationRead, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
