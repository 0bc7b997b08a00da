package database

import (
	"context"
	"testing"
	"time"

	"nannylink/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPayment(t *testing.T, db *DB, employerID, nannyID string, amount int64) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		ID:           uuid.NewString(),
		EmployerID:   employerID,
		NannyID:      nannyID,
		Amount:       decimal.NewFromInt(amount),
		Date:         time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Status:       models.PaymentStatusPending,
		Method:       models.MethodCash,
		EmployerName: "Emma",
		NannyName:    "Nina",
	}
	require.NoError(t, db.CreatePayment(context.Background(), payment))
	return payment
}

func TestCreateAndGetPayment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	payment := createTestPayment(t, db, "e1", "n1", 150)

	got, err := db.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, models.PaymentStatusPending, got.Status)
	assert.Equal(t, models.MethodCash, got.Method)
	assert.Equal(t, "Emma", got.EmployerName)
	assert.Equal(t, "2026-08-15", got.Date.Format(models.DateLayout))
	assert.Equal(t, int64(1), got.Version)
}

func TestUpdatePaymentStatusWithVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	payment := createTestPayment(t, db, "e1", "n1", 100)

	require.NoError(t, db.UpdatePaymentStatusWithVersion(ctx, payment.ID, 1, models.PaymentStatusConfirmed))

	got, err := db.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusConfirmed, got.Status)
	assert.Equal(t, int64(2), got.Version)

	err = db.UpdatePaymentStatusWithVersion(ctx, payment.ID, 1, models.PaymentStatusRejected)
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestDeletePayment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	payment := createTestPayment(t, db, "e1", "n1", 100)
	require.NoError(t, db.DeletePayment(ctx, payment.ID))

	_, err := db.GetPayment(ctx, payment.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPaymentsForUserStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	confirmed := createTestPayment(t, db, "e1", "n1", 50)
	createTestPayment(t, db, "e1", "n1", 75)
	createTestPayment(t, db, "e2", "n2", 200)

	require.NoError(t, db.UpdatePaymentStatusWithVersion(ctx, confirmed.ID, 1, models.PaymentStatusConfirmed))

	all, err := db.GetPaymentsForUser(ctx, "n1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := db.GetPaymentsForUser(ctx, "n1", models.PaymentStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Amount.Equal(decimal.NewFromInt(75)))
}

func TestDeletePaymentsForUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createTestPayment(t, db, "e1", "n1", 50)
	createTestPayment(t, db, "e1", "n1", 60)
	other := createTestPayment(t, db, "e2", "n2", 70)

	deleted, err := db.DeletePaymentsForUser(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	// Unrelated pairs untouched.
	_, err = db.GetPayment(ctx, other.ID)
	require.NoError(t, err)
}

func TestClearBalances(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	req := createTestRequest(t, db, "e1", "n1", time.Now())
	require.NoError(t, db.UpdateScheduleRequestStatusWithVersion(ctx, req.ID, 1, models.StatusApproved))
	createTestPayment(t, db, "e1", "n1", 100)

	reverted, deleted, err := db.ClearBalances(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), reverted)
	assert.Equal(t, int64(1), deleted)

	got, err := db.GetScheduleRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	payments, err := db.GetPaymentsForUser(ctx, "n1", "")
	require.NoError(t, err)
	assert.Empty(t, payments)
}
