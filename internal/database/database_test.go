package database

import (
	"context"
	"io"
	"testing"

	"nannylink/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		ID:          uuid.NewString(),
		Email:       name + "@example.com",
		DisplayName: name,
		Role:        role,
	}
	if role == models.RoleNanny {
		user.HourlyRate = decimal.NewNullDecimal(decimal.NewFromInt(20))
	}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func TestCreateAndGetUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "Alice", models.RoleEmployer)

	got, err := db.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, models.RoleEmployer, got.Role)
	assert.False(t, got.HourlyRate.Valid)
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUsersOrdering(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	carol := createTestUser(t, db, "Carol", models.RoleNanny)
	bob := createTestUser(t, db, "Bob", models.RoleNanny)

	users, err := db.GetUsers(ctx, []string{carol.ID, bob.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Bob", users[0].DisplayName)
	assert.Equal(t, "Carol", users[1].DisplayName)
}

func TestGetUsersEmptyInput(t *testing.T) {
	db := setupTestDB(t)

	users, err := db.GetUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, users)
}

func TestUpdateHourlyRate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	nanny := createTestUser(t, db, "Nina", models.RoleNanny)

	err := db.UpdateHourlyRate(ctx, nanny.ID, decimal.NewFromInt(25))
	require.NoError(t, err)

	got, err := db.GetUser(ctx, nanny.ID)
	require.NoError(t, err)
	require.True(t, got.HourlyRate.Valid)
	assert.True(t, got.HourlyRate.Decimal.Equal(decimal.NewFromInt(25)))
}

func TestUpdateHourlyRateRejectsEmployer(t *testing.T) {
	db := setupTestDB(t)

	employer := createTestUser(t, db, "Eve", models.RoleEmployer)

	err := db.UpdateHourlyRate(context.Background(), employer.ID, decimal.NewFromInt(30))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	employer := createTestUser(t, db, "Emma", models.RoleEmployer)
	anna := createTestUser(t, db, "Anna", models.RoleNanny)
	annette := createTestUser(t, db, "Annette", models.RoleNanny)
	createTestUser(t, db, "Zoe", models.RoleNanny)

	users, err := db.SearchUsers(ctx, models.RoleNanny, "ann", employer.ID, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, anna.ID, users[0].ID)
	assert.Equal(t, annette.ID, users[1].ID)

	// A relationship row in any status hides the counterpart.
	_, err = db.ProposeLink(ctx, employer.ID, anna.ID)
	require.NoError(t, err)

	users, err = db.SearchUsers(ctx, models.RoleNanny, "ann", employer.ID, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, annette.ID, users[0].ID)
}

func TestSearchUsersDeterministic(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	employer := createTestUser(t, db, "Emma", models.RoleEmployer)
	for _, name := range []string{"Mia", "Maya", "Mila"} {
		createTestUser(t, db, name, models.RoleNanny)
	}

	first, err := db.SearchUsers(ctx, models.RoleNanny, "m", employer.ID, 0)
	require.NoError(t, err)
	second, err := db.SearchUsers(ctx, models.RoleNanny, "m", employer.ID, 0)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}
