package service

import (
	"context"
	"testing"

	"nannylink/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, "emma@example.com", "Emma", models.RoleEmployer)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	got, err := env.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Emma", got.DisplayName)
	assert.Equal(t, models.RoleEmployer, got.Role)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	env := setupEnv(t)

	_, err := env.users.Register(context.Background(), "x@example.com", "X", "admin")
	assert.ErrorIs(t, err, ErrRoleMismatch)
}

func TestUpdateHourlyRateValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	nanny := env.createUser(t, "Nina", models.RoleNanny, 20)

	err := env.users.UpdateHourlyRate(ctx, nanny.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	require.NoError(t, env.users.UpdateHourlyRate(ctx, nanny.ID, decimal.NewFromInt(28)))

	got, err := env.users.Get(ctx, nanny.ID)
	require.NoError(t, err)
	require.True(t, got.HourlyRate.Valid)
	assert.True(t, got.HourlyRate.Decimal.Equal(decimal.NewFromInt(28)))
}

func TestGetMany(t *testing.T) {
	env := setupEnv(t)

	a := env.createUser(t, "Anna", models.RoleNanny, 20)
	b := env.createUser(t, "Bella", models.RoleNanny, 22)

	users, err := env.users.GetMany(context.Background(), []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
