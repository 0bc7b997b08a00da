package service

import (
	"context"
	"io"
	"testing"
	"time"

	"nannylink/internal/database"
	"nannylink/internal/events"
	"nannylink/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db            *database.DB
	bus           *events.EventBus
	relationships *RelationshipService
	schedule      *ScheduleService
	payments      *PaymentService
	users         *UserService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := events.NewEventBus()
	return &testEnv{
		db:            db,
		bus:           bus,
		relationships: NewRelationshipService(db, bus, &logger),
		schedule:      NewScheduleService(db, bus, &logger),
		payments:      NewPaymentService(db, bus, &logger),
		users:         NewUserService(db, &logger),
	}
}

func (e *testEnv) createUser(t *testing.T, name, role string, rate int64) *models.User {
	t.Helper()
	user := &models.User{
		ID:          uuid.NewString(),
		Email:       name + "@example.com",
		DisplayName: name,
		Role:        role,
	}
	if role == models.RoleNanny && rate > 0 {
		user.HourlyRate = decimal.NewNullDecimal(decimal.NewFromInt(rate))
	}
	require.NoError(t, e.db.CreateUser(context.Background(), user))
	return user
}

// linkPair creates an employer and a nanny and establishes the link.
func (e *testEnv) linkPair(t *testing.T, rate int64) (*models.User, *models.User) {
	t.Helper()
	employer := e.createUser(t, "Emma-"+uuid.NewString()[:8], models.RoleEmployer, 0)
	nanny := e.createUser(t, "Nina-"+uuid.NewString()[:8], models.RoleNanny, rate)

	ctx := context.Background()
	require.NoError(t, e.relationships.Propose(ctx, employer.ID, nanny.ID))
	require.NoError(t, e.relationships.Accept(ctx, nanny.ID, employer.ID))
	return employer, nanny
}

func (e *testEnv) createRequest(t *testing.T, employerID, nannyID string) *models.ScheduleRequest {
	t.Helper()
	result, err := e.schedule.Create(context.Background(), employerID, nannyID,
		[]time.Time{time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)}, "09:00", "17:00")
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	return result.Created[0]
}
