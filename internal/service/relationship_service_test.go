package service

import (
	"context"
	"testing"

	"nannylink/internal/database"
	"nannylink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposeCreatesRequestAndNotification(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "Emma", models.RoleEmployer, 0)
	nanny := env.createUser(t, "Nina", models.RoleNanny, 20)

	require.NoError(t, env.relationships.Propose(ctx, employer.ID, nanny.ID))

	rels, err := env.relationships.ListForUser(ctx, nanny.ID, models.RelationshipProposed)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, employer.ID, rels[0].EmployerID)

	inbox, err := env.users.Notifications(ctx, nanny.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationLinkRequest, inbox[0].Type)
}

func TestProposeRequiresEmployerRole(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	nina := env.createUser(t, "Nina", models.RoleNanny, 20)
	nora := env.createUser(t, "Nora", models.RoleNanny, 20)

	err := env.relationships.Propose(ctx, nina.ID, nora.ID)
	assert.ErrorIs(t, err, ErrRoleMismatch)
}

func TestProposeIdempotent(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "Emma", models.RoleEmployer, 0)
	nanny := env.createUser(t, "Nina", models.RoleNanny, 20)

	require.NoError(t, env.relationships.Propose(ctx, employer.ID, nanny.ID))
	require.NoError(t, env.relationships.Propose(ctx, employer.ID, nanny.ID))

	// No duplicate notification for the repeated proposal.
	inbox, err := env.users.Notifications(ctx, nanny.ID)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}

func TestAcceptLinksBothSides(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	employer, nanny := env.linkPair(t, 20)

	for _, userID := range []string{employer.ID, nanny.ID} {
		rels, err := env.relationships.ListForUser(ctx, userID, models.RelationshipLinked)
		require.NoError(t, err)
		assert.Len(t, rels, 1, "user %s should see the link", userID)
	}

	// The employer was told.
	inbox, err := env.users.Notifications(ctx, employer.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationLinkAccepted, inbox[0].Type)
}

func TestAcceptWithoutProposal(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "Emma", models.RoleEmployer, 0)
	nanny := env.createUser(t, "Nina", models.RoleNanny, 20)

	err := env.relationships.Accept(ctx, nanny.ID, employer.ID)
	assert.ErrorIs(t, err, database.ErrNoPendingRequest)
}

func TestRejectAllowsReProposal(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "Emma", models.RoleEmployer, 0)
	nanny := env.createUser(t, "Nina", models.RoleNanny, 20)

	require.NoError(t, env.relationships.Propose(ctx, employer.ID, nanny.ID))
	require.NoError(t, env.relationships.Reject(ctx, nanny.ID, employer.ID))

	rels, err := env.relationships.ListForUser(ctx, nanny.ID, "")
	require.NoError(t, err)
	assert.Empty(t, rels)

	require.NoError(t, env.relationships.Propose(ctx, employer.ID, nanny.ID))
}

func TestUnlinkByEitherParty(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	employer, nanny := env.linkPair(t, 20)

	// A third party may not unlink.
	outsider := env.createUser(t, "Oz", models.RoleEmployer, 0)
	err := env.relationships.Unlink(ctx, outsider.ID, employer.ID, nanny.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, env.relationships.Unlink(ctx, nanny.ID, employer.ID, nanny.ID))

	rels, err := env.relationships.ListForUser(ctx, employer.ID, "")
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestResetAllRemovesEveryRelationship(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "Emma", models.RoleEmployer, 0)
	nina := env.createUser(t, "Nina", models.RoleNanny, 20)
	nora := env.createUser(t, "Nora", models.RoleNanny, 25)

	require.NoError(t, env.relationships.Propose(ctx, employer.ID, nina.ID))
	require.NoError(t, env.relationships.Accept(ctx, nina.ID, employer.ID))
	require.NoError(t, env.relationships.Propose(ctx, employer.ID, nora.ID))

	removed, err := env.relationships.ResetAll(ctx, employer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	for _, userID := range []string{employer.ID, nina.ID, nora.ID} {
		rels, err := env.relationships.ListForUser(ctx, userID, "")
		require.NoError(t, err)
		assert.Empty(t, rels, "user %s should have no relationships", userID)
	}
}

func TestSearchExcludesExistingRelationships(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	employer := env.createUser(t, "Emma", models.RoleEmployer, 0)
	nina := env.createUser(t, "Nina", models.RoleNanny, 20)
	env.createUser(t, "Nineta", models.RoleNanny, 22)

	found, err := env.relationships.Search(ctx, employer.ID, "nin")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	require.NoError(t, env.relationships.Propose(ctx, employer.ID, nina.ID))

	found, err = env.relationships.Search(ctx, employer.ID, "nin")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Nineta", found[0].DisplayName)
}

func TestSearchFindsOppositeRoleOnly(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	nanny := env.createUser(t, "Nina", models.RoleNanny, 20)
	env.createUser(t, "Emma", models.RoleEmployer, 0)
	env.createUser(t, "Emmy", models.RoleNanny, 18)

	found, err := env.relationships.Search(ctx, nanny.ID, "emm")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, models.RoleEmployer, found[0].Role)
}
