package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.engine.Users.CreateUser(ctx, "u1", "ada")
	require.NoError(t, err)
	assert.Equal(t, 1, user.Level)
	assert.Zero(t, user.Points)

	_, err = env.engine.Users.CreateUser(ctx, "u1", "ada")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestEnsureUser_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.engine.Users.EnsureUser(ctx, "u1")
	require.NoError(t, err)
	second, err := env.engine.Users.EnsureUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.Level)

	_, err = env.engine.Users.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
