package services

import (
	"context"
	"testing"
	"time"

	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/dtos"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/justsurfingit/connect-jobs/internal/repository/memory"
	"github.com/justsurfingit/connect-jobs/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (*AuthService, *session.MemoryStore) {
	t.Helper()
	sessions := session.NewMemoryStore()
	return NewAuthService(memory.New().Users, sessions, time.Hour, quietLog()), sessions
}

func TestRegisterAndLogin(t *testing.T) {
	svc, sessions := newAuth(t)
	ctx := context.Background()

	user, sess, err := svc.Register(ctx, dtos.RegisterRequest{
		FullName: "Ada Lovelace",
		Email:    "Ada@Example.com",
		Password: "analytical-engine",
		Role:     "employer",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, models.RoleEmployer, user.Role)
	assert.NotEqual(t, "analytical-engine", user.PasswordHash)

	stored, err := sessions.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)

	loggedIn, _, err := svc.Login(ctx, dtos.LoginRequest{Email: "ada@example.com", Password: "analytical-engine"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, _, err = svc.Login(ctx, dtos.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.True(t, apperr.Is(err, apperr.CodeUnauthorized))
	_, _, err = svc.Login(ctx, dtos.LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.True(t, apperr.Is(err, apperr.CodeUnauthorized))

	require.NoError(t, svc.Logout(ctx, sess.Token))
	_, err = sessions.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRegisterDefaultsAndGuards(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, dtos.RegisterRequest{FullName: "Alan", Email: "alan@example.com", Password: "enigma-machine"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleJobseeker, user.Role)

	_, _, err = svc.Register(ctx, dtos.RegisterRequest{FullName: "Alan", Email: "alan@example.com", Password: "enigma-machine"})
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	_, _, err = svc.Register(ctx, dtos.RegisterRequest{FullName: "Root", Email: "root@example.com", Password: "enigma-machine", Role: "admin"})
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
}

func TestStatusRefreshesSession(t *testing.T) {
	svc, sessions := newAuth(t)
	ctx := context.Background()
	user, sess, err := svc.Register(ctx, dtos.RegisterRequest{FullName: "Ada", Email: "ada@example.com", Password: "analytical-engine"})
	require.NoError(t, err)

	got, err := svc.Status(ctx, models.Identity{UserID: user.ID, Role: user.Role}, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	refreshed, err := sessions.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.False(t, refreshed.ExpiresAt.Before(sess.ExpiresAt))
}
