package usecase

import (
	"context"
	"testing"
	"time"

	"onlearn-client/internal/cache"
	"onlearn-client/internal/domain"
	"onlearn-client/internal/repository"
	"onlearn-client/pkg/logger"
	"onlearn-client/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	tokens := repository.NewMemoryTokenStore("")
	store := cache.NewStore()
	s := NewSessionUsecase(tokens, store, logger.Nop())

	_, err := s.Identity(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = s.UseToken(ctx, "not-a-jwt")
	assert.Error(t, err)

	token, err := utils.GenerateJWT("u1", string(domain.RoleStudent), time.Hour)
	require.NoError(t, err)
	claims, err := s.UseToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	who, err := s.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(domain.RoleStudent), who.Role)

	store.Courses.ReplaceAll([]domain.Course{{ID: "c1"}})
	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, 0, store.Courses.Len())
	assert.False(t, store.Courses.Loaded())
	stored, _ := tokens.Token(ctx)
	assert.Empty(t, stored)
}
