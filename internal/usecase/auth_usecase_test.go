package usecase

import (
	"context"
	"testing"
	"time"

	"passmais-agenda/internal/domain/entity"
	"passmais-agenda/internal/infrastructure/cache"
	"passmais-agenda/internal/infrastructure/upstream"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_LogoutClearsSessionAndAppointments(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	appointmentCache := cache.NewAppointmentCache(client, time.Minute)
	store := cache.NewRedisTokenStore(client, time.Hour)
	userID := uuid.New()

	sess := upstream.NewSession(store, userID.String())
	require.NoError(t, sess.SetTokens(ctx, "access", "refresh"))
	require.NoError(t, appointmentCache.Set(ctx, userID, []entity.Appointment{{ID: "a1"}}))

	uc := NewAuthUsecase(newTestLogger(), appointmentCache)

	me := uc.GetCurrentUser(ctx, userID, "ana@example.com", entity.RolePatient, sess)
	assert.True(t, me.HasRefreshToken)
	assert.Equal(t, entity.RolePatient, me.Role)

	require.NoError(t, uc.Logout(ctx, userID, sess))
	assert.Empty(t, sess.Read().AccessToken)
	assert.False(t, mr.Exists("session:"+userID.String()))

	_, ok, err := appointmentCache.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}
