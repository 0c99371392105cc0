package usecase

import (
	"context"

	"passmais-agenda/internal/delivery/dto"
	"passmais-agenda/internal/infrastructure/cache"
	"passmais-agenda/internal/infrastructure/upstream"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuthUsecase manages the local side of a PassMais login. Credentials and
// token issuance stay with the PassMais API.
type AuthUsecase interface {
	GetCurrentUser(ctx context.Context, userID uuid.UUID, email, role string, sess *upstream.Session) *dto.SessionResponse
	Logout(ctx context.Context, userID uuid.UUID, sess *upstream.Session) error
}

type authUsecase struct {
	log              *logrus.Logger
	appointmentCache *cache.AppointmentCache
}

func NewAuthUsecase(log *logrus.Logger, appointmentCache *cache.AppointmentCache) AuthUsecase {
	return &authUsecase{
		log:              log,
		appointmentCache: appointmentCache,
	}
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID, email, role string, sess *upstream.Session) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		UserID: userID,
		Email:  email,
		Role:   role,
	}
	if sess != nil {
		resp.HasRefreshToken = sess.Read().RefreshToken != ""
	}
	return resp
}

// Logout forgets the stored upstream tokens and the user's cached
// appointments. The bearer token itself stays valid until it expires.
func (u *authUsecase) Logout(ctx context.Context, userID uuid.UUID, sess *upstream.Session) error {
	if err := sess.Clear(ctx); err != nil {
		u.log.Warnf("Failed to clear session for %s: %+v", userID, err)
		return err
	}

	if err := u.appointmentCache.Invalidate(ctx, userID); err != nil {
		u.log.Warnf("Failed to drop cached appointments for %s: %+v", userID, err)
	}

	u.log.Infof("User %s logged out", userID)
	return nil
}
