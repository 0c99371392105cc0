package dto

import (
	"github.com/google/uuid"
)

// Response DTOs

type SessionResponse struct {
	UserID          uuid.UUID `json:"user_id"`
	Email           string    `json:"email,omitempty"`
	Role            string    `json:"role"`
	HasRefreshToken bool      `json:"has_refresh_token"`
}
