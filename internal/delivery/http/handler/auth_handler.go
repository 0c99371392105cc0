package handler

import (
	"net/http"

	"passmais-agenda/internal/delivery/http/middleware"
	"passmais-agenda/internal/usecase"
	"passmais-agenda/pkg/response"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
}

func NewAuthHandler(authUsecase usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
	}
}

func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}
	email, _ := middleware.GetUserEmailFromContext(r.Context())
	role, _ := middleware.GetRoleFromContext(r.Context())
	sess, _ := middleware.GetSessionFromContext(r.Context())

	response.Success(w, http.StatusOK, "User retrieved successfully", h.authUsecase.GetCurrentUser(r.Context(), userID, email, role, sess))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Session not found")
		return
	}

	if err := h.authUsecase.Logout(r.Context(), userID, sess); err != nil {
		response.InternalServerError(w, "Failed to logout")
		return
	}

	response.Success(w, http.StatusOK, "Logged out successfully", nil)
}
