package handler

import (
	"encoding/json"
	"net/http"

	"passmais-agenda/internal/delivery/dto"
	"passmais-agenda/internal/delivery/http/middleware"
	"passmais-agenda/internal/usecase"
	"passmais-agenda/pkg/response"
	"passmais-agenda/pkg/validator"

	"github.com/gorilla/mux"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase, validator *validator.CustomValidator) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
	}
}

func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	availability, err := h.availabilityUsecase.GetAvailability(r.Context(), doctorID)
	if err != nil {
		response.InternalServerError(w, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

func (h *AvailabilityHandler) SaveSpecificDay(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.SaveSpecificDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	availability, err := h.availabilityUsecase.SaveSpecificDay(r.Context(), doctorID, mux.Vars(r)["date"], &req)
	if err != nil {
		if !writeScheduleError(w, err) {
			response.InternalServerError(w, "Failed to save specific day")
		}
		return
	}

	response.Success(w, http.StatusOK, "Specific day saved successfully", availability)
}

func (h *AvailabilityHandler) ClearSpecificDay(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	if err := h.availabilityUsecase.ClearSpecificDay(r.Context(), doctorID, mux.Vars(r)["date"]); err != nil {
		if !writeScheduleError(w, err) {
			response.InternalServerError(w, "Failed to clear specific day")
		}
		return
	}

	response.Success(w, http.StatusOK, "Specific day cleared successfully", nil)
}

func (h *AvailabilityHandler) SaveRecurringDay(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.SaveRecurringDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	availability, err := h.availabilityUsecase.SaveRecurringDay(r.Context(), doctorID, mux.Vars(r)["weekday"], &req)
	if err != nil {
		if !writeScheduleError(w, err) {
			response.InternalServerError(w, "Failed to save recurring day")
		}
		return
	}

	response.Success(w, http.StatusOK, "Recurring day saved successfully", availability)
}

func (h *AvailabilityHandler) ToggleRecurringDay(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	availability, err := h.availabilityUsecase.ToggleRecurringDay(r.Context(), doctorID, mux.Vars(r)["weekday"])
	if err != nil {
		if !writeScheduleError(w, err) {
			response.InternalServerError(w, "Failed to toggle recurring day")
		}
		return
	}

	response.Success(w, http.StatusOK, "Recurring day toggled successfully", availability)
}

func (h *AvailabilityHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.SaveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	availability, err := h.availabilityUsecase.SaveRecurringSettings(r.Context(), doctorID, &req)
	if err != nil {
		if !writeScheduleError(w, err) {
			response.InternalServerError(w, "Failed to save settings")
		}
		return
	}

	response.Success(w, http.StatusOK, "Settings saved successfully", availability)
}

func (h *AvailabilityHandler) ValidateRanges(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateRangesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	response.Success(w, http.StatusOK, "Ranges validated", h.availabilityUsecase.ValidateRanges(&req))
}

func (h *AvailabilityHandler) GetWeekPreview(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	preview, err := h.availabilityUsecase.GetWeekPreview(r.Context(), doctorID)
	if err != nil {
		response.InternalServerError(w, "Failed to build preview")
		return
	}

	response.Success(w, http.StatusOK, "Preview retrieved successfully", preview)
}

func (h *AvailabilityHandler) RemovePreviewSlot(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	vars := mux.Vars(r)
	result, err := h.availabilityUsecase.RemovePreviewSlot(r.Context(), doctorID, vars["date"], vars["time"])
	if err != nil {
		if !writeScheduleError(w, err) {
			response.InternalServerError(w, "Failed to remove slot")
		}
		return
	}

	message := "Slot removed successfully"
	if !result.Changed {
		message = "Slot not found in preview"
	}
	response.Success(w, http.StatusOK, message, result)
}

func (h *AvailabilityHandler) PublishSchedule(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Session not found")
		return
	}

	published, err := h.availabilityUsecase.PublishSchedule(r.Context(), doctorID, sess)
	if err != nil {
		if !writeUpstreamError(w, err) {
			response.InternalServerError(w, "Failed to publish schedule")
		}
		return
	}

	message := published.Message
	if message == "" {
		message = "Schedule published successfully"
	}
	response.Success(w, http.StatusOK, message, published)
}
