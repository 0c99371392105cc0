package handler

import (
	"errors"
	"net/http"

	"passmais-agenda/internal/infrastructure/upstream"
	"passmais-agenda/internal/usecase"
	"passmais-agenda/pkg/response"
)

// writeUpstreamError answers with the PassMais status when it is a client
// error, and 502 for server errors or when the API could not be reached.
func writeUpstreamError(w http.ResponseWriter, err error) bool {
	if errors.Is(err, upstream.ErrUnavailable) {
		response.BadGateway(w, upstream.UserMessage(err))
		return true
	}
	status := upstream.StatusOf(err)
	if status == 0 {
		return false
	}
	if status >= 400 && status < 500 {
		response.Error(w, status, upstream.UserMessage(err), nil)
		return true
	}
	response.BadGateway(w, upstream.UserMessage(err))
	return true
}

// writeScheduleError maps availability and appointment sentinels. It
// returns false when err is not one of them.
func writeScheduleError(w http.ResponseWriter, err error) bool {
	var slotErr *usecase.SlotValidationError
	switch {
	case errors.As(err, &slotErr):
		response.SlotIssues(w, "Invalid time slots", slotErr.Issues)
	case errors.Is(err, usecase.ErrInvalidScheduleDate):
		response.Error(w, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD", nil)
	case errors.Is(err, usecase.ErrInvalidTimeFormat):
		response.Error(w, http.StatusBadRequest, "Invalid time format, use HH:MM", nil)
	case errors.Is(err, usecase.ErrInvalidWeekday):
		response.Error(w, http.StatusBadRequest, "Invalid weekday", nil)
	case errors.Is(err, usecase.ErrInvalidInterval),
		errors.Is(err, usecase.ErrInvalidBuffer),
		errors.Is(err, usecase.ErrInvalidDateRange),
		errors.Is(err, usecase.ErrSchedulePast),
		errors.Is(err, usecase.ErrRescheduleInPast):
		response.Error(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, usecase.ErrAppointmentAlreadyCancelled),
		errors.Is(err, usecase.ErrAppointmentDone):
		response.Conflict(w, err.Error())
	default:
		return writeUpstreamError(w, err)
	}
	return true
}
