package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"passmais-agenda/internal/delivery/dto"
	"passmais-agenda/internal/delivery/http/middleware"
	"passmais-agenda/internal/infrastructure/upstream"
	"passmais-agenda/internal/usecase"
	"passmais-agenda/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Meta    *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

type fakeAvailabilityUsecase struct {
	usecase.AvailabilityUsecase
	err error

	savedDate string
	removed   string
}

func (f *fakeAvailabilityUsecase) SaveSpecificDay(ctx context.Context, doctorID uuid.UUID, isoDate string, req *dto.SaveSpecificDayRequest) (*dto.AvailabilityResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.savedDate = isoDate
	return &dto.AvailabilityResponse{DoctorID: doctorID}, nil
}

func (f *fakeAvailabilityUsecase) RemovePreviewSlot(ctx context.Context, doctorID uuid.UUID, isoDate, slot string) (*dto.RemoveSlotResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.removed = isoDate + " " + slot
	return &dto.RemoveSlotResponse{Source: "RECURRING", Changed: true, Issues: []string{}}, nil
}

func (f *fakeAvailabilityUsecase) PublishSchedule(ctx context.Context, doctorID uuid.UUID, sess *upstream.Session) (*dto.PublishResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.PublishResponse{DaysCount: 5, SlotsCount: 40}, nil
}

type fakeAppointmentUsecase struct {
	usecase.AppointmentUsecase
	err    error
	status string
}

func (f *fakeAppointmentUsecase) ListAppointments(ctx context.Context, userID uuid.UUID, sess *upstream.Session, status string) (*dto.AppointmentListResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.status = status
	return &dto.AppointmentListResponse{
		Appointments: []dto.AppointmentResponse{{ID: "a1"}, {ID: "a2"}},
		Total:        2,
	}, nil
}

func (f *fakeAppointmentUsecase) CancelAppointment(ctx context.Context, userID uuid.UUID, sess *upstream.Session, appointmentID string, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AppointmentResponse{ID: appointmentID, Status: "CANCELADA"}, nil
}

func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.SessionKey, upstream.NewSession(upstream.NewMemoryTokenStore(), userID.String()))
	return r.WithContext(ctx)
}

func serve(t *testing.T, router *mux.Router, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func newAvailabilityRouter(uc usecase.AvailabilityUsecase) *mux.Router {
	h := NewAvailabilityHandler(uc, validator.NewValidator())
	r := mux.NewRouter()
	r.HandleFunc("/specific/{date}", h.SaveSpecificDay).Methods(http.MethodPut)
	r.HandleFunc("/preview/{date}/{time}", h.RemovePreviewSlot).Methods(http.MethodDelete)
	r.HandleFunc("/publish", h.PublishSchedule).Methods(http.MethodPost)
	return r
}

func TestAvailabilityHandler_SaveSpecificDay(t *testing.T) {
	uc := &fakeAvailabilityUsecase{}
	router := newAvailabilityRouter(uc)
	doctorID := uuid.New()

	req := httptest.NewRequest(http.MethodPut, "/specific/2026-10-21", strings.NewReader(`{"ranges":[{"start":"08:00","end":"12:00"}]}`))
	rec, body := serve(t, router, withUser(req, doctorID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	assert.Equal(t, "2026-10-21", uc.savedDate)
}

func TestAvailabilityHandler_SaveSpecificDayErrors(t *testing.T) {
	doctorID := uuid.New()

	req := httptest.NewRequest(http.MethodPut, "/specific/2026-10-21", strings.NewReader(`{`))
	rec, _ := serve(t, newAvailabilityRouter(&fakeAvailabilityUsecase{}), withUser(req, doctorID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/specific/2026-10-21", strings.NewReader(`{"ranges":[{"start":"08:00","end":"12:00","interval":1}]}`))
	rec, _ = serve(t, newAvailabilityRouter(&fakeAvailabilityUsecase{}), withUser(req, doctorID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	uc := &fakeAvailabilityUsecase{err: &usecase.SlotValidationError{Issues: []string{"Intervalo 1: início deve ser antes do fim."}}}
	req = httptest.NewRequest(http.MethodPut, "/specific/2026-10-21", strings.NewReader(`{"ranges":[{"start":"12:00","end":"08:00"}]}`))
	rec, body := serve(t, newAvailabilityRouter(uc), withUser(req, doctorID))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, string(body.Error), "Intervalo 1")

	uc = &fakeAvailabilityUsecase{err: usecase.ErrSchedulePast}
	req = httptest.NewRequest(http.MethodPut, "/specific/2020-01-01", strings.NewReader(`{"ranges":[]}`))
	rec, _ = serve(t, newAvailabilityRouter(uc), withUser(req, doctorID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityHandler_RequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/specific/2026-10-21", strings.NewReader(`{"ranges":[]}`))
	rec, body := serve(t, newAvailabilityRouter(&fakeAvailabilityUsecase{}), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, body.Success)
}

func TestAvailabilityHandler_RemovePreviewSlot(t *testing.T) {
	uc := &fakeAvailabilityUsecase{}
	req := httptest.NewRequest(http.MethodDelete, "/preview/2026-10-20/08:30", nil)
	rec, body := serve(t, newAvailabilityRouter(uc), withUser(req, uuid.New()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Slot removed successfully", body.Message)
	assert.Equal(t, "2026-10-20 08:30", uc.removed)
}

func TestAvailabilityHandler_PublishMapsUpstreamErrors(t *testing.T) {
	doctorID := uuid.New()

	rec, body := serve(t, newAvailabilityRouter(&fakeAvailabilityUsecase{}), withUser(httptest.NewRequest(http.MethodPost, "/publish", nil), doctorID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Schedule published successfully", body.Message)

	uc := &fakeAvailabilityUsecase{err: &upstream.APIError{Status: http.StatusUnauthorized}}
	rec, body = serve(t, newAvailabilityRouter(uc), withUser(httptest.NewRequest(http.MethodPost, "/publish", nil), doctorID))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Sua sessão expirou. Faça login novamente.", body.Message)

	uc = &fakeAvailabilityUsecase{err: &upstream.APIError{Status: http.StatusServiceUnavailable}}
	rec, _ = serve(t, newAvailabilityRouter(uc), withUser(httptest.NewRequest(http.MethodPost, "/publish", nil), doctorID))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func newAppointmentRouter(uc usecase.AppointmentUsecase) *mux.Router {
	h := NewAppointmentHandler(uc, validator.NewValidator())
	r := mux.NewRouter()
	r.HandleFunc("/appointments", h.ListAppointments).Methods(http.MethodGet)
	r.HandleFunc("/appointments/{id}/cancel", h.CancelAppointment).Methods(http.MethodPost)
	return r
}

func TestAppointmentHandler_List(t *testing.T) {
	uc := &fakeAppointmentUsecase{}
	req := httptest.NewRequest(http.MethodGet, "/appointments?status=cancelled", nil)
	rec, body := serve(t, newAppointmentRouter(uc), withUser(req, uuid.New()))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, body.Meta)
	assert.Equal(t, 2, body.Meta.Total)
	assert.Equal(t, "cancelled", uc.status)
}

func TestAppointmentHandler_Cancel(t *testing.T) {
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/appointments/a1/cancel", nil)
	rec, body := serve(t, newAppointmentRouter(&fakeAppointmentUsecase{}), withUser(req, userID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body.Data), `"CANCELADA"`)

	uc := &fakeAppointmentUsecase{err: usecase.ErrAppointmentAlreadyCancelled}
	req = httptest.NewRequest(http.MethodPost, "/appointments/a1/cancel", strings.NewReader(`{"reason":"x"}`))
	rec, _ = serve(t, newAppointmentRouter(uc), withUser(req, userID))
	assert.Equal(t, http.StatusConflict, rec.Code)

	uc = &fakeAppointmentUsecase{err: &upstream.APIError{Status: http.StatusConflict}}
	req = httptest.NewRequest(http.MethodPost, "/appointments/a1/cancel", strings.NewReader(`{}`))
	rec, body = serve(t, newAppointmentRouter(uc), withUser(req, userID))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Este horário não está mais disponível. Escolha outro horário.", body.Message)
}

func TestAppointmentHandler_UnreachableUpstreamIsBadGateway(t *testing.T) {
	uc := &fakeAppointmentUsecase{err: fmt.Errorf("%w: appointments.list request: connection refused", upstream.ErrUnavailable)}
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	rec, body := serve(t, newAppointmentRouter(uc), withUser(req, uuid.New()))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, body.Success)

	uc = &fakeAppointmentUsecase{err: errors.New("boom")}
	rec, _ = serve(t, newAppointmentRouter(uc), withUser(httptest.NewRequest(http.MethodGet, "/appointments", nil), uuid.New()))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
