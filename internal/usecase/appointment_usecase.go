package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"passmais-agenda/internal/converter"
	"passmais-agenda/internal/delivery/dto"
	"passmais-agenda/internal/domain/entity"
	"passmais-agenda/internal/infrastructure/cache"
	"passmais-agenda/internal/infrastructure/upstream"
	"passmais-agenda/internal/normalizer"
	"passmais-agenda/internal/schedule"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrAppointmentAlreadyCancelled = errors.New("appointment is already cancelled")
	ErrAppointmentDone             = errors.New("appointment already took place")
	ErrRescheduleInPast            = errors.New("cannot reschedule to a time in the past")
)

// AppointmentGateway is the slice of the PassMais API the patient flows use.
type AppointmentGateway interface {
	ListPatientAppointments(ctx context.Context, sess *upstream.Session) ([]entity.Appointment, error)
	CancelAppointment(ctx context.Context, sess *upstream.Session, appointmentID, reason string) error
	RescheduleAppointment(ctx context.Context, sess *upstream.Session, appointmentID, newDate, newTime string) (map[string]any, error)
	GetPatientDoctorSchedule(ctx context.Context, sess *upstream.Session, doctorID string) (*upstream.DoctorSchedule, error)
}

type AppointmentUsecase interface {
	ListAppointments(ctx context.Context, userID uuid.UUID, sess *upstream.Session, status string) (*dto.AppointmentListResponse, error)
	CancelAppointment(ctx context.Context, userID uuid.UUID, sess *upstream.Session, appointmentID string, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	RescheduleAppointment(ctx context.Context, userID uuid.UUID, sess *upstream.Session, appointmentID string, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	GetDoctorSchedule(ctx context.Context, sess *upstream.Session, doctorID string) (*dto.DoctorScheduleResponse, error)
}

type appointmentUsecase struct {
	log              *logrus.Logger
	gateway          AppointmentGateway
	appointmentCache *cache.AppointmentCache
	loc              *time.Location
	now              func() time.Time
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	gateway AppointmentGateway,
	appointmentCache *cache.AppointmentCache,
	loc *time.Location,
) AppointmentUsecase {
	return &appointmentUsecase{
		log:              log,
		gateway:          gateway,
		appointmentCache: appointmentCache,
		loc:              loc,
		now:              time.Now,
	}
}

// ListAppointments always refetches and replaces the cached list. An empty
// status returns every appointment.
func (u *appointmentUsecase) ListAppointments(ctx context.Context, userID uuid.UUID, sess *upstream.Session, status string) (*dto.AppointmentListResponse, error) {
	appointments, err := u.gateway.ListPatientAppointments(ctx, sess)
	if err != nil {
		u.log.Warnf("Failed to list appointments for %s: %+v", userID, err)
		return nil, err
	}

	if err := u.appointmentCache.Set(ctx, userID, appointments); err != nil {
		u.log.Warnf("Failed to cache appointments for %s: %+v", userID, err)
	}

	if status = strings.TrimSpace(status); status != "" {
		want := normalizer.NormalizeStatus(status)
		filtered := make([]entity.Appointment, 0, len(appointments))
		for _, a := range appointments {
			if a.Status == want {
				filtered = append(filtered, a)
			}
		}
		appointments = filtered
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// cached returns the last fetched copy of the appointment, or nil.
func (u *appointmentUsecase) cached(ctx context.Context, userID uuid.UUID, appointmentID string) *entity.Appointment {
	a, err := u.appointmentCache.Find(ctx, userID, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to read cached appointment %s: %+v", appointmentID, err)
		return nil
	}
	return a
}

func (u *appointmentUsecase) CancelAppointment(ctx context.Context, userID uuid.UUID, sess *upstream.Session, appointmentID string, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	if current := u.cached(ctx, userID, appointmentID); current != nil {
		if current.IsCancelled() {
			return nil, ErrAppointmentAlreadyCancelled
		}
		if current.IsDone() {
			return nil, ErrAppointmentDone
		}
	}

	if err := u.gateway.CancelAppointment(ctx, sess, appointmentID, req.Reason); err != nil {
		u.log.Warnf("Failed to cancel appointment %s: %+v", appointmentID, err)
		return nil, err
	}

	updated, err := u.appointmentCache.Update(ctx, userID, appointmentID, func(a *entity.Appointment) {
		a.Cancel(req.Reason)
	})
	if err != nil {
		u.log.Warnf("Failed to update cached appointment %s: %+v", appointmentID, err)
	}
	if updated == nil {
		updated = &entity.Appointment{ID: appointmentID}
		updated.Cancel(req.Reason)
	}

	u.log.Infof("Patient %s cancelled appointment %s", userID, appointmentID)
	return converter.AppointmentToResponse(updated), nil
}

func (u *appointmentUsecase) RescheduleAppointment(ctx context.Context, userID uuid.UUID, sess *upstream.Session, appointmentID string, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	date, err := time.ParseInLocation(schedule.ISODateLayout, req.NewDate, u.loc)
	if err != nil {
		return nil, ErrInvalidScheduleDate
	}
	minutes, err := schedule.ParseClock(req.NewTime)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}
	newTime := schedule.FormatClock(minutes)
	if !date.Add(time.Duration(minutes) * time.Minute).After(u.now().In(u.loc)) {
		return nil, ErrRescheduleInPast
	}

	if current := u.cached(ctx, userID, appointmentID); current != nil {
		if current.IsCancelled() {
			return nil, ErrAppointmentAlreadyCancelled
		}
		if current.IsDone() {
			return nil, ErrAppointmentDone
		}
	}

	echoed, err := u.gateway.RescheduleAppointment(ctx, sess, appointmentID, req.NewDate, newTime)
	if err != nil {
		u.log.Warnf("Failed to reschedule appointment %s: %+v", appointmentID, err)
		return nil, err
	}

	apply := func(a *entity.Appointment) {
		a.Reschedule(req.NewDate, newTime)
		if s, ok := normalizer.PickFirstString(echoed, "status", "appointmentStatus"); ok {
			a.Status = normalizer.NormalizeStatus(s)
		}
	}

	updated, err := u.appointmentCache.Update(ctx, userID, appointmentID, apply)
	if err != nil {
		u.log.Warnf("Failed to update cached appointment %s: %+v", appointmentID, err)
	}
	if updated == nil {
		updated = &entity.Appointment{ID: appointmentID}
		apply(updated)
	}

	u.log.Infof("Patient %s rescheduled appointment %s to %s %s", userID, appointmentID, req.NewDate, newTime)
	return converter.AppointmentToResponse(updated), nil
}

func (u *appointmentUsecase) GetDoctorSchedule(ctx context.Context, sess *upstream.Session, doctorID string) (*dto.DoctorScheduleResponse, error) {
	s, err := u.gateway.GetPatientDoctorSchedule(ctx, sess, doctorID)
	if err != nil {
		u.log.Warnf("Failed to get schedule of doctor %s: %+v", doctorID, err)
		return nil, err
	}
	return converter.DoctorScheduleToResponse(doctorID, s), nil
}
