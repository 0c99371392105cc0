package upstream

import (
	"context"
	"net/http"
	"net/url"

	"passmais-agenda/internal/domain/entity"
	"passmais-agenda/internal/normalizer"
	"passmais-agenda/internal/schedule"
)

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type rescheduleRequest struct {
	NewDate string `json:"newDate"`
	NewTime string `json:"newTime"`
}

// PublishResult is the acknowledgement of a published schedule. The API has
// answered with several key spellings over time.
type PublishResult struct {
	Message    string `json:"message,omitempty"`
	DaysCount  int    `json:"daysCount"`
	SlotsCount int    `json:"slotsCount"`
}

// DoctorSchedule is what a patient sees when picking a slot.
type DoctorSchedule struct {
	Timezone string        `json:"timezone"`
	Days     []ScheduleDay `json:"days"`
}

type ScheduleDay struct {
	ISODate string   `json:"isoDate"`
	Label   string   `json:"label"`
	Blocked bool     `json:"blocked"`
	Slots   []string `json:"slots"`
}

// ListPatientAppointments fetches and normalizes the patient's appointments.
func (c *Client) ListPatientAppointments(ctx context.Context, sess *Session) ([]entity.Appointment, error) {
	var payload any
	if err := c.do(ctx, sess, "appointments.list", http.MethodGet, "/api/patients/appointments", nil, &payload); err != nil {
		return nil, err
	}
	return normalizer.NormalizeAppointments(payload), nil
}

func (c *Client) CancelAppointment(ctx context.Context, sess *Session, appointmentID, reason string) error {
	path := "/api/patients/appointments/" + url.PathEscape(appointmentID) + "/cancel"
	return c.do(ctx, sess, "appointments.cancel", http.MethodPost, path, cancelRequest{Reason: reason}, nil)
}

// RescheduleAppointment returns whatever fields the API echoed back.
func (c *Client) RescheduleAppointment(ctx context.Context, sess *Session, appointmentID, newDate, newTime string) (map[string]any, error) {
	path := "/api/patients/appointments/" + url.PathEscape(appointmentID) + "/reschedule"
	fields := map[string]any{}
	if err := c.do(ctx, sess, "appointments.reschedule", http.MethodPost, path, rescheduleRequest{NewDate: newDate, NewTime: newTime}, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (c *Client) PublishDoctorSchedule(ctx context.Context, sess *Session, doctorID string, days []schedule.PublishDay) (*PublishResult, error) {
	path := "/api/doctors/" + url.PathEscape(doctorID) + "/schedule"
	var payload any
	if err := c.do(ctx, sess, "doctors.schedule.publish", http.MethodPost, path, days, &payload); err != nil {
		return nil, err
	}

	result := &PublishResult{}
	result.Message, _ = normalizer.PickFirstString(payload, "message", "mensagem", "detail")
	if n, ok := normalizer.PickFirstNumber(payload, "daysCount", "days_count", "totalDays", "days"); ok {
		result.DaysCount = int(n)
	} else {
		result.DaysCount = len(days)
	}
	if n, ok := normalizer.PickFirstNumber(payload, "slotsCount", "slots_count", "totalSlots", "slots"); ok {
		result.SlotsCount = int(n)
	} else {
		for _, d := range days {
			result.SlotsCount += len(d.Slots)
		}
	}
	return result, nil
}

func (c *Client) GetPatientDoctorSchedule(ctx context.Context, sess *Session, doctorID string) (*DoctorSchedule, error) {
	path := "/api/patient/doctors/" + url.PathEscape(doctorID) + "/schedule"
	var out DoctorSchedule
	if err := c.do(ctx, sess, "patient.doctors.schedule", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Days == nil {
		out.Days = []ScheduleDay{}
	}
	return &out, nil
}
