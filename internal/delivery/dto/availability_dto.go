package dto

import (
	"github.com/google/uuid"
)

// Request DTOs

// Range bounds are not tag-validated: malformed or overlapping ranges are
// reported as slot issues by the use case.
type SpecificRangeRequest struct {
	ID       string `json:"id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Interval int    `json:"interval" validate:"omitempty,min=5,max=240"`
}

type SaveSpecificDayRequest struct {
	Ranges []SpecificRangeRequest `json:"ranges" validate:"dive"`
}

type RecurringRangeRequest struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type SaveRecurringDayRequest struct {
	Enabled bool                    `json:"enabled"`
	Ranges  []RecurringRangeRequest `json:"ranges" validate:"dive"`
}

type SaveSettingsRequest struct {
	AppointmentInterval int      `json:"appointment_interval" validate:"required,min=5,max=240"`
	BufferMinutes       int      `json:"buffer_minutes" validate:"min=0,max=120"`
	StartDate           string   `json:"start_date" validate:"required,isodate"`
	EndDate             string   `json:"end_date" validate:"omitempty,isodate"`
	NoEndDate           bool     `json:"no_end_date"`
	Exceptions          []string `json:"exceptions" validate:"dive,isodate"`
}

type TimeRangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ValidateRangesRequest struct {
	Ranges        []TimeRangeRequest `json:"ranges"`
	Interval      int                `json:"interval" validate:"omitempty,min=5,max=240"`
	BufferMinutes int                `json:"buffer_minutes" validate:"min=0,max=120"`
}

// Response DTOs

type SpecificRangeResponse struct {
	ID       string `json:"id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Interval int    `json:"interval"`
}

type SpecificDayResponse struct {
	Date   string                  `json:"date"`
	Ranges []SpecificRangeResponse `json:"ranges"`
}

type RecurringRangeResponse struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type RecurringDayResponse struct {
	Weekday string                   `json:"weekday"`
	Enabled bool                     `json:"enabled"`
	Ranges  []RecurringRangeResponse `json:"ranges"`
}

type SettingsResponse struct {
	AppointmentInterval int      `json:"appointment_interval"`
	BufferMinutes       int      `json:"buffer_minutes"`
	StartDate           string   `json:"start_date"`
	EndDate             string   `json:"end_date,omitempty"`
	NoEndDate           bool     `json:"no_end_date"`
	Exceptions          []string `json:"exceptions"`
}

type AvailabilityResponse struct {
	DoctorID      uuid.UUID              `json:"doctor_id"`
	SpecificDays  []SpecificDayResponse  `json:"specific_days"`
	RecurringDays []RecurringDayResponse `json:"recurring_days"`
	Settings      SettingsResponse       `json:"settings"`
}

type ValidateRangesResponse struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
	Slots  []string `json:"slots"`
}

type PreviewDayResponse struct {
	Date    string   `json:"date"`
	Label   string   `json:"label"`
	Weekday string   `json:"weekday"`
	Source  string   `json:"source"`
	Slots   []string `json:"slots"`
}

type WeekPreviewResponse struct {
	Today      string               `json:"today"`
	Days       []PreviewDayResponse `json:"days"`
	TotalSlots int                  `json:"total_slots"`
}

type RemoveSlotResponse struct {
	Source  string               `json:"source"`
	Changed bool                 `json:"changed"`
	Issues  []string             `json:"issues"`
	Preview *WeekPreviewResponse `json:"preview"`
}

type PublishedDayResponse struct {
	Date   string   `json:"date"`
	Label  string   `json:"label"`
	Source string   `json:"source"`
	Slots  []string `json:"slots"`
}

type PublishResponse struct {
	Message    string                 `json:"message,omitempty"`
	DaysCount  int                    `json:"days_count"`
	SlotsCount int                    `json:"slots_count"`
	Days       []PublishedDayResponse `json:"days"`
}
