package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Appointment statuses after normalization. Unknown upstream values are kept
// uppercased, so this set is open.
const (
	AppointmentStatusScheduled = "AGENDADA"
	AppointmentStatusDone      = "REALIZADA"
	AppointmentStatusCancelled = "CANCELADA"
)

// Appointment is the canonical record built from a PassMais API payload.
// It is rebuilt on every fetch and never stored in PostgreSQL.
type Appointment struct {
	ID                  string   `json:"id"`
	Date                string   `json:"date"`
	Time                string   `json:"time"`
	AppointmentDateTime *string  `json:"appointmentDateTime,omitempty"`
	DoctorID            *string  `json:"doctorId,omitempty"`
	DoctorName          string   `json:"doctorName"`
	PatientID           *string  `json:"patientId,omitempty"`
	PatientName         string   `json:"patientName"`
	PatientCPF          *string  `json:"patientCpf,omitempty"`
	PatientBirthDate    *string  `json:"patientBirthDate,omitempty"`
	PatientPhone        *string  `json:"patientPhone,omitempty"`
	ClinicAddress       string   `json:"clinicAddress"`
	Location            *string  `json:"location,omitempty"`
	Price               float64  `json:"price"`
	Status              string   `json:"status"`
	ConsultationValue   *float64 `json:"consultationValue,omitempty"`
	BookedAt            *string  `json:"bookedAt,omitempty"`
	Reason              *string  `json:"reason,omitempty"`
	Timezone            *string  `json:"timezone,omitempty"`
}

// IsCancelled checks if appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// IsDone checks if appointment already happened
func (a *Appointment) IsDone() bool {
	return a.Status == AppointmentStatusDone
}

// Cancel mirrors a successful upstream cancellation.
func (a *Appointment) Cancel(reason string) {
	a.Status = AppointmentStatusCancelled
	if r := strings.TrimSpace(reason); r != "" {
		a.Reason = &r
	}
}

// Reschedule mirrors a successful upstream reschedule.
func (a *Appointment) Reschedule(date, clock string) {
	a.Date = date
	a.Time = clock
	a.AppointmentDateTime = nil
	a.Status = AppointmentStatusScheduled
}

// PriceLabel formats the price in BRL, e.g. "R$ 1.250,50".
func (a *Appointment) PriceLabel() string {
	fixed := decimal.NewFromFloat(a.Price).Round(2).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")
	whole, cents, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	label := "R$ " + grouped.String() + "," + cents
	if negative {
		label = "-" + label
	}
	return label
}
