package normalizer

import (
	"fmt"
	"strings"
	"time"

	"passmais-agenda/internal/domain/entity"
)

// Fallback is shown when a display field is missing from the payload.
const Fallback = "—"

var statusSynonyms = map[string]string{
	"AGENDADA":   entity.AppointmentStatusScheduled,
	"AGENDADO":   entity.AppointmentStatusScheduled,
	"SCHEDULED":  entity.AppointmentStatusScheduled,
	"CONFIRMADA": entity.AppointmentStatusScheduled,
	"CONFIRMADO": entity.AppointmentStatusScheduled,
	"CONFIRMED":  entity.AppointmentStatusScheduled,
	"PENDENTE":   entity.AppointmentStatusScheduled,
	"PENDING":    entity.AppointmentStatusScheduled,
	"BOOKED":     entity.AppointmentStatusScheduled,

	"REALIZADA":  entity.AppointmentStatusDone,
	"REALIZADO":  entity.AppointmentStatusDone,
	"CONCLUIDA":  entity.AppointmentStatusDone,
	"CONCLUÍDA":  entity.AppointmentStatusDone,
	"FINALIZADA": entity.AppointmentStatusDone,
	"DONE":       entity.AppointmentStatusDone,
	"COMPLETED":  entity.AppointmentStatusDone,
	"FINISHED":   entity.AppointmentStatusDone,

	"CANCELADA": entity.AppointmentStatusCancelled,
	"CANCELADO": entity.AppointmentStatusCancelled,
	"CANCELED":  entity.AppointmentStatusCancelled,
	"CANCELLED": entity.AppointmentStatusCancelled,
}

// NormalizeStatus maps known synonyms onto AGENDADA, REALIZADA or CANCELADA.
// Anything else is returned uppercased.
func NormalizeStatus(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if canonical, ok := statusSynonyms[upper]; ok {
		return canonical
	}
	return upper
}

var payloadKeys = []string{"data", "items", "results", "appointments", "content"}

// ExtractAppointmentsPayload unwraps the list from a bare array or from the
// first wrapper key holding an array.
func ExtractAppointmentsPayload(payload any) []any {
	if list, ok := payload.([]any); ok {
		return list
	}
	for _, key := range payloadKeys {
		if list, ok := GetNestedValue(payload, key).([]any); ok {
			return list
		}
	}
	return []any{}
}

// Candidate paths per attribute. The first path of each list is the field
// name Appointment encodes to, which keeps normalization idempotent.
var (
	idPaths               = []string{"id", "appointmentId", "appointment_id", "_id", "uuid"}
	dateTimePaths         = []string{"appointmentDateTime", "dateTime", "datetime", "scheduledAt", "startsAt", "dataHora"}
	datePaths             = []string{"date", "appointmentDate", "scheduledDate", "data"}
	timePaths             = []string{"time", "appointmentTime", "startTime", "hora", "horario"}
	doctorIDPaths         = []string{"doctorId", "doctor.id", "medico.id", "professional.id", "doctor_id"}
	doctorNamePaths       = []string{"doctorName", "doctor.name", "medico.nome", "professional.name", "doctor.fullName"}
	patientIDPaths        = []string{"patientId", "patient.id", "paciente.id", "patient_id"}
	patientNamePaths      = []string{"patientName", "patient.name", "paciente.nome", "patient.fullName"}
	patientCPFPaths       = []string{"patientCpf", "patient.cpf", "paciente.cpf", "cpf"}
	patientBirthDatePaths = []string{"patientBirthDate", "patient.birthDate", "paciente.dataNascimento", "birthDate"}
	patientPhonePaths     = []string{"patientPhone", "patient.phone", "paciente.telefone", "phone"}
	clinicAddressPaths    = []string{"clinicAddress", "clinic.address", "doctor.clinicAddress", "address", "endereco"}
	locationPaths         = []string{"location", "clinic.name", "local"}
	pricePaths            = []string{"price", "consultationValue", "doctor.consultationPrice", "valor", "value"}
	statusPaths           = []string{"status", "appointmentStatus", "situacao"}
	consultationPaths     = []string{"consultationValue", "doctor.consultationPrice", "valorConsulta"}
	bookedAtPaths         = []string{"bookedAt", "createdAt", "created_at"}
	reasonPaths           = []string{"reason", "cancellationReason", "motivo"}
	timezonePaths         = []string{"timezone", "timeZone", "tz"}
)

// NormalizeAppointment builds the canonical record for the index-th (0-based)
// element of a list. Missing fields degrade to fallbacks; records without an
// id get the positional id "appt-{index+1}".
func NormalizeAppointment(raw any, index int) entity.Appointment {
	appt := entity.Appointment{
		ID:            fmt.Sprintf("appt-%d", index+1),
		DoctorName:    Fallback,
		PatientName:   Fallback,
		ClinicAddress: Fallback,
		Status:        entity.AppointmentStatusScheduled,
	}

	if id, ok := PickFirstString(raw, idPaths...); ok {
		appt.ID = id
	}

	dateTime, hasDateTime := PickFirstString(raw, dateTimePaths...)
	if hasDateTime {
		appt.AppointmentDateTime = &dateTime
	}
	if date, ok := PickFirstString(raw, datePaths...); ok {
		d, t := splitDateTime(date)
		appt.Date = d
		if appt.Time == "" {
			appt.Time = t
		}
	}
	if clock, ok := PickFirstString(raw, timePaths...); ok {
		appt.Time = normalizeTime(clock)
	}
	if hasDateTime && (appt.Date == "" || appt.Time == "") {
		d, t := splitDateTime(dateTime)
		if appt.Date == "" {
			appt.Date = d
		}
		if appt.Time == "" {
			appt.Time = t
		}
	}

	appt.DoctorID = optionalString(raw, doctorIDPaths)
	if name, ok := PickFirstString(raw, doctorNamePaths...); ok {
		appt.DoctorName = name
	}
	appt.PatientID = optionalString(raw, patientIDPaths)
	if name, ok := PickFirstString(raw, patientNamePaths...); ok {
		appt.PatientName = name
	}
	if cpf, ok := PickDigits(raw, patientCPFPaths...); ok {
		appt.PatientCPF = &cpf
	}
	appt.PatientBirthDate = optionalString(raw, patientBirthDatePaths)
	if phone, ok := PickDigits(raw, patientPhonePaths...); ok {
		appt.PatientPhone = &phone
	}
	if address, ok := PickFirstString(raw, clinicAddressPaths...); ok {
		appt.ClinicAddress = address
	}
	appt.Location = optionalString(raw, locationPaths)

	if price, ok := PickFirstNumber(raw, pricePaths...); ok {
		appt.Price = price
	}
	if value, ok := PickFirstNumber(raw, consultationPaths...); ok {
		appt.ConsultationValue = &value
	}
	if status, ok := PickFirstString(raw, statusPaths...); ok {
		appt.Status = NormalizeStatus(status)
	}

	appt.BookedAt = optionalString(raw, bookedAtPaths)
	appt.Reason = optionalString(raw, reasonPaths)
	appt.Timezone = optionalString(raw, timezonePaths)

	return appt
}

// NormalizeAppointments unwraps payload and normalizes every element.
func NormalizeAppointments(payload any) []entity.Appointment {
	items := ExtractAppointmentsPayload(payload)
	appointments := make([]entity.Appointment, len(items))
	for i, item := range items {
		appointments[i] = NormalizeAppointment(item, i)
	}
	return appointments
}

func optionalString(raw any, paths []string) *string {
	if s, ok := PickFirstString(raw, paths...); ok {
		return &s
	}
	return nil
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// splitDateTime separates "YYYY-MM-DDTHH:MM..." into date and "HH:MM" parts.
// A plain date is returned with an empty time.
func splitDateTime(value string) (string, string) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), t.Format("15:04")
		}
	}
	return value, ""
}

// normalizeTime trims seconds from "HH:MM:SS" values.
func normalizeTime(value string) string {
	if t, err := time.Parse("15:04:05", value); err == nil {
		return t.Format("15:04")
	}
	if t, err := time.Parse("15:04", value); err == nil {
		return t.Format("15:04")
	}
	return value
}
