package converter

import (
	"passmais-agenda/internal/delivery/dto"
	"passmais-agenda/internal/domain/entity"
	"passmais-agenda/internal/infrastructure/upstream"
)

// AppointmentToResponse converts a normalized Appointment to AppointmentResponse DTO
func AppointmentToResponse(a *entity.Appointment) *dto.AppointmentResponse {
	if a == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:                  a.ID,
		Date:                a.Date,
		Time:                a.Time,
		AppointmentDateTime: a.AppointmentDateTime,
		DoctorID:            a.DoctorID,
		DoctorName:          a.DoctorName,
		PatientID:           a.PatientID,
		PatientName:         a.PatientName,
		PatientCPF:          a.PatientCPF,
		PatientBirthDate:    a.PatientBirthDate,
		PatientPhone:        a.PatientPhone,
		ClinicAddress:       a.ClinicAddress,
		Location:            a.Location,
		Price:               a.Price,
		PriceLabel:          a.PriceLabel(),
		ConsultationValue:   a.ConsultationValue,
		Status:              a.Status,
		BookedAt:            a.BookedAt,
		Reason:              a.Reason,
		Timezone:            a.Timezone,
	}
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}

func DoctorScheduleToResponse(doctorID string, s *upstream.DoctorSchedule) *dto.DoctorScheduleResponse {
	resp := &dto.DoctorScheduleResponse{
		DoctorID: doctorID,
		Timezone: s.Timezone,
		Days:     make([]dto.ScheduleDayResponse, len(s.Days)),
	}
	for i, d := range s.Days {
		slots := d.Slots
		if slots == nil {
			slots = []string{}
		}
		resp.Days[i] = dto.ScheduleDayResponse{
			Date:    d.ISODate,
			Label:   d.Label,
			Blocked: d.Blocked,
			Slots:   slots,
		}
	}
	return resp
}
