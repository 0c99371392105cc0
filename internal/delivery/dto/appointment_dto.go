package dto

// Request DTOs

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type RescheduleAppointmentRequest struct {
	NewDate string `json:"new_date" validate:"required,isodate"`
	NewTime string `json:"new_time" validate:"required,clock"`
}

// Response DTOs

type AppointmentResponse struct {
	ID                  string   `json:"id"`
	Date                string   `json:"date"`
	Time                string   `json:"time"`
	AppointmentDateTime *string  `json:"appointment_date_time,omitempty"`
	DoctorID            *string  `json:"doctor_id,omitempty"`
	DoctorName          string   `json:"doctor_name"`
	PatientID           *string  `json:"patient_id,omitempty"`
	PatientName         string   `json:"patient_name"`
	PatientCPF          *string  `json:"patient_cpf,omitempty"`
	PatientBirthDate    *string  `json:"patient_birth_date,omitempty"`
	PatientPhone        *string  `json:"patient_phone,omitempty"`
	ClinicAddress       string   `json:"clinic_address"`
	Location            *string  `json:"location,omitempty"`
	Price               float64  `json:"price"`
	PriceLabel          string   `json:"price_label"`
	ConsultationValue   *float64 `json:"consultation_value,omitempty"`
	Status              string   `json:"status"`
	BookedAt            *string  `json:"booked_at,omitempty"`
	Reason              *string  `json:"reason,omitempty"`
	Timezone            *string  `json:"timezone,omitempty"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type ScheduleDayResponse struct {
	Date    string   `json:"date"`
	Label   string   `json:"label"`
	Blocked bool     `json:"blocked"`
	Slots   []string `json:"slots"`
}

type DoctorScheduleResponse struct {
	DoctorID string                `json:"doctor_id"`
	Timezone string                `json:"timezone"`
	Days     []ScheduleDayResponse `json:"days"`
}
