package entity

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SpecificDayRange is one time range of a dated override. A day with no rows
// falls back to the doctor's recurring rule.
type SpecificDayRange struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DoctorID        uuid.UUID `gorm:"type:uuid;not null;index:idx_specific_doctor_date" json:"doctor_id"`
	ScheduleDate    time.Time `gorm:"type:date;not null;index:idx_specific_doctor_date" json:"schedule_date"`
	StartTime       string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime         string    `gorm:"type:varchar(5);not null" json:"end_time"`
	IntervalMinutes int       `gorm:"not null" json:"interval_minutes"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SpecificDayRange) TableName() string {
	return "specific_day_ranges"
}

type RecurringRange struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// RecurringRangeList is stored as a jsonb array.
type RecurringRangeList []RecurringRange

func (l RecurringRangeList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]RecurringRange(l))
	return string(b), err
}

func (l *RecurringRangeList) Scan(value interface{}) error {
	var out []RecurringRange
	if err := scanJSONB(value, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// RecurringDay is the weekly rule for one weekday (0 = Sunday).
type RecurringDay struct {
	DoctorID  uuid.UUID          `gorm:"type:uuid;primaryKey;autoIncrement:false" json:"doctor_id"`
	Weekday   int                `gorm:"primaryKey;autoIncrement:false" json:"weekday"`
	Enabled   bool               `gorm:"not null;default:false" json:"enabled"`
	Ranges    RecurringRangeList `gorm:"type:jsonb;not null" json:"ranges"`
	UpdatedAt time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RecurringDay) TableName() string {
	return "recurring_days"
}

type RecurringSetting struct {
	DoctorID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"doctor_id"`
	AppointmentInterval int        `gorm:"not null" json:"appointment_interval"`
	BufferMinutes       int        `gorm:"not null" json:"buffer_minutes"`
	StartDate           time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate             *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	NoEndDate           bool       `gorm:"not null" json:"no_end_date"`
	Exceptions          StringList `gorm:"type:jsonb;not null" json:"exceptions"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RecurringSetting) TableName() string {
	return "recurring_settings"
}
