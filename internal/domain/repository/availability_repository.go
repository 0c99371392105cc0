package repository

import (
	"time"

	"passmais-agenda/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AvailabilityRepository interface {
	FindSpecificByDoctor(db *gorm.DB, doctorID uuid.UUID) ([]entity.SpecificDayRange, error)
	// ReplaceSpecificDay swaps every range of the day for ranges. An empty
	// slice clears the day.
	ReplaceSpecificDay(db *gorm.DB, doctorID uuid.UUID, date time.Time, ranges []entity.SpecificDayRange) error
	DeleteSpecificDay(db *gorm.DB, doctorID uuid.UUID, date time.Time) (int64, error)

	FindRecurringByDoctor(db *gorm.DB, doctorID uuid.UUID) ([]entity.RecurringDay, error)
	UpsertRecurringDay(db *gorm.DB, day *entity.RecurringDay) error

	FindSettings(db *gorm.DB, doctorID uuid.UUID) (*entity.RecurringSetting, error)
	UpsertSettings(db *gorm.DB, settings *entity.RecurringSetting) error
}
