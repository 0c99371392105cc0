package repository

import (
	"errors"
	"time"

	"passmais-agenda/internal/domain/entity"
	domainRepo "passmais-agenda/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type availabilityRepository struct{}

func NewAvailabilityRepository() domainRepo.AvailabilityRepository {
	return &availabilityRepository{}
}

func (r *availabilityRepository) FindSpecificByDoctor(db *gorm.DB, doctorID uuid.UUID) ([]entity.SpecificDayRange, error) {
	var ranges []entity.SpecificDayRange
	err := db.Where("doctor_id = ?", doctorID).Order("schedule_date ASC, start_time ASC").Find(&ranges).Error
	if err != nil {
		return nil, err
	}
	return ranges, nil
}

func (r *availabilityRepository) ReplaceSpecificDay(db *gorm.DB, doctorID uuid.UUID, date time.Time, ranges []entity.SpecificDayRange) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ? AND schedule_date = ?", doctorID, date).Delete(&entity.SpecificDayRange{}).Error; err != nil {
			return err
		}
		if len(ranges) == 0 {
			return nil
		}
		return tx.Create(&ranges).Error
	})
}

func (r *availabilityRepository) DeleteSpecificDay(db *gorm.DB, doctorID uuid.UUID, date time.Time) (int64, error) {
	affected := db.Where("doctor_id = ? AND schedule_date = ?", doctorID, date).Delete(&entity.SpecificDayRange{})
	return affected.RowsAffected, affected.Error
}

func (r *availabilityRepository) FindRecurringByDoctor(db *gorm.DB, doctorID uuid.UUID) ([]entity.RecurringDay, error) {
	var days []entity.RecurringDay
	err := db.Where("doctor_id = ?", doctorID).Order("weekday ASC").Find(&days).Error
	if err != nil {
		return nil, err
	}
	return days, nil
}

func (r *availabilityRepository) UpsertRecurringDay(db *gorm.DB, day *entity.RecurringDay) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doctor_id"}, {Name: "weekday"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "ranges", "updated_at"}),
	}).Create(day).Error
}

func (r *availabilityRepository) FindSettings(db *gorm.DB, doctorID uuid.UUID) (*entity.RecurringSetting, error) {
	var settings entity.RecurringSetting
	err := db.Where("doctor_id = ?", doctorID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *availabilityRepository) UpsertSettings(db *gorm.DB, settings *entity.RecurringSetting) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doctor_id"}},
		UpdateAll: true,
	}).Create(settings).Error
}
