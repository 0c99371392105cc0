package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"passmais-agenda/internal/converter"
	"passmais-agenda/internal/delivery/dto"
	"passmais-agenda/internal/domain/entity"
	"passmais-agenda/internal/domain/repository"
	"passmais-agenda/internal/infrastructure/cache"
	"passmais-agenda/internal/infrastructure/upstream"
	"passmais-agenda/internal/schedule"
	"passmais-agenda/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidSlots        = errors.New("invalid time slots")
	ErrInvalidScheduleDate = errors.New("invalid schedule date format, use YYYY-MM-DD")
	ErrInvalidTimeFormat   = errors.New("invalid time format, use HH:MM")
	ErrInvalidWeekday      = errors.New("invalid weekday")
	ErrInvalidInterval     = errors.New("appointment interval must be between 5 and 240 minutes")
	ErrInvalidBuffer       = errors.New("buffer must be between 0 and 120 minutes")
	ErrInvalidDateRange    = errors.New("end date must not be before start date")
	ErrSchedulePast        = errors.New("cannot change a date in the past")
)

const (
	minInterval = 5
	maxInterval = 240
	maxBuffer   = 120
)

// SlotValidationError carries the issues that blocked a save. It matches
// ErrInvalidSlots with errors.Is.
type SlotValidationError struct {
	Issues []string
}

func (e *SlotValidationError) Error() string {
	return ErrInvalidSlots.Error() + ": " + strings.Join(e.Issues, "; ")
}

func (e *SlotValidationError) Is(target error) bool {
	return target == ErrInvalidSlots
}

// ScheduleGateway publishes a projected week to the PassMais API.
type ScheduleGateway interface {
	PublishDoctorSchedule(ctx context.Context, sess *upstream.Session, doctorID string, days []schedule.PublishDay) (*upstream.PublishResult, error)
}

type AvailabilityUsecase interface {
	GetAvailability(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityResponse, error)
	SaveSpecificDay(ctx context.Context, doctorID uuid.UUID, isoDate string, req *dto.SaveSpecificDayRequest) (*dto.AvailabilityResponse, error)
	ClearSpecificDay(ctx context.Context, doctorID uuid.UUID, isoDate string) error
	SaveRecurringDay(ctx context.Context, doctorID uuid.UUID, weekday string, req *dto.SaveRecurringDayRequest) (*dto.AvailabilityResponse, error)
	ToggleRecurringDay(ctx context.Context, doctorID uuid.UUID, weekday string) (*dto.AvailabilityResponse, error)
	SaveRecurringSettings(ctx context.Context, doctorID uuid.UUID, req *dto.SaveSettingsRequest) (*dto.AvailabilityResponse, error)
	ValidateRanges(req *dto.ValidateRangesRequest) *dto.ValidateRangesResponse
	GetWeekPreview(ctx context.Context, doctorID uuid.UUID) (*dto.WeekPreviewResponse, error)
	RemovePreviewSlot(ctx context.Context, doctorID uuid.UUID, isoDate, slot string) (*dto.RemoveSlotResponse, error)
	PublishSchedule(ctx context.Context, doctorID uuid.UUID, sess *upstream.Session) (*dto.PublishResponse, error)
}

type availabilityUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	availabilityRepo repository.AvailabilityRepository
	auditService     service.AuditService
	previewCache     *cache.PreviewCache
	gateway          ScheduleGateway
	loc              *time.Location
	now              func() time.Time
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	availabilityRepo repository.AvailabilityRepository,
	auditService service.AuditService,
	previewCache *cache.PreviewCache,
	gateway ScheduleGateway,
	loc *time.Location,
) AvailabilityUsecase {
	return &availabilityUsecase{
		db:               db,
		log:              log,
		availabilityRepo: availabilityRepo,
		auditService:     auditService,
		previewCache:     previewCache,
		gateway:          gateway,
		loc:              loc,
		now:              time.Now,
	}
}

// today is local midnight in the clinic's timezone.
func (u *availabilityUsecase) today() time.Time {
	t := u.now().In(u.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, u.loc)
}

func (u *availabilityUsecase) load(db *gorm.DB, doctorID uuid.UUID) (schedule.Availability, error) {
	specific, err := u.availabilityRepo.FindSpecificByDoctor(db, doctorID)
	if err != nil {
		return schedule.Availability{}, err
	}
	recurring, err := u.availabilityRepo.FindRecurringByDoctor(db, doctorID)
	if err != nil {
		return schedule.Availability{}, err
	}
	settings, err := u.availabilityRepo.FindSettings(db, doctorID)
	if err != nil {
		return schedule.Availability{}, err
	}
	return converter.EntitiesToAvailability(specific, recurring, settings, u.today()), nil
}

func (u *availabilityUsecase) invalidatePreview(ctx context.Context, doctorID uuid.UUID) {
	if err := u.previewCache.Invalidate(ctx, doctorID); err != nil {
		u.log.Warnf("Failed to invalidate preview cache for doctor %s: %+v", doctorID, err)
	}
}

func (u *availabilityUsecase) audit(ctx context.Context, tx *gorm.DB, doctorID uuid.UUID, entry service.AuditEntry) {
	if err := u.auditService.Record(ctx, tx, doctorID, entry); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
		// Don't fail the transaction for audit log errors
	}
}

// parseFutureDate parses an ISO date that must not be before today.
func (u *availabilityUsecase) parseFutureDate(isoDate string) (time.Time, error) {
	date, err := time.Parse(schedule.ISODateLayout, isoDate)
	if err != nil {
		return time.Time{}, ErrInvalidScheduleDate
	}
	if isoDate < u.today().Format(schedule.ISODateLayout) {
		return time.Time{}, ErrSchedulePast
	}
	return date, nil
}

func (u *availabilityUsecase) GetAvailability(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityResponse, error) {
	a, err := u.load(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to load availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	return converter.AvailabilityToResponse(doctorID, a), nil
}

func (u *availabilityUsecase) SaveSpecificDay(ctx context.Context, doctorID uuid.UUID, isoDate string, req *dto.SaveSpecificDayRequest) (*dto.AvailabilityResponse, error) {
	date, err := u.parseFutureDate(isoDate)
	if err != nil {
		return nil, err
	}

	ranges := make([]schedule.SpecificRange, len(req.Ranges))
	timeRanges := make([]schedule.TimeRange, len(req.Ranges))
	for i, r := range req.Ranges {
		ranges[i] = schedule.SpecificRange{
			ID:       r.ID,
			Start:    schedule.NormalizeClock(r.Start),
			End:      schedule.NormalizeClock(r.End),
			Interval: r.Interval,
		}
		timeRanges[i] = ranges[i].TimeRange()
	}
	if issues := schedule.ValidateSlots(timeRanges); len(issues) > 0 {
		return nil, &SlotValidationError{Issues: issues}
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	before, err := u.load(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to load availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	rows := converter.SpecificRangesToEntities(doctorID, date, ranges)
	if err := u.availabilityRepo.ReplaceSpecificDay(tx, doctorID, date, rows); err != nil {
		u.log.Warnf("Failed to save specific day %s for doctor %s: %+v", isoDate, doctorID, err)
		return nil, err
	}

	u.audit(ctx, tx, doctorID, service.AuditEntry{
		Action:   entity.AuditActionSpecificDaySave,
		Entity:   "specific_day",
		EntityID: isoDate,
		Old:      before.Specific[isoDate],
		New:      rows,
	})

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}
	u.invalidatePreview(ctx, doctorID)

	u.log.Infof("Doctor %s saved %d range(s) for %s", doctorID, len(rows), isoDate)
	return u.GetAvailability(ctx, doctorID)
}

func (u *availabilityUsecase) ClearSpecificDay(ctx context.Context, doctorID uuid.UUID, isoDate string) error {
	date, err := time.Parse(schedule.ISODateLayout, isoDate)
	if err != nil {
		return ErrInvalidScheduleDate
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	affected, err := u.availabilityRepo.DeleteSpecificDay(tx, doctorID, date)
	if err != nil {
		u.log.Warnf("Failed to clear specific day %s for doctor %s: %+v", isoDate, doctorID, err)
		return err
	}
	if affected > 0 {
		u.audit(ctx, tx, doctorID, service.AuditEntry{
			Action:   entity.AuditActionSpecificDayClear,
			Entity:   "specific_day",
			EntityID: isoDate,
			Old:      map[string]int64{"ranges": affected},
		})
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}
	if affected > 0 {
		u.invalidatePreview(ctx, doctorID)
	}
	return nil
}

func (u *availabilityUsecase) SaveRecurringDay(ctx context.Context, doctorID uuid.UUID, weekday string, req *dto.SaveRecurringDayRequest) (*dto.AvailabilityResponse, error) {
	day, err := schedule.ParseWeekday(weekday)
	if err != nil {
		return nil, ErrInvalidWeekday
	}

	rule := schedule.RecurringDay{Enabled: req.Enabled, Slots: make([]schedule.RecurringRange, len(req.Ranges))}
	for i, r := range req.Ranges {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		rule.Slots[i] = schedule.RecurringRange{
			ID:    id,
			Start: schedule.NormalizeClock(r.Start),
			End:   schedule.NormalizeClock(r.End),
		}
	}
	if issues := schedule.ValidateSlots(rule.TimeRanges()); len(issues) > 0 {
		return nil, &SlotValidationError{Issues: issues}
	}

	if err := u.saveRecurring(ctx, doctorID, day, entity.AuditActionRecurringDaySave, func(schedule.RecurringDay) schedule.RecurringDay {
		return rule
	}); err != nil {
		return nil, err
	}
	return u.GetAvailability(ctx, doctorID)
}

func (u *availabilityUsecase) ToggleRecurringDay(ctx context.Context, doctorID uuid.UUID, weekday string) (*dto.AvailabilityResponse, error) {
	day, err := schedule.ParseWeekday(weekday)
	if err != nil {
		return nil, ErrInvalidWeekday
	}

	if err := u.saveRecurring(ctx, doctorID, day, entity.AuditActionRecurringToggle, func(current schedule.RecurringDay) schedule.RecurringDay {
		current.Enabled = !current.Enabled
		return current
	}); err != nil {
		return nil, err
	}
	return u.GetAvailability(ctx, doctorID)
}

// saveRecurring rewrites one weekday rule from its current value.
func (u *availabilityUsecase) saveRecurring(ctx context.Context, doctorID uuid.UUID, day time.Weekday, action string, change func(schedule.RecurringDay) schedule.RecurringDay) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	a, err := u.load(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to load availability for doctor %s: %+v", doctorID, err)
		return err
	}

	before := a.Recurring[day]
	after := change(before)
	if after.Slots == nil {
		after.Slots = []schedule.RecurringRange{}
	}

	if err := u.availabilityRepo.UpsertRecurringDay(tx, converter.RecurringDayToEntity(doctorID, day, after)); err != nil {
		u.log.Warnf("Failed to save recurring %s for doctor %s: %+v", schedule.WeekdayName(day), doctorID, err)
		return err
	}

	u.audit(ctx, tx, doctorID, service.AuditEntry{
		Action:   action,
		Entity:   "recurring_day",
		EntityID: schedule.WeekdayName(day),
		Old:      before,
		New:      after,
	})

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}
	u.invalidatePreview(ctx, doctorID)
	return nil
}

func (u *availabilityUsecase) SaveRecurringSettings(ctx context.Context, doctorID uuid.UUID, req *dto.SaveSettingsRequest) (*dto.AvailabilityResponse, error) {
	if req.AppointmentInterval < minInterval || req.AppointmentInterval > maxInterval {
		return nil, ErrInvalidInterval
	}
	if req.BufferMinutes < 0 || req.BufferMinutes > maxBuffer {
		return nil, ErrInvalidBuffer
	}
	if _, err := time.Parse(schedule.ISODateLayout, req.StartDate); err != nil {
		return nil, ErrInvalidScheduleDate
	}

	settings := schedule.RecurringSettings{
		AppointmentInterval: req.AppointmentInterval,
		BufferMinutes:       req.BufferMinutes,
		StartDate:           req.StartDate,
		NoEndDate:           req.NoEndDate,
		Exceptions:          []string{},
	}
	if !req.NoEndDate && req.EndDate != "" {
		if _, err := time.Parse(schedule.ISODateLayout, req.EndDate); err != nil {
			return nil, ErrInvalidScheduleDate
		}
		if req.EndDate < req.StartDate {
			return nil, ErrInvalidDateRange
		}
		settings.EndDate = req.EndDate
	}

	seen := make(map[string]bool, len(req.Exceptions))
	for _, e := range req.Exceptions {
		e = strings.TrimSpace(e)
		if _, err := time.Parse(schedule.ISODateLayout, e); err != nil {
			return nil, ErrInvalidScheduleDate
		}
		if !seen[e] {
			seen[e] = true
			settings.Exceptions = append(settings.Exceptions, e)
		}
	}
	sort.Strings(settings.Exceptions)

	row, err := converter.SettingsToEntity(doctorID, settings)
	if err != nil {
		return nil, ErrInvalidScheduleDate
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	before, err := u.availabilityRepo.FindSettings(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find settings for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	if err := u.availabilityRepo.UpsertSettings(tx, row); err != nil {
		u.log.Warnf("Failed to save settings for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	u.audit(ctx, tx, doctorID, service.AuditEntry{
		Action:   entity.AuditActionSettingsSave,
		Entity:   "recurring_settings",
		EntityID: doctorID.String(),
		Old:      before,
		New:      settings,
	})

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}
	u.invalidatePreview(ctx, doctorID)

	return u.GetAvailability(ctx, doctorID)
}

// ValidateRanges dry-runs a set of ranges without persisting anything.
func (u *availabilityUsecase) ValidateRanges(req *dto.ValidateRangesRequest) *dto.ValidateRangesResponse {
	ranges := make([]schedule.TimeRange, len(req.Ranges))
	for i, r := range req.Ranges {
		ranges[i] = schedule.TimeRange{Start: r.Start, End: r.End}
	}

	issues := schedule.ValidateSlots(ranges)
	resp := &dto.ValidateRangesResponse{Valid: len(issues) == 0, Issues: issues, Slots: []string{}}
	if resp.Valid {
		interval := req.Interval
		if interval == 0 {
			interval = schedule.DefaultAppointmentInterval
		}
		resp.Slots = schedule.GenerateSlotsPreview(ranges, interval, req.BufferMinutes)
	}
	return resp
}

func (u *availabilityUsecase) GetWeekPreview(ctx context.Context, doctorID uuid.UUID) (*dto.WeekPreviewResponse, error) {
	isoToday := u.today().Format(schedule.ISODateLayout)

	days, ok, err := u.previewCache.Get(ctx, doctorID, isoToday)
	if err != nil {
		u.log.Warnf("Failed to read preview cache for doctor %s: %+v", doctorID, err)
	}
	if ok {
		return converter.PreviewToResponse(isoToday, days), nil
	}

	days, err = u.project(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if err := u.previewCache.Set(ctx, doctorID, isoToday, days); err != nil {
		u.log.Warnf("Failed to write preview cache for doctor %s: %+v", doctorID, err)
	}
	return converter.PreviewToResponse(isoToday, days), nil
}

func (u *availabilityUsecase) project(ctx context.Context, doctorID uuid.UUID) ([]schedule.PreviewDay, error) {
	a, err := u.load(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to load availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	return schedule.ProjectWeek(u.today(), a), nil
}

func (u *availabilityUsecase) RemovePreviewSlot(ctx context.Context, doctorID uuid.UUID, isoDate, slot string) (*dto.RemoveSlotResponse, error) {
	date, err := u.parseFutureDate(isoDate)
	if err != nil {
		return nil, err
	}
	if _, err := schedule.ParseClock(slot); err != nil {
		return nil, ErrInvalidTimeFormat
	}
	slot = schedule.NormalizeClock(slot)

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	a, err := u.load(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to load availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	before := a.Clone()

	result, err := a.RemovePreviewSlot(isoDate, slot)
	if err != nil {
		return nil, ErrInvalidScheduleDate
	}

	if result.Changed {
		switch result.Source {
		case schedule.SourceSpecific:
			rows := converter.SpecificRangesToEntities(doctorID, date, a.Specific[isoDate])
			err = u.availabilityRepo.ReplaceSpecificDay(tx, doctorID, date, rows)
		case schedule.SourceRecurring:
			err = u.availabilityRepo.UpsertRecurringDay(tx, converter.RecurringDayToEntity(doctorID, date.Weekday(), a.Recurring[date.Weekday()]))
		}
		if err != nil {
			u.log.Warnf("Failed to remove slot %s %s for doctor %s: %+v", isoDate, slot, doctorID, err)
			return nil, err
		}

		u.audit(ctx, tx, doctorID, service.AuditEntry{
			Action:   entity.AuditActionPreviewSlotRemove,
			Entity:   strings.ToLower(string(result.Source)),
			EntityID: isoDate + " " + slot,
			Old:      before.ProjectDay(date).Slots,
			New:      a.ProjectDay(date).Slots,
		})

		if err := tx.Commit().Error; err != nil {
			u.log.Warnf("Failed commit transaction: %+v", err)
			return nil, err
		}
		u.invalidatePreview(ctx, doctorID)
	}

	preview, err := u.GetWeekPreview(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return &dto.RemoveSlotResponse{
		Source:  string(result.Source),
		Changed: result.Changed,
		Issues:  result.Issues,
		Preview: preview,
	}, nil
}

func (u *availabilityUsecase) PublishSchedule(ctx context.Context, doctorID uuid.UUID, sess *upstream.Session) (*dto.PublishResponse, error) {
	preview, err := u.project(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	days := schedule.ToPublishDays(preview)

	result, err := u.gateway.PublishDoctorSchedule(ctx, sess, doctorID.String(), days)
	if err != nil {
		u.log.Warnf("Failed to publish schedule for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()
	u.audit(ctx, tx, doctorID, service.AuditEntry{
		Action:   entity.AuditActionSchedulePublish,
		Entity:   "schedule",
		EntityID: doctorID.String(),
		New:      result,
	})
	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit publish audit for doctor %s: %+v", doctorID, err)
	}

	u.log.Infof("Doctor %s published %d day(s) with %d slot(s)", doctorID, result.DaysCount, result.SlotsCount)
	return converter.PublishToResponse(result, days), nil
}
