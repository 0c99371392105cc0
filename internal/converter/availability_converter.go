package converter

import (
	"sort"
	"time"

	"passmais-agenda/internal/delivery/dto"
	"passmais-agenda/internal/domain/entity"
	"passmais-agenda/internal/infrastructure/upstream"
	"passmais-agenda/internal/schedule"

	"github.com/google/uuid"
)

// EntitiesToAvailability assembles a doctor's availability from its stored
// rows. Weekdays without a row keep the default rule and missing settings
// default to a rule starting today.
func EntitiesToAvailability(specific []entity.SpecificDayRange, recurring []entity.RecurringDay, settings *entity.RecurringSetting, today time.Time) schedule.Availability {
	a := schedule.Availability{
		Specific:  make(schedule.SpecificDaySchedules),
		Recurring: schedule.DefaultRecurringWeek(),
		Settings:  schedule.DefaultRecurringSettings(today),
	}

	for _, r := range specific {
		iso := r.ScheduleDate.Format(schedule.ISODateLayout)
		a.Specific[iso] = append(a.Specific[iso], schedule.SpecificRange{
			ID:       r.ID.String(),
			Start:    r.StartTime,
			End:      r.EndTime,
			Interval: r.IntervalMinutes,
		})
	}

	for _, d := range recurring {
		if d.Weekday < int(time.Sunday) || d.Weekday > int(time.Saturday) {
			continue
		}
		slots := make([]schedule.RecurringRange, len(d.Ranges))
		for i, r := range d.Ranges {
			slots[i] = schedule.RecurringRange{ID: r.ID, Start: r.Start, End: r.End}
		}
		a.Recurring[time.Weekday(d.Weekday)] = schedule.RecurringDay{Enabled: d.Enabled, Slots: slots}
	}

	if settings != nil {
		s := schedule.RecurringSettings{
			AppointmentInterval: settings.AppointmentInterval,
			BufferMinutes:       settings.BufferMinutes,
			StartDate:           settings.StartDate.Format(schedule.ISODateLayout),
			NoEndDate:           settings.NoEndDate,
			Exceptions:          append([]string{}, settings.Exceptions...),
		}
		if settings.EndDate != nil {
			s.EndDate = settings.EndDate.Format(schedule.ISODateLayout)
		}
		a.Settings = s
	}

	return a
}

// SpecificRangesToEntities maps one day's ranges to rows. Ids that are not
// UUIDs are replaced.
func SpecificRangesToEntities(doctorID uuid.UUID, date time.Time, ranges []schedule.SpecificRange) []entity.SpecificDayRange {
	rows := make([]entity.SpecificDayRange, len(ranges))
	for i, r := range ranges {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			id = uuid.New()
		}
		rows[i] = entity.SpecificDayRange{
			ID:              id,
			DoctorID:        doctorID,
			ScheduleDate:    date,
			StartTime:       r.Start,
			EndTime:         r.End,
			IntervalMinutes: r.Interval,
		}
	}
	return rows
}

func RecurringDayToEntity(doctorID uuid.UUID, weekday time.Weekday, day schedule.RecurringDay) *entity.RecurringDay {
	ranges := make(entity.RecurringRangeList, len(day.Slots))
	for i, r := range day.Slots {
		ranges[i] = entity.RecurringRange{ID: r.ID, Start: r.Start, End: r.End}
	}
	return &entity.RecurringDay{
		DoctorID: doctorID,
		Weekday:  int(weekday),
		Enabled:  day.Enabled,
		Ranges:   ranges,
	}
}

func SettingsToEntity(doctorID uuid.UUID, s schedule.RecurringSettings) (*entity.RecurringSetting, error) {
	start, err := time.Parse(schedule.ISODateLayout, s.StartDate)
	if err != nil {
		return nil, schedule.ErrInvalidDate
	}
	row := &entity.RecurringSetting{
		DoctorID:            doctorID,
		AppointmentInterval: s.AppointmentInterval,
		BufferMinutes:       s.BufferMinutes,
		StartDate:           start,
		NoEndDate:           s.NoEndDate,
		Exceptions:          entity.StringList(append([]string{}, s.Exceptions...)),
	}
	if !s.NoEndDate && s.EndDate != "" {
		end, err := time.Parse(schedule.ISODateLayout, s.EndDate)
		if err != nil {
			return nil, schedule.ErrInvalidDate
		}
		row.EndDate = &end
	}
	return row, nil
}

// AvailabilityToResponse lists specific days by date and recurring days
// from Sunday to Saturday.
func AvailabilityToResponse(doctorID uuid.UUID, a schedule.Availability) *dto.AvailabilityResponse {
	resp := &dto.AvailabilityResponse{
		DoctorID:      doctorID,
		SpecificDays:  make([]dto.SpecificDayResponse, 0, len(a.Specific)),
		RecurringDays: make([]dto.RecurringDayResponse, 0, 7),
		Settings: dto.SettingsResponse{
			AppointmentInterval: a.Settings.AppointmentInterval,
			BufferMinutes:       a.Settings.BufferMinutes,
			StartDate:           a.Settings.StartDate,
			EndDate:             a.Settings.EndDate,
			NoEndDate:           a.Settings.NoEndDate,
			Exceptions:          append([]string{}, a.Settings.Exceptions...),
		},
	}

	dates := make([]string, 0, len(a.Specific))
	for iso := range a.Specific {
		dates = append(dates, iso)
	}
	sort.Strings(dates)
	for _, iso := range dates {
		day := dto.SpecificDayResponse{Date: iso, Ranges: make([]dto.SpecificRangeResponse, 0, len(a.Specific[iso]))}
		for _, r := range a.Specific[iso] {
			day.Ranges = append(day.Ranges, dto.SpecificRangeResponse{ID: r.ID, Start: r.Start, End: r.End, Interval: r.Interval})
		}
		resp.SpecificDays = append(resp.SpecificDays, day)
	}

	for d := time.Sunday; d <= time.Saturday; d++ {
		rule := a.Recurring[d]
		day := dto.RecurringDayResponse{
			Weekday: schedule.WeekdayName(d),
			Enabled: rule.Enabled,
			Ranges:  make([]dto.RecurringRangeResponse, 0, len(rule.Slots)),
		}
		for _, r := range rule.Slots {
			day.Ranges = append(day.Ranges, dto.RecurringRangeResponse{ID: r.ID, Start: r.Start, End: r.End})
		}
		resp.RecurringDays = append(resp.RecurringDays, day)
	}

	return resp
}

func PreviewToResponse(isoToday string, days []schedule.PreviewDay) *dto.WeekPreviewResponse {
	resp := &dto.WeekPreviewResponse{
		Today: isoToday,
		Days:  make([]dto.PreviewDayResponse, len(days)),
	}
	for i, d := range days {
		resp.Days[i] = dto.PreviewDayResponse{
			Date:    d.ISODate,
			Label:   d.Label,
			Weekday: d.Weekday,
			Source:  string(d.Source),
			Slots:   append([]string{}, d.Slots...),
		}
		resp.TotalSlots += len(d.Slots)
	}
	return resp
}

func PublishToResponse(result *upstream.PublishResult, days []schedule.PublishDay) *dto.PublishResponse {
	resp := &dto.PublishResponse{
		Message:    result.Message,
		DaysCount:  result.DaysCount,
		SlotsCount: result.SlotsCount,
		Days:       make([]dto.PublishedDayResponse, len(days)),
	}
	for i, d := range days {
		resp.Days[i] = dto.PublishedDayResponse{
			Date:   d.ISODate,
			Label:  d.Label,
			Source: string(d.Source),
			Slots:  append([]string{}, d.Slots...),
		}
	}
	return resp
}
