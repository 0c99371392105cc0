package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"passmais-agenda/internal/delivery/dto"
	"passmais-agenda/internal/domain/entity"
	"passmais-agenda/internal/infrastructure/cache"
	"passmais-agenda/internal/infrastructure/upstream"
	"passmais-agenda/internal/schedule"
	"passmais-agenda/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Monday 2026-10-19 15:42 UTC.
var testNow = time.Date(2026, 10, 19, 15, 42, 0, 0, time.UTC)

type fakeAvailabilityRepo struct {
	specific  map[string][]entity.SpecificDayRange
	recurring map[int]entity.RecurringDay
	settings  *entity.RecurringSetting
	saveErr   error
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{
		specific:  map[string][]entity.SpecificDayRange{},
		recurring: map[int]entity.RecurringDay{},
	}
}

func (r *fakeAvailabilityRepo) FindSpecificByDoctor(db *gorm.DB, doctorID uuid.UUID) ([]entity.SpecificDayRange, error) {
	dates := make([]string, 0, len(r.specific))
	for d := range r.specific {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	var out []entity.SpecificDayRange
	for _, d := range dates {
		out = append(out, r.specific[d]...)
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) ReplaceSpecificDay(db *gorm.DB, doctorID uuid.UUID, date time.Time, ranges []entity.SpecificDayRange) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	iso := date.Format(schedule.ISODateLayout)
	if len(ranges) == 0 {
		delete(r.specific, iso)
		return nil
	}
	r.specific[iso] = ranges
	return nil
}

func (r *fakeAvailabilityRepo) DeleteSpecificDay(db *gorm.DB, doctorID uuid.UUID, date time.Time) (int64, error) {
	iso := date.Format(schedule.ISODateLayout)
	n := len(r.specific[iso])
	delete(r.specific, iso)
	return int64(n), nil
}

func (r *fakeAvailabilityRepo) FindRecurringByDoctor(db *gorm.DB, doctorID uuid.UUID) ([]entity.RecurringDay, error) {
	var out []entity.RecurringDay
	for d := 0; d < 7; d++ {
		if day, ok := r.recurring[d]; ok {
			out = append(out, day)
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) UpsertRecurringDay(db *gorm.DB, day *entity.RecurringDay) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.recurring[day.Weekday] = *day
	return nil
}

func (r *fakeAvailabilityRepo) FindSettings(db *gorm.DB, doctorID uuid.UUID) (*entity.RecurringSetting, error) {
	return r.settings, nil
}

func (r *fakeAvailabilityRepo) UpsertSettings(db *gorm.DB, settings *entity.RecurringSetting) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.settings = settings
	return nil
}

type fakeAuditRepo struct {
	logs []entity.AuditLog
}

func (r *fakeAuditRepo) Create(db *gorm.DB, log *entity.AuditLog) error {
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepo) FindByUser(db *gorm.DB, userID uuid.UUID, limit int) ([]entity.AuditLog, error) {
	return r.logs, nil
}

func (r *fakeAuditRepo) actions() []string {
	out := make([]string, len(r.logs))
	for i, l := range r.logs {
		out[i] = l.Action
	}
	return out
}

type fakeScheduleGateway struct {
	doctorID string
	days     []schedule.PublishDay
	err      error
}

func (g *fakeScheduleGateway) PublishDoctorSchedule(ctx context.Context, sess *upstream.Session, doctorID string, days []schedule.PublishDay) (*upstream.PublishResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.doctorID = doctorID
	g.days = days
	return &upstream.PublishResult{Message: "ok", DaysCount: len(days), SlotsCount: 99}, nil
}

type availabilityFixture struct {
	uc       *availabilityUsecase
	repo     *fakeAvailabilityRepo
	audit    *fakeAuditRepo
	gateway  *fakeScheduleGateway
	mock     sqlmock.Sqlmock
	redis    *miniredis.Miniredis
	doctorID uuid.UUID
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return db, mock
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newAvailabilityFixture(t *testing.T) *availabilityFixture {
	t.Helper()
	db, mock := newTestDB(t)
	mr, client := newTestRedis(t)
	log := newTestLogger()

	repo := newFakeAvailabilityRepo()
	audit := &fakeAuditRepo{}
	gateway := &fakeScheduleGateway{}

	uc := NewAvailabilityUsecase(db, log, repo, service.NewAuditService(log, audit),
		cache.NewPreviewCache(client, time.Hour), gateway, time.UTC).(*availabilityUsecase)
	uc.now = func() time.Time { return testNow }

	return &availabilityFixture{uc: uc, repo: repo, audit: audit, gateway: gateway, mock: mock, redis: mr, doctorID: uuid.New()}
}

// expectTx expects one committed transaction carrying an audit insert.
func (f *availabilityFixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectExec("SAVEPOINT audit_log").WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectCommit()
}

func previewDay(t *testing.T, p *dto.WeekPreviewResponse, iso string) dto.PreviewDayResponse {
	t.Helper()
	for _, d := range p.Days {
		if d.Date == iso {
			return d
		}
	}
	t.Fatalf("day %s not in preview", iso)
	return dto.PreviewDayResponse{}
}

func TestAvailability_GetAvailabilityDefaults(t *testing.T) {
	f := newAvailabilityFixture(t)

	got, err := f.uc.GetAvailability(context.Background(), f.doctorID)
	require.NoError(t, err)
	assert.Equal(t, f.doctorID, got.DoctorID)
	assert.Empty(t, got.SpecificDays)
	require.Len(t, got.RecurringDays, 7)
	assert.Equal(t, "sunday", got.RecurringDays[0].Weekday)
	assert.False(t, got.RecurringDays[0].Enabled)
	assert.True(t, got.RecurringDays[1].Enabled)
	assert.Equal(t, 30, got.Settings.AppointmentInterval)
	assert.Equal(t, "2026-10-19", got.Settings.StartDate)
	assert.True(t, got.Settings.NoEndDate)
}

func TestAvailability_SaveSpecificDayRejectsInvalidSlots(t *testing.T) {
	f := newAvailabilityFixture(t)

	_, err := f.uc.SaveSpecificDay(context.Background(), f.doctorID, "2026-10-21", &dto.SaveSpecificDayRequest{
		Ranges: []dto.SpecificRangeRequest{
			{Start: "08:00", End: "10:00"},
			{Start: "09:30", End: "11:00"},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSlots))

	var slotErr *SlotValidationError
	require.True(t, errors.As(err, &slotErr))
	assert.Equal(t, []string{schedule.IssueOverlap}, slotErr.Issues)
	assert.Empty(t, f.repo.specific)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAvailability_SaveSpecificDayRejectsPastAndMalformedDates(t *testing.T) {
	f := newAvailabilityFixture(t)
	req := &dto.SaveSpecificDayRequest{Ranges: []dto.SpecificRangeRequest{{Start: "08:00", End: "09:00"}}}

	_, err := f.uc.SaveSpecificDay(context.Background(), f.doctorID, "2026-10-18", req)
	assert.ErrorIs(t, err, ErrSchedulePast)

	_, err = f.uc.SaveSpecificDay(context.Background(), f.doctorID, "21/10/2026", req)
	assert.ErrorIs(t, err, ErrInvalidScheduleDate)
}

func TestAvailability_SaveSpecificDayPersistsAndInvalidatesPreview(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()

	before, err := f.uc.GetWeekPreview(ctx, f.doctorID)
	require.NoError(t, err)
	assert.Equal(t, "RECURRING", previewDay(t, before, "2026-10-21").Source)
	assert.True(t, f.redis.Exists("schedule:preview:"+f.doctorID.String()))

	f.expectTx()
	got, err := f.uc.SaveSpecificDay(ctx, f.doctorID, "2026-10-21", &dto.SaveSpecificDayRequest{
		Ranges: []dto.SpecificRangeRequest{
			{ID: "client-side-id", Start: "9:00", End: "10:00", Interval: 20},
		},
	})
	require.NoError(t, err)
	require.Len(t, got.SpecificDays, 1)
	assert.Equal(t, "2026-10-21", got.SpecificDays[0].Date)
	require.Len(t, got.SpecificDays[0].Ranges, 1)
	assert.Equal(t, "09:00", got.SpecificDays[0].Ranges[0].Start)
	_, err = uuid.Parse(got.SpecificDays[0].Ranges[0].ID)
	assert.NoError(t, err)

	assert.False(t, f.redis.Exists("schedule:preview:"+f.doctorID.String()))
	assert.Equal(t, []string{entity.AuditActionSpecificDaySave}, f.audit.actions())

	after, err := f.uc.GetWeekPreview(ctx, f.doctorID)
	require.NoError(t, err)
	day := previewDay(t, after, "2026-10-21")
	assert.Equal(t, "SPECIFIC", day.Source)
	assert.Equal(t, []string{"09:00", "09:20", "09:40"}, day.Slots)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAvailability_ClearSpecificDay(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()

	f.expectTx()
	_, err := f.uc.SaveSpecificDay(ctx, f.doctorID, "2026-10-21", &dto.SaveSpecificDayRequest{
		Ranges: []dto.SpecificRangeRequest{{Start: "09:00", End: "10:00"}},
	})
	require.NoError(t, err)

	f.expectTx()
	require.NoError(t, f.uc.ClearSpecificDay(ctx, f.doctorID, "2026-10-21"))
	assert.Empty(t, f.repo.specific)
	assert.Equal(t, []string{entity.AuditActionSpecificDaySave, entity.AuditActionSpecificDayClear}, f.audit.actions())

	assert.ErrorIs(t, f.uc.ClearSpecificDay(ctx, f.doctorID, "nope"), ErrInvalidScheduleDate)
}

func TestAvailability_SaveRecurringDay(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()

	_, err := f.uc.SaveRecurringDay(ctx, f.doctorID, "funday", &dto.SaveRecurringDayRequest{})
	assert.ErrorIs(t, err, ErrInvalidWeekday)

	_, err = f.uc.SaveRecurringDay(ctx, f.doctorID, "monday", &dto.SaveRecurringDayRequest{
		Enabled: true,
		Ranges:  []dto.RecurringRangeRequest{{Start: "10:00", End: "09:00"}},
	})
	assert.ErrorIs(t, err, ErrInvalidSlots)

	f.expectTx()
	got, err := f.uc.SaveRecurringDay(ctx, f.doctorID, "monday", &dto.SaveRecurringDayRequest{
		Enabled: true,
		Ranges: []dto.RecurringRangeRequest{
			{ID: "m1", Start: "08:00", End: "12:00"},
			{Start: "14:00", End: "18:00"},
		},
	})
	require.NoError(t, err)
	monday := got.RecurringDays[1]
	assert.Equal(t, "monday", monday.Weekday)
	require.Len(t, monday.Ranges, 2)
	assert.Equal(t, "m1", monday.Ranges[0].ID)
	assert.NotEmpty(t, monday.Ranges[1].ID)

	stored := f.repo.recurring[int(time.Monday)]
	assert.True(t, stored.Enabled)
	assert.Len(t, stored.Ranges, 2)
}

func TestAvailability_ToggleRecurringDay(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()

	f.expectTx()
	got, err := f.uc.ToggleRecurringDay(ctx, f.doctorID, "Saturday")
	require.NoError(t, err)
	assert.False(t, got.RecurringDays[6].Enabled)
	assert.Equal(t, "08:00", got.RecurringDays[6].Ranges[0].Start)

	preview, err := f.uc.GetWeekPreview(ctx, f.doctorID)
	require.NoError(t, err)
	saturday := previewDay(t, preview, "2026-10-24")
	assert.Equal(t, "NONE", saturday.Source)
	assert.Empty(t, saturday.Slots)
	assert.Equal(t, []string{entity.AuditActionRecurringToggle}, f.audit.actions())
}

func TestAvailability_SaveRecurringSettings(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()

	_, err := f.uc.SaveRecurringSettings(ctx, f.doctorID, &dto.SaveSettingsRequest{AppointmentInterval: 3, StartDate: "2026-10-19"})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = f.uc.SaveRecurringSettings(ctx, f.doctorID, &dto.SaveSettingsRequest{AppointmentInterval: 30, BufferMinutes: 121, StartDate: "2026-10-19"})
	assert.ErrorIs(t, err, ErrInvalidBuffer)

	_, err = f.uc.SaveRecurringSettings(ctx, f.doctorID, &dto.SaveSettingsRequest{AppointmentInterval: 30, StartDate: "2026-10-19", EndDate: "2026-10-01"})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	f.expectTx()
	got, err := f.uc.SaveRecurringSettings(ctx, f.doctorID, &dto.SaveSettingsRequest{
		AppointmentInterval: 60,
		BufferMinutes:       15,
		StartDate:           "2026-10-19",
		EndDate:             "2026-12-31",
		Exceptions:          []string{"2026-10-22", "2026-10-20", "2026-10-22"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-10-20", "2026-10-22"}, got.Settings.Exceptions)
	assert.Equal(t, "2026-12-31", got.Settings.EndDate)

	preview, err := f.uc.GetWeekPreview(ctx, f.doctorID)
	require.NoError(t, err)
	assert.Equal(t, "NONE", previewDay(t, preview, "2026-10-20").Source)
	assert.Equal(t, []string{"08:00", "09:15", "10:30", "11:45", "13:00", "14:15", "15:30"},
		previewDay(t, preview, "2026-10-19").Slots)
}

func TestAvailability_ValidateRanges(t *testing.T) {
	f := newAvailabilityFixture(t)

	ok := f.uc.ValidateRanges(&dto.ValidateRangesRequest{
		Ranges: []dto.TimeRangeRequest{{Start: "08:00", End: "09:00"}},
	})
	assert.True(t, ok.Valid)
	assert.Empty(t, ok.Issues)
	assert.Equal(t, []string{"08:00", "08:30"}, ok.Slots)

	bad := f.uc.ValidateRanges(&dto.ValidateRangesRequest{
		Ranges: []dto.TimeRangeRequest{{Start: "", End: "09:00"}},
	})
	assert.False(t, bad.Valid)
	assert.Equal(t, []string{schedule.IssueMissingBounds}, bad.Issues)
	assert.Empty(t, bad.Slots)
}

func TestAvailability_RemovePreviewSlotFromRecurring(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()

	f.expectTx()
	got, err := f.uc.RemovePreviewSlot(ctx, f.doctorID, "2026-10-19", "12:00")
	require.NoError(t, err)
	assert.Equal(t, "RECURRING", got.Source)
	assert.True(t, got.Changed)
	assert.Empty(t, got.Issues)

	stored := f.repo.recurring[int(time.Monday)]
	require.Len(t, stored.Ranges, 2)
	assert.Equal(t, "08:00", stored.Ranges[0].Start)
	assert.Equal(t, "12:00", stored.Ranges[0].End)
	assert.Equal(t, "12:30", stored.Ranges[1].Start)
	assert.Equal(t, "17:00", stored.Ranges[1].End)

	monday := previewDay(t, got.Preview, "2026-10-19")
	assert.NotContains(t, monday.Slots, "12:00")
	assert.Contains(t, monday.Slots, "11:30")
	assert.Len(t, monday.Slots, 17)
	assert.Equal(t, []string{entity.AuditActionPreviewSlotRemove}, f.audit.actions())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAvailability_RemovePreviewSlotNoop(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	got, err := f.uc.RemovePreviewSlot(ctx, f.doctorID, "2026-10-19", "12:15")
	require.NoError(t, err)
	assert.False(t, got.Changed)
	assert.Empty(t, f.repo.recurring)
	assert.Empty(t, f.audit.logs)

	_, err = f.uc.RemovePreviewSlot(ctx, f.doctorID, "2026-10-19", "noon")
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
	_, err = f.uc.RemovePreviewSlot(ctx, f.doctorID, "2026-10-01", "08:00")
	assert.ErrorIs(t, err, ErrSchedulePast)
}

func TestAvailability_PublishSchedule(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()
	sess := upstream.NewSession(upstream.NewMemoryTokenStore(), f.doctorID.String())

	f.expectTx()
	got, err := f.uc.PublishSchedule(ctx, f.doctorID, sess)
	require.NoError(t, err)

	assert.Equal(t, f.doctorID.String(), f.gateway.doctorID)
	require.Len(t, f.gateway.days, 7)
	assert.Equal(t, "2026-10-19", f.gateway.days[0].ISODate)
	assert.Equal(t, schedule.SourceNone, f.gateway.days[6].Source)
	assert.Equal(t, 7, got.DaysCount)
	assert.Equal(t, 99, got.SlotsCount)
	assert.Len(t, got.Days, 7)
	assert.Equal(t, []string{entity.AuditActionSchedulePublish}, f.audit.actions())
}

func TestAvailability_PublishScheduleSurfacesUpstreamError(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.gateway.err = &upstream.APIError{Status: 403, Message: "forbidden"}
	sess := upstream.NewSession(upstream.NewMemoryTokenStore(), f.doctorID.String())

	_, err := f.uc.PublishSchedule(context.Background(), f.doctorID, sess)
	assert.Equal(t, 403, upstream.StatusOf(err))
	assert.Empty(t, f.audit.logs)
}
