package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PreviewDays is the size of the rolling preview window.
const PreviewDays = 7

const (
	DefaultAppointmentInterval = 30
	DefaultBufferMinutes       = 0
)

var (
	ErrInvalidDate    = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidWeekday = errors.New("invalid weekday")
)

// Source tells which rule produced a day's slots.
type Source string

const (
	SourceSpecific  Source = "SPECIFIC"
	SourceRecurring Source = "RECURRING"
	SourceNone      Source = "NONE"
)

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

var weekdayLabels = [...]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// WeekdayName returns the lowercase English key used in payloads and URLs.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// ParseWeekday accepts the names produced by WeekdayName.
func ParseWeekday(name string) (time.Weekday, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d, n := range weekdayNames {
		if n == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
}

// SpecificRange is one range pinned to a calendar date. Each range carries
// its own interval.
type SpecificRange struct {
	ID       string `json:"id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Interval int    `json:"interval"`
}

func (r SpecificRange) TimeRange() TimeRange {
	return TimeRange{Start: r.Start, End: r.End}
}

// SpecificDaySchedules maps an ISO date to the ranges configured for it.
type SpecificDaySchedules map[string][]SpecificRange

type RecurringRange struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r RecurringRange) TimeRange() TimeRange {
	return TimeRange{Start: r.Start, End: r.End}
}

type RecurringDay struct {
	Enabled bool             `json:"enabled"`
	Slots   []RecurringRange `json:"slots"`
}

// TimeRanges strips ids from the day's ranges.
func (d RecurringDay) TimeRanges() []TimeRange {
	ranges := make([]TimeRange, len(d.Slots))
	for i, s := range d.Slots {
		ranges[i] = s.TimeRange()
	}
	return ranges
}

// RecurringWeek holds the weekday rules. It is encoded keyed by weekday name.
type RecurringWeek map[time.Weekday]RecurringDay

func (w RecurringWeek) MarshalJSON() ([]byte, error) {
	named := make(map[string]RecurringDay, len(w))
	for d, day := range w {
		named[WeekdayName(d)] = day
	}
	return json.Marshal(named)
}

func (w *RecurringWeek) UnmarshalJSON(data []byte) error {
	var named map[string]RecurringDay
	if err := json.Unmarshal(data, &named); err != nil {
		return err
	}
	week := make(RecurringWeek, len(named))
	for name, day := range named {
		d, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		week[d] = day
	}
	*w = week
	return nil
}

// DefaultRangeID is the stable id of a seeded weekday range, so an unsaved
// default week reads the same on every load.
func DefaultRangeID(d time.Weekday) string {
	return "default-" + WeekdayName(d)
}

// DefaultRecurringWeek seeds Monday to Friday 08:00-17:00, Saturday
// 08:00-12:00 and leaves Sunday disabled.
func DefaultRecurringWeek() RecurringWeek {
	week := make(RecurringWeek, 7)
	for d := time.Monday; d <= time.Friday; d++ {
		week[d] = RecurringDay{
			Enabled: true,
			Slots:   []RecurringRange{{ID: DefaultRangeID(d), Start: "08:00", End: "17:00"}},
		}
	}
	week[time.Saturday] = RecurringDay{
		Enabled: true,
		Slots:   []RecurringRange{{ID: DefaultRangeID(time.Saturday), Start: "08:00", End: "12:00"}},
	}
	week[time.Sunday] = RecurringDay{Enabled: false, Slots: []RecurringRange{}}
	return week
}

type RecurringSettings struct {
	AppointmentInterval int      `json:"appointmentInterval"`
	BufferMinutes       int      `json:"bufferMinutes"`
	StartDate           string   `json:"startDate"`
	EndDate             string   `json:"endDate"`
	NoEndDate           bool     `json:"noEndDate"`
	Exceptions          []string `json:"exceptions"`
}

func DefaultRecurringSettings(today time.Time) RecurringSettings {
	return RecurringSettings{
		AppointmentInterval: DefaultAppointmentInterval,
		BufferMinutes:       DefaultBufferMinutes,
		StartDate:           today.Format(ISODateLayout),
		NoEndDate:           true,
		Exceptions:          []string{},
	}
}

// Covers reports whether the recurring rule applies on isoDate: inside
// [StartDate, EndDate] (EndDate ignored when NoEndDate) and not an exception.
func (s RecurringSettings) Covers(isoDate string) bool {
	if s.StartDate != "" && isoDate < s.StartDate {
		return false
	}
	if !s.NoEndDate && s.EndDate != "" && isoDate > s.EndDate {
		return false
	}
	for _, e := range s.Exceptions {
		if e == isoDate {
			return false
		}
	}
	return true
}

func (s RecurringSettings) interval() int {
	if s.AppointmentInterval <= 0 {
		return DefaultAppointmentInterval
	}
	return s.AppointmentInterval
}

// Availability is one doctor's complete configuration.
type Availability struct {
	Specific  SpecificDaySchedules `json:"specific"`
	Recurring RecurringWeek        `json:"recurring"`
	Settings  RecurringSettings    `json:"settings"`
}

// Clone returns a deep copy safe to mutate.
func (a Availability) Clone() Availability {
	out := Availability{
		Specific:  make(SpecificDaySchedules, len(a.Specific)),
		Recurring: make(RecurringWeek, len(a.Recurring)),
		Settings:  a.Settings,
	}
	for date, ranges := range a.Specific {
		out.Specific[date] = append([]SpecificRange(nil), ranges...)
	}
	for d, day := range a.Recurring {
		out.Recurring[d] = RecurringDay{Enabled: day.Enabled, Slots: append([]RecurringRange(nil), day.Slots...)}
	}
	out.Settings.Exceptions = append([]string(nil), a.Settings.Exceptions...)
	return out
}

// specificInterval is the interval a specific range is expanded with.
func (a Availability) specificInterval(r SpecificRange) int {
	if r.Interval > 0 {
		return r.Interval
	}
	return a.Settings.interval()
}

type PreviewDay struct {
	ISODate string   `json:"isoDate"`
	Label   string   `json:"label"`
	Weekday string   `json:"weekday"`
	Source  Source   `json:"source"`
	Slots   []string `json:"slots"`
}

// DayLabel renders the short pt-BR label for a day, e.g. "Seg, 19/10".
func DayLabel(d time.Time) string {
	return fmt.Sprintf("%s, %02d/%02d", weekdayLabels[d.Weekday()], d.Day(), int(d.Month()))
}

// ProjectWeek resolves the PreviewDays days starting at today.
func ProjectWeek(today time.Time, a Availability) []PreviewDay {
	day0 := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	days := make([]PreviewDay, 0, PreviewDays)
	for i := 0; i < PreviewDays; i++ {
		days = append(days, a.ProjectDay(day0.AddDate(0, 0, i)))
	}
	return days
}

// ProjectDay resolves a single date. A non-empty specific schedule always
// wins over the recurring rule for the same date.
func (a Availability) ProjectDay(d time.Time) PreviewDay {
	iso := d.Format(ISODateLayout)
	day := PreviewDay{
		ISODate: iso,
		Label:   DayLabel(d),
		Weekday: WeekdayName(d.Weekday()),
		Source:  SourceNone,
		Slots:   []string{},
	}

	if ranges := a.Specific[iso]; len(ranges) > 0 {
		day.Source = SourceSpecific
		day.Slots = a.specificSlots(ranges)
		return day
	}

	if rule, ok := a.Recurring[d.Weekday()]; ok && rule.Enabled && a.Settings.Covers(iso) {
		day.Source = SourceRecurring
		day.Slots = GenerateSlotsPreview(rule.TimeRanges(), a.Settings.interval(), a.Settings.BufferMinutes)
	}
	return day
}

func (a Availability) specificSlots(ranges []SpecificRange) []string {
	seen := make(map[string]bool)
	slots := make([]string, 0)
	for _, r := range ranges {
		for _, s := range GenerateSlotsPreview([]TimeRange{r.TimeRange()}, a.specificInterval(r), a.Settings.BufferMinutes) {
			if !seen[s] {
				seen[s] = true
				slots = append(slots, s)
			}
		}
	}
	sort.Strings(slots)
	return slots
}

// RemovalResult describes what RemovePreviewSlot touched.
type RemovalResult struct {
	Source  Source   `json:"source"`
	Changed bool     `json:"changed"`
	Issues  []string `json:"issues"`
}

// RemovePreviewSlot removes one previewed slot from whichever rule produced it
// for isoDate, splitting the owning range, and re-validates the affected day
// (specific) or weekday (recurring). Empty specific days are deleted.
func (a *Availability) RemovePreviewSlot(isoDate, slot string) (RemovalResult, error) {
	d, err := time.Parse(ISODateLayout, isoDate)
	if err != nil {
		return RemovalResult{}, ErrInvalidDate
	}

	if ranges := a.Specific[isoDate]; len(ranges) > 0 {
		updated, changed := a.splitSpecific(ranges, slot)
		result := RemovalResult{Source: SourceSpecific, Changed: changed, Issues: []string{}}
		if !changed {
			return result, nil
		}
		if len(updated) == 0 {
			delete(a.Specific, isoDate)
			return result, nil
		}
		a.Specific[isoDate] = updated
		timeRanges := make([]TimeRange, len(updated))
		for i, r := range updated {
			timeRanges[i] = r.TimeRange()
		}
		result.Issues = ValidateSlots(timeRanges)
		return result, nil
	}

	rule, ok := a.Recurring[d.Weekday()]
	if !ok || !rule.Enabled || !a.Settings.Covers(isoDate) {
		return RemovalResult{Source: SourceNone, Issues: []string{}}, nil
	}

	result := RemovalResult{Source: SourceRecurring, Issues: []string{}}
	slots := make([]RecurringRange, 0, len(rule.Slots)+1)
	for _, r := range rule.Slots {
		if result.Changed {
			slots = append(slots, r)
			continue
		}
		split := SplitSlotByTime(r.TimeRange(), slot, a.Settings.interval(), a.Settings.BufferMinutes)
		if !split.Changed {
			slots = append(slots, r)
			continue
		}
		result.Changed = true
		for i, tr := range split.Ranges {
			id := r.ID
			if i > 0 || id == "" {
				id = uuid.NewString()
			}
			slots = append(slots, RecurringRange{ID: id, Start: tr.Start, End: tr.End})
		}
	}
	if !result.Changed {
		return result, nil
	}

	rule.Slots = slots
	a.Recurring[d.Weekday()] = rule
	result.Issues = ValidateSlots(rule.TimeRanges())
	return result, nil
}

func (a Availability) splitSpecific(ranges []SpecificRange, slot string) ([]SpecificRange, bool) {
	out := make([]SpecificRange, 0, len(ranges)+1)
	changed := false
	for _, r := range ranges {
		if changed {
			out = append(out, r)
			continue
		}
		split := SplitSlotByTime(r.TimeRange(), slot, a.specificInterval(r), a.Settings.BufferMinutes)
		if !split.Changed {
			out = append(out, r)
			continue
		}
		changed = true
		for i, tr := range split.Ranges {
			id := r.ID
			if i > 0 || id == "" {
				id = uuid.NewString()
			}
			out = append(out, SpecificRange{ID: id, Start: tr.Start, End: tr.End, Interval: r.Interval})
		}
	}
	return out, changed
}

// PublishDay is one entry of the schedule published to the PassMais API.
type PublishDay struct {
	ISODate string   `json:"isoDate"`
	Label   string   `json:"label"`
	Source  Source   `json:"source"`
	Slots   []string `json:"slots"`
}

// ToPublishDays keeps the days that carry slots or are explicitly NONE.
func ToPublishDays(preview []PreviewDay) []PublishDay {
	days := make([]PublishDay, 0, len(preview))
	for _, p := range preview {
		if len(p.Slots) == 0 && p.Source != SourceNone {
			continue
		}
		days = append(days, PublishDay{
			ISODate: p.ISODate,
			Label:   p.Label,
			Source:  p.Source,
			Slots:   append([]string{}, p.Slots...),
		})
	}
	return days
}
