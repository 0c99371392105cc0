package schedule

import (
	"sort"
	"strings"
)

// Validation messages shown next to the schedule editor.
const (
	IssueMissingBounds = "Preencha o horário de início e de término de todos os intervalos."
	IssueInvalidClock  = "Use o formato HH:MM para os horários."
	IssueStartAfterEnd = "O horário de início deve ser anterior ao horário de término."
	IssueOverlap       = "Existem intervalos sobrepostos. Ajuste os horários para evitar conflitos."
)

// TimeRange is a contiguous window subdivided into bookable slots.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SplitResult is the outcome of removing one generated time from a range.
type SplitResult struct {
	Ranges  []TimeRange `json:"ranges"`
	Changed bool        `json:"changed"`
}

// GenerateSlotsPreview walks every range (ordered by start) from its start in
// steps of interval+buffer and emits each start time that still leaves room for
// a full interval before the range end. Partial trailing windows are dropped.
func GenerateSlotsPreview(ranges []TimeRange, interval, buffer int) []string {
	slots := make([]string, 0)
	if interval <= 0 {
		return slots
	}
	if buffer < 0 {
		buffer = 0
	}
	step := interval + buffer

	for _, r := range sortRanges(ranges) {
		start, err := ParseClock(r.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(r.End)
		if err != nil {
			continue
		}
		for cursor := start; cursor+interval <= end; cursor += step {
			slots = append(slots, FormatClock(cursor))
		}
	}
	return slots
}

// SplitSlotByTime removes timeToRemove from the slots generated for r and
// regroups what is left into maximal contiguous runs, each becoming its own
// range ending one interval after its last slot.
func SplitSlotByTime(r TimeRange, timeToRemove string, interval, buffer int) SplitResult {
	if buffer < 0 {
		buffer = 0
	}
	target := NormalizeClock(timeToRemove)
	times := GenerateSlotsPreview([]TimeRange{r}, interval, buffer)

	remaining := make([]int, 0, len(times))
	found := false
	for _, t := range times {
		if t == target {
			found = true
			continue
		}
		minutes, _ := ParseClock(t)
		remaining = append(remaining, minutes)
	}
	if !found {
		return SplitResult{Ranges: []TimeRange{r}, Changed: false}
	}

	step := interval + buffer
	ranges := make([]TimeRange, 0, 2)
	for i := 0; i < len(remaining); {
		j := i
		for j+1 < len(remaining) && remaining[j+1]-remaining[j] == step {
			j++
		}
		ranges = append(ranges, TimeRange{
			Start: FormatClock(remaining[i]),
			End:   FormatClock(remaining[j] + interval),
		})
		i = j + 1
	}
	return SplitResult{Ranges: ranges, Changed: true}
}

// ValidateSlots reports every distinct problem found in one day's ranges.
// An empty result means the ranges are complete, well-formed, ordered and
// non-overlapping. Back-to-back ranges are valid.
func ValidateSlots(ranges []TimeRange) []string {
	issues := make([]string, 0)
	seen := make(map[string]bool)
	report := func(msg string) {
		if !seen[msg] {
			seen[msg] = true
			issues = append(issues, msg)
		}
	}

	prevEnd := 0
	hasPrev := false
	for _, r := range sortRanges(ranges) {
		if strings.TrimSpace(r.Start) == "" || strings.TrimSpace(r.End) == "" {
			report(IssueMissingBounds)
			continue
		}
		start, errStart := ParseClock(r.Start)
		end, errEnd := ParseClock(r.End)
		if errStart != nil || errEnd != nil {
			report(IssueInvalidClock)
			continue
		}
		if start >= end {
			report(IssueStartAfterEnd)
			continue
		}
		if hasPrev && start < prevEnd {
			report(IssueOverlap)
			break
		}
		prevEnd = end
		hasPrev = true
	}
	return issues
}

// sortRanges returns a copy ordered by zero-padded start time.
func sortRanges(ranges []TimeRange) []TimeRange {
	sorted := make([]TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return NormalizeClock(sorted[i].Start) < NormalizeClock(sorted[j].Start)
	})
	return sorted
}
