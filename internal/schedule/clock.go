package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ISODateLayout is the layout used for every date key (YYYY-MM-DD).
const ISODateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

var ErrInvalidClock = errors.New("invalid clock value, use HH:MM")

// ParseClock converts "HH:MM" (or "H:MM") into minutes since midnight.
// "24:00" is accepted so a range may close at the end of the day.
func ParseClock(value string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || hh == "" || len(mm) != 2 || len(hh) > 2 || !allDigits(hh) || !allDigits(mm) {
		return 0, ErrInvalidClock
	}

	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, ErrInvalidClock
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, ErrInvalidClock
	}
	if hours < 0 || minutes < 0 || minutes > 59 {
		return 0, ErrInvalidClock
	}

	total := hours*60 + minutes
	if total > minutesPerDay {
		return 0, ErrInvalidClock
	}
	return total, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatClock renders minutes since midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeClock zero-pads a clock value. Unparseable input is returned trimmed.
func NormalizeClock(value string) string {
	minutes, err := ParseClock(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return FormatClock(minutes)
}
