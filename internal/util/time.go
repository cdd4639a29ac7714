package util

import (
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// ParseClockTime parses a time of day in "HH:MM" format and returns it
// as minute of day in [0..1439].
func ParseClockTime(value string) (int, error) {
	hh, mm, found := strings.Cut(value, ":")
	if !found {
		return -1, fmt.Errorf("invalid time of day '%s', expected HH:MM", value)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return -1, fmt.Errorf("invalid time of day '%s', hours must be in [00..23]", value)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return -1, fmt.Errorf("invalid time of day '%s', minutes must be in [00..59]", value)
	}
	return hours*60 + minutes, nil
}

// FormatClockTime formats a minute of day as "HH:MM", wrapping around
// midnight for values outside [0..1439].
func FormatClockTime(minuteOfDay int) string {
	minuteOfDay = ((minuteOfDay % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}
