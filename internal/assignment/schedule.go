package assignment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"frost_dispatch/internal/models"
)

// slotLabelStart matches the start of labels such as "De 8:00 a 12:00".
var slotLabelStart = regexp.MustCompile(`(?i)\bde\s+(\d{1,2}):(\d{2})`)

// ScheduledDate combines a YYYY-MM-DD date with the start of a time-slot.
// The slot's StartTime wins; the "De H:MM" label is the fallback for slots
// that do not carry one, and midnight UTC is used when neither parses.
func ScheduledDate(date string, tz models.TimeZone) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	h, m, ok := parseClock(tz.StartTime)
	if !ok {
		h, m, ok = parseSlotLabel(tz.Name)
	}
	if !ok {
		return day, nil
	}
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

func parseClock(v string) (int, int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, 0, false
	}
	parts := strings.Split(v, ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	return clock(parts[0], parts[1])
}

func parseSlotLabel(label string) (int, int, bool) {
	m := slotLabelStart.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, false
	}
	return clock(m[1], m[2])
}

func clock(hs, ms string) (int, int, bool) {
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(ms))
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
