package notifications

import (
	"fmt"
	"time"
)

// IsQuietTime reports whether the local time falls inside the quiet window.
// A window whose start is later than its end wraps midnight: 22:00-07:00
// means quiet from 22:00 until 07:00 the next morning. Start is inclusive,
// end exclusive. Malformed windows are treated as "never quiet" rather than
// silencing a user by accident.
func IsQuietTime(quietStart, quietEnd string, local time.Time) bool {
	start, err := parseClock(quietStart)
	if err != nil {
		return false
	}
	end, err := parseClock(quietEnd)
	if err != nil {
		return false
	}
	if start == end {
		return false
	}

	now := local.Hour()*60 + local.Minute()
	if start > end {
		return now >= start || now < end
	}
	return now >= start && now < end
}

// validTimezone reports whether the name loads as an IANA location.
func validTimezone(name string) bool {
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// parseClock converts "HH:MM" to minutes past midnight.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}
