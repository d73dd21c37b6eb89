package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var clockLayouts = []string{"15:04", "15:04:05"}

// ParseClock parses a same-day wall-clock time such as "09:15".
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, errors.Errorf("invalid clock time %q", s)
}

// DeriveDuration formats end minus start as "{h}h {m}m", or "{m}m" under an
// hour. An end before the start is clamped to zero.
func DeriveDuration(start, end string) (string, error) {
	from, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	to, err := ParseClock(end)
	if err != nil {
		return "", err
	}
	return FormatDuration(to - from), nil
}

func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
