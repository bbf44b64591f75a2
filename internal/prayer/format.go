package prayer

import (
	"fmt"
	"time"
)

// Menu-bar display modes.
const (
	ModeNameAndCountdown = "name-and-countdown" // "Fajr 2h 15m"
	ModeCountdown        = "countdown"          // "2h 15m"
	ModeNameAndTime      = "name-and-time"      // "Fajr 05:10"
	ModeIcon             = "icon"               // empty string, icon only
)

// DisplayModes lists the valid menu-bar display modes.
var DisplayModes = []string{ModeNameAndCountdown, ModeCountdown, ModeNameAndTime, ModeIcon}

// FormatRemaining renders the time left until target as "Xh Ym", or "Ym"
// when less than an hour remains. Truncation is floor-based: a target 59
// seconds away renders "0m". Once target is reached it returns "Now".
func FormatRemaining(target, now time.Time) string {
	if !target.After(now) {
		return "Now"
	}
	secs := int(target.Sub(now) / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// CountdownInfo returns the label and countdown string for an entry.
// Before the adhan it counts down to the adhan; between adhan and iqama it
// counts down to the iqama under an "<name> iqama" label; afterwards it
// reports "Now".
func CountdownInfo(e Entry, now time.Time) (label, remaining string) {
	switch {
	case now.Before(e.Adhan):
		return e.DisplayName, FormatRemaining(e.Adhan, now)
	case now.Before(e.Iqama):
		return e.DisplayName + " iqama", FormatRemaining(e.Iqama, now)
	default:
		return e.DisplayName, "Now"
	}
}

// MenuBarText derives the status-line text for the next entry. A nil next
// (no schedule computed yet) and the icon mode both yield an empty string.
// clockFormat is a Go time layout, "15:04" or "3:04 PM".
func MenuBarText(next *Entry, mode string, now time.Time, clockFormat string) string {
	if next == nil {
		return ""
	}

	switch mode {
	case ModeIcon:
		return ""
	case ModeCountdown:
		return FormatRemaining(next.Adhan, now)
	case ModeNameAndTime:
		return fmt.Sprintf("%s %s", next.DisplayName, next.Adhan.Format(clockFormat))
	default:
		// name-and-countdown; once the adhan hits, just the name.
		rem := FormatRemaining(next.Adhan, now)
		if rem == "Now" {
			return next.DisplayName
		}
		return fmt.Sprintf("%s %s", next.DisplayName, rem)
	}
}
