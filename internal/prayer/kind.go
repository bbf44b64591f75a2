// Package prayer implements the daily prayer schedule: the closed set of
// prayer kinds, the schedule builder with iqama offsets and day rollover,
// and the countdown/menu-bar formatting.
package prayer

import "time"

// Kind identifies one of the six canonical daily prayer events.
// Sunrise is computed but not displayed as a prayer.
type Kind int

const (
	Fajr Kind = iota
	Sunrise
	Dhuhr
	Asr
	Maghrib
	Isha
)

// CanonicalOrder lists every kind in chronological order. When two events
// share the same instant, the earlier kind in this order wins.
var CanonicalOrder = []Kind{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// DisplayOrder lists the five kinds shown to the user, in order.
var DisplayOrder = []Kind{Fajr, Dhuhr, Asr, Maghrib, Isha}

var kindNames = map[Kind]string{
	Fajr:    "Fajr",
	Sunrise: "Sunrise",
	Dhuhr:   "Dhuhr",
	Asr:     "Asr",
	Maghrib: "Maghrib",
	Isha:    "Isha",
}

// JumuahName replaces the Dhuhr label on Fridays.
const JumuahName = "Jumuah"

// String returns the canonical prayer name, e.g. "Fajr".
func (k Kind) String() string {
	return kindNames[k]
}

// KindFromName resolves a canonical prayer name back to its Kind.
func KindFromName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// DisplayName returns the user-facing name of the kind on the given weekday.
// On Fridays the Dhuhr entry is labelled Jumuah; the entry ID stays "Dhuhr"
// so offset and trigger lookups are unaffected.
func (k Kind) DisplayName(weekday time.Weekday) string {
	if k == Dhuhr && weekday == time.Friday {
		return JumuahName
	}
	return kindNames[k]
}
