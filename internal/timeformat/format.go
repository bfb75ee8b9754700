// Package timeformat renders message timestamps in the display format
// stored alongside each message, e.g. "JUL 30 AT 1:05 P.M." — except that
// minutes are intentionally not zero-padded, so 13:05 renders as "1:5 P.M.".
// Existing stored messages use the unpadded form; changing it would make
// old and new messages format differently.
package timeformat

import (
	"strconv"
	"time"
)

var months = [12]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// Format renders t as "<MON> <DAY> AT <HOUR>:<MINUTE> <A.M.|P.M.>".
// Day and minute are unpadded integers.
func Format(t time.Time) string {
	hour, ampm := hour12(t.Hour())
	return months[int(t.Month())-1] + " " + strconv.Itoa(t.Day()) +
		" AT " + strconv.Itoa(hour) + ":" + strconv.Itoa(t.Minute()) + " " + ampm
}

// hour12 converts a 24-hour value to its 12-hour display pair.
func hour12(hour int) (int, string) {
	switch {
	case hour > 12:
		return hour - 12, "P.M."
	case hour == 12:
		return 12, "P.M."
	case hour == 0:
		return 12, "A.M."
	default:
		return hour, "A.M."
	}
}