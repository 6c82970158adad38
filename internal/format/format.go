// Package format renders quantities and times for people.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var suffixes = []struct {
	scale  float64
	suffix string
}{
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Number abbreviates v: values of 1000 and up get a K, M or B suffix with
// two decimals; smaller values are floored to an integer. A value that rounds
// up to 1000 of one suffix moves to the next.
//
//	Number(999.9)   // "999"
//	Number(1234)    // "1.23K"
//	Number(999999)  // "1.00M"
//	Number(2.5e9)   // "2.50B"
func Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	for i, s := range suffixes {
		if v < s.scale {
			continue
		}
		text := strconv.FormatFloat(v/s.scale, 'f', 2, 64)
		if text == "1000.00" && i > 0 {
			up := suffixes[i-1]
			return strconv.FormatFloat(v/up.scale, 'f', 2, 64) + up.suffix
		}
		return text + s.suffix
	}
	return strconv.FormatFloat(math.Floor(v), 'f', 0, 64)
}

// Rate renders a per-second rate. Rates below 1000 keep two decimals, since
// most producers yield fractions.
func Rate(v float64) string {
	if v >= 1e3 {
		return Number(v) + "/s"
	}
	return strconv.FormatFloat(v, 'f', 2, 64) + "/s"
}

var printer = message.NewPrinter(language.English)

// Grouped renders the integer part of v with thousands separators.
func Grouped(v float64) string {
	return printer.Sprintf("%d", int64(math.Floor(v)))
}

// Duration renders d as hours, minutes and seconds, flooring each unit.
// Leading zero units are omitted; negative durations render as "0s".
//
//	Duration(3723 * time.Second) // "1h 2m 3s"
//	Duration(59999 * time.Millisecond) // "59s"
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Seconds renders a float number of seconds with Duration.
func Seconds(secs float64) string {
	if math.IsNaN(secs) || secs <= 0 {
		return Duration(0)
	}
	if secs > math.MaxInt64/float64(time.Second) {
		return Duration(math.MaxInt64)
	}
	return Duration(time.Duration(secs * float64(time.Second)))
}

// Timestamp renders t in UTC as "YYYY-MM-DD HH:MM:SS". The zero time
// renders as "never".
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.DateTime)
}
