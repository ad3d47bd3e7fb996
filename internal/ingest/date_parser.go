package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Pattern families for Italian free-text dates, tried in order. All are
// unanchored: the date may sit anywhere inside surrounding prose.
var (
	dateNumericDMY = regexp.MustCompile(`(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})`)
	dateItalianDMY = regexp.MustCompile(`(?i)(\d{1,2})\s+(gennaio|febbraio|marzo|aprile|maggio|giugno|luglio|agosto|settembre|ottobre|novembre|dicembre)\s+(\d{4})`)
	dateNumericYMD = regexp.MustCompile(`(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})`)
)

var italianMonths = map[string]time.Month{
	"gennaio":   time.January,
	"febbraio":  time.February,
	"marzo":     time.March,
	"aprile":    time.April,
	"maggio":    time.May,
	"giugno":    time.June,
	"luglio":    time.July,
	"agosto":    time.August,
	"settembre": time.September,
	"ottobre":   time.October,
	"novembre":  time.November,
	"dicembre":  time.December,
}

// ParseItalianDate extracts the first recognizable date from Italian free
// text. Day-first numeric forms win over year-first ones, so "03/04/2025"
// is April 3rd. The first pattern family that matches decides: when its
// candidate fails calendar validation the whole field is rejected rather
// than trying later families. Malformed text is never an error.
func ParseItalianDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if m := dateNumericDMY.FindStringSubmatch(text); m != nil {
		return makeDate(m[3], m[2], m[1])
	}

	if m := dateItalianDMY.FindStringSubmatch(text); m != nil {
		month := italianMonths[strings.ToLower(m[2])]
		return makeDateParts(atoi(m[3]), int(month), atoi(m[1]))
	}

	if m := dateNumericYMD.FindStringSubmatch(text); m != nil {
		return makeDate(m[1], m[2], m[3])
	}

	return time.Time{}, false
}

func makeDate(year, month, day string) (time.Time, bool) {
	return makeDateParts(atoi(year), atoi(month), atoi(day))
}

// makeDateParts builds a midnight UTC date and rejects values that do not
// round-trip, catching overflows like February 30th that time.Date would
// silently normalize.
func makeDateParts(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
