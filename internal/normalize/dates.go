package normalize

import (
	"regexp"
	"strings"
	"time"
)

var cnDateRe = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日$`)

var dateLayouts = []string{"2006-1-2", "2006/1/2", "2006.1.2"}

// ParseDate accepts Y-M-D, Y/M/D, Y.M.D and Y年M月D日.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if m := cnDateRe.FindStringSubmatch(s); m != nil {
		s = m[1] + "-" + m[2] + "-" + m[3]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t as YYYY/MM/DD.
func FormatDate(t time.Time) string {
	return t.Format("2006/01/02")
}

// NormalizeDate rewrites a parseable date as YYYY/MM/DD and trims anything
// else.
func NormalizeDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return FormatDate(t)
	}
	return strings.TrimSpace(s)
}

// ToWorkday moves a weekend date back to the preceding Friday.
func ToWorkday(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// SubtractMonths goes back n calendar months, clamping the day to the end
// of the target month.
func SubtractMonths(t time.Time, n int) time.Time {
	year, month := t.Year(), int(t.Month())-n
	for month <= 0 {
		year--
		month += 12
	}
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, t.Location()).Day()
	day := min(t.Day(), lastDay)
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, t.Location())
}

// AssessDates derives the default completion and development dates from
// today: completion is completionDaysAgo earlier, development is
// devMonthsAgo months before completion, both moved onto workdays.
func AssessDates(today time.Time, completionDaysAgo, devMonthsAgo int) (completion, dev time.Time) {
	completion = ToWorkday(today.AddDate(0, 0, -completionDaysAgo))
	dev = ToWorkday(SubtractMonths(completion, devMonthsAgo))
	return completion, dev
}
