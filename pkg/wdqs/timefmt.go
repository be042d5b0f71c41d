package wdqs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Ordinal renders n as an English ordinal ("1st", "2nd", "11th", "21st").
// 11-13 take "th" regardless of their last digit.
func Ordinal(n int) string {
	suffix := "th"
	if rem := n % 100; rem < 11 || rem > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// FormatTime renders a Wikidata timestamp per its precision code:
// 9=year, 8=decade, 7=century, 6=millennium. Any other precision, and any
// timestamp that cannot be parsed, is returned verbatim.
func FormatTime(value string, precision int) string {
	year, ok := timestampYear(value)
	if !ok {
		return value
	}

	switch precision {
	case 9:
		return strconv.Itoa(year)
	case 8:
		return fmt.Sprintf("%ds", year)
	case 7:
		return fmt.Sprintf("%s century", Ordinal(year/100+1))
	case 6:
		return fmt.Sprintf("%s millennium", Ordinal(year/1000+1))
	}

	return value
}

// timestampYear extracts the year from a timestamp like
// "+1734-00-00T00:00:00Z". Zeroed month/day fields are common at low
// precision and cannot be parsed as a calendar date, so the year is taken
// lexically in that case.
func timestampYear(value string) (int, bool) {
	s := strings.TrimPrefix(value, "+")
	if s == "" {
		return 0, false
	}

	if strings.Contains(s, "-00") {
		idx := strings.Index(s[1:], "-")
		if idx < 0 {
			return 0, false
		}
		year, err := strconv.Atoi(s[:idx+1])
		if err != nil {
			return 0, false
		}
		return year, true
	}

	t, err := time.Parse("2006-01-02T15:04:05Z", s)
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}
