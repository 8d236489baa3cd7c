package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeLocation keeps the display form of a location so that "Soses" and
// " Soses " name the same court.
func NormalizeLocation(location string) string {
	return TrimAndNormalize(location)
}

func NormalizeTitle(title string) string {
	return TrimAndNormalize(title)
}

// NormalizeTimeOfDay zero-pads the hour of an H:MM value. Anything else is
// returned trimmed.
func NormalizeTimeOfDay(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 4 && s[1] == ':' && s[0] >= '0' && s[0] <= '9' {
		return "0" + s
	}
	return s
}

// NormalizeTimezone trims the IANA name; "utc" and "" become "UTC" and the
// fallback respectively.
func NormalizeTimezone(tz, fallback string) string {
	tz = strings.TrimSpace(tz)
	switch {
	case tz == "":
		return fallback
	case strings.EqualFold(tz, "utc"):
		return "UTC"
	}
	return tz
}
