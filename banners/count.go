package banners

import (
	"strconv"
	"strings"
)

// ResolveCount returns how many impressions a request for requested banners consumes.
//
// requested may be empty (use the banner's default count), an integer, or a percentage of the
// remaining impressions such as "10%". Percentages round up. The result never exceeds the
// remaining impressions and is never negative.
func ResolveCount(cfg Config, requested string) int {
	remains := cfg.Views.Remains
	if remains <= 0 {
		return 0
	}

	var count int
	switch {
	case requested == "" || requested == "0":
		count = cfg.DefaultCount
	case strings.Contains(requested, "%"):
		count = percentOf(remains, leadingInt(requested))
	default:
		count = leadingInt(requested)
	}

	if count > remains {
		count = remains
	}
	if count < 0 {
		count = 0
	}
	return count
}

// percentOf computes ceil(remains * percent / 100). remains is split at a multiple of 100 so
// the products stay in range for any remains.
func percentOf(remains, percent int) int {
	if percent >= 100 {
		return remains
	}
	if percent <= 0 {
		return 0
	}
	return remains/100*percent + (remains%100*percent+99)/100
}

// leadingInt skips leading whitespace, then parses the optional sign and the digits that
// follow, ignoring the rest. A string with no leading digits is 0, and values past the int
// range saturate.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}

	// On ErrRange Atoi returns the saturated value, which is what we want.
	n, _ := strconv.Atoi(s[:end])
	return n
}
