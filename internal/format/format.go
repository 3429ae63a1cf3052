// Package format holds the display helpers used by page templates.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// TimeAgo renders t relative to now: "just now", "5m ago", "3h ago", "2d ago",
// then a calendar date.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return strconv.Itoa(int(d/time.Minute)) + "m ago"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d/time.Hour)) + "h ago"
	case d < 7*24*time.Hour:
		return strconv.Itoa(int(d/(24*time.Hour))) + "d ago"
	case t.Year() == now.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// CompactNumber renders counters: 999, 1.2k, 15k, 3.4M.
func CompactNumber(n int) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	switch {
	case n < 1000:
		return sign + strconv.Itoa(n)
	case n < 1_000_000:
		return sign + oneDecimal(float64(n)/1000) + "k"
	default:
		return sign + oneDecimal(float64(n)/1_000_000) + "M"
	}
}

func oneDecimal(f float64) string {
	if f >= 10 {
		return strconv.Itoa(int(f))
	}
	s := strconv.FormatFloat(float64(int(f*10))/10, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// CookTime renders minutes as "45 min", "1 h" or "1 h 30 min". Zero or less renders empty.
func CookTime(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", m)
	case m == 0:
		return fmt.Sprintf("%d h", h)
	default:
		return fmt.Sprintf("%d h %d min", h, m)
	}
}

// Initials returns up to two uppercase initials for an avatar placeholder.
func Initials(fullname, username string) string {
	var out []rune
	for _, w := range strings.Fields(fullname) {
		r, _ := utf8.DecodeRuneInString(w)
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 && username != "" {
		r, _ := utf8.DecodeRuneInString(username)
		out = append(out, unicode.ToUpper(r))
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// Truncate cuts s to at most n runes, ending with an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:n-1]), unicode.IsSpace) + "…"
}

// Plural renders "1 comment" or "3 comments".
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return CompactNumber(n) + " " + plural
}
