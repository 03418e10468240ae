package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// OnlyDigits drops everything that is not 0-9.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCPF renders 11 digits as 123.456.789-01; anything else is returned trimmed.
func FormatCPF(raw string) string {
	d := OnlyDigits(raw)
	if len(d) != 11 {
		return strings.TrimSpace(raw)
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// ValidCPF checks length, repeated digits and both check digits.
func ValidCPF(raw string) bool {
	d := OnlyDigits(raw)
	if len(d) != 11 {
		return false
	}
	if strings.Count(d, d[:1]) == 11 {
		return false
	}
	check := func(n int) int {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		rest := (sum * 10) % 11
		if rest == 10 {
			rest = 0
		}
		return rest
	}
	return check(9) == int(d[9]-'0') && check(10) == int(d[10]-'0')
}

// FormatPhone renders (21) 98765-4321 or (21) 3456-7890. A leading 55 is dropped.
func FormatPhone(raw string) string {
	d := OnlyDigits(raw)
	if len(d) >= 12 && strings.HasPrefix(d, "55") {
		d = d[2:]
	}
	switch len(d) {
	case 11:
		return "(" + d[0:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[0:2] + ") " + d[2:6] + "-" + d[6:]
	}
	return strings.TrimSpace(raw)
}

// NormalizePhoneBR returns 55DDDNUMBER, or "" when the number is unusable.
func NormalizePhoneBR(raw string) string {
	d := strings.TrimLeft(OnlyDigits(raw), "0")
	switch {
	case len(d) == 10 || len(d) == 11:
		return "55" + d
	case (len(d) == 12 || len(d) == 13) && strings.HasPrefix(d, "55"):
		return d
	}
	return ""
}

// FoldGroupName is a lower-case, accent-free, whitespace-collapsed key. Used
// for search only; group identity compares trimmed values exactly.
func FoldGroupName(s string) string {
	// transform.Chain keeps state, so each call gets its own.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(fold, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(NormalizeSpace(out))
}
