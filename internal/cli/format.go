package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"binomial-pricer/internal/payoff"
)

// FormatValue formats an option value with four decimals and thousands
// separators.
func FormatValue(v float64) string {
	return FormatNumber(v, 4)
}

// FormatPrice formats a stock price or strike with two decimals.
func FormatPrice(v float64) string {
	return FormatNumber(v, 2)
}

// FormatNumber formats v with the given decimals and comma-grouped
// thousands. NaN and infinities are spelled out.
func FormatNumber(v float64, decimals int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}

	str := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	intPart, decPart := str, ""
	if i := strings.IndexByte(str, '.'); i >= 0 {
		intPart, decPart = str[:i], str[i:]
	}

	result := groupThousands(intPart) + decPart
	if v < 0 && strings.Trim(str, "0.") != "" {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatSigned formats a profit with an explicit sign.
func FormatSigned(v float64) string {
	formatted := FormatNumber(v, 4)
	if v > 0 && formatted != "0.0000" {
		return "+" + formatted
	}
	return formatted
}

// FormatPercent formats a fraction as a percentage.
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

// FormatRange formats a price range as [low, high].
func FormatRange(r payoff.Range) string {
	return fmt.Sprintf("[%s, %s]", FormatPrice(r.Low), FormatPrice(r.High))
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// FormatCount formats an integer count with thousands separators.
func FormatCount(n int) string {
	if n < 0 {
		return "-" + groupThousands(strconv.Itoa(-n))
	}
	return groupThousands(strconv.Itoa(n))
}

// TruncateString truncates a string to maxLen with ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
