package ui

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// fmtQty formats a resource quantity for display. Whole values render
// without decimals, fractional ones with a single decimal; the integer part
// is grouped by thousands.
func fmtQty(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "?"
	}

	neg := v < 0
	v = math.Abs(v)

	// Round to one decimal up front so 99.96 becomes 100, not 99.0.
	v = math.Round(v*10) / 10
	whole := math.Floor(v)
	frac := v - whole

	out := groupThousands(fmt.Sprintf("%.0f", whole))
	if frac > 0.001 {
		out += fmt.Sprintf(".%d", int(math.Round(frac*10)))
	}
	if neg {
		out = "-" + out
	}
	return out
}

// groupThousands inserts commas into a plain digit string.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(n + n/3)
	lead := n % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// syncLabel formats the last successful sync time with a relative suffix.
func syncLabel(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}

	label := t.Format("15:04:05")
	since := now.Sub(t)
	switch {
	case since < time.Minute:
		label += " (now)"
	case since < time.Hour:
		label += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		label += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return label
}
