package textutil

import (
	"fmt"
	"math"
	"strings"
)

var sizeLabels = [...]string{"", "Ki", "Mi", "Gi", "Ti"}

// FormatSize renders a byte count with two decimals and a binary unit suffix.
// The value is divided by 1024 only while it strictly exceeds 1024, so exactly
// 1024 bytes renders as "1024.00 B". Values beyond the TiB range stay in TiB.
func FormatSize(size float64) string {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		size = 0
	}
	const power = 1024
	n := 0
	for size > power && n < len(sizeLabels)-1 {
		size /= power
		n++
	}
	return fmt.Sprintf("%.2f %sB", size, sizeLabels[n])
}

// FormatDuration renders whole seconds as "1d, 2h, 3m, 4s", omitting zero
// components. Fractions are truncated. Zero and negative inputs render "0s" so
// callers never display an empty duration.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "unknown"
	}
	total := int64(seconds)
	if total <= 0 {
		return "0s"
	}
	minutes, secs := total/60, total%60
	hours, minutes := minutes/60, minutes%60
	days, hours := hours/24, hours%24

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if secs > 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}
	return strings.Join(parts, ", ")
}
