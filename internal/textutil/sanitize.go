package textutil

import "strings"

// SanitizeToken converts a string to a filesystem-safe token. ASCII letters
// keep their case (platform file identifiers are case-sensitive), digits and
// hyphens/underscores are kept, everything else becomes an underscore.
// Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// TruncateTail keeps at most limit bytes of value, preferring the tail because
// tool diagnostics put the decisive error last. A leading ellipsis marks the cut.
func TruncateTail(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	cut := len(value) - limit
	for cut < len(value) && !isRuneStart(value[cut]) {
		cut++
	}
	return "…" + value[cut:]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
