package utils

// TruncateRunes shortens s to at most max runes, appending "..." when
// anything was cut. Rune-based so multibyte text is never split mid-character.
// This is used by list read models only; stored data is never truncated.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
