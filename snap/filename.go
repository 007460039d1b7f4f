package snap

import "strings"

// SanitizeFileName maps an arbitrary document title to a token safe to use
// as a file name: path-hostile characters and whitespace runs collapse to
// single dashes. An empty or fully hostile input falls back to "snapshot".
func SanitizeFileName(title string) string {
	hostile := func(r rune) bool {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\x00':
			return true
		}
		return r < 0x20
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.TrimSpace(title) {
		if hostile(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "snapshot"
	}
	return out
}
