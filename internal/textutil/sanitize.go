package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxFileNameLength bounds escaped output file names.
const DefaultMaxFileNameLength = 200

// EscapeFileName makes name safe for Windows, macOS and Linux file systems and
// for object-store keys. Whitespace, control characters and the reserved set
// <>:"/\|?* become underscores. The result is NFC-normalized and truncated to
// maxLength runes (DefaultMaxFileNameLength when maxLength <= 0).
func EscapeFileName(name string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxFileNameLength
	}
	name = norm.NFC.String(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(name))
	count := 0
	for _, r := range name {
		if count == maxLength {
			break
		}
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			r = '_'
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

// DisplayName derives the human-facing job name from an uploaded archive file
// name: directory and extension are dropped and the text is NFC-normalized so
// names produced on macOS compare equal to the same name typed elsewhere.
func DisplayName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return norm.NFC.String(strings.TrimSpace(base))
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
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
