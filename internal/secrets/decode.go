package secrets

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// Decode converts a possibly base64-encoded value to plaintext.
// Decoding is best-effort: when the input is not valid base64, or the
// decoded bytes are not valid UTF-8, the trimmed input is returned unchanged.
func Decode(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	padded := s
	if rem := len(padded) % 4; rem != 0 {
		padded += strings.Repeat("=", 4-rem)
	}

	raw, err := base64.StdEncoding.DecodeString(padded)
	if err != nil || !utf8.Valid(raw) {
		return s
	}

	// Literal '=' can survive a double-encoded value; drop it.
	return strings.TrimRight(strings.TrimSpace(string(raw)), "=")
}
