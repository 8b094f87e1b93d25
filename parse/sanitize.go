package parse

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// zeroWidthChars are invisible characters that leak out of PDF text
// extraction and break language detection and regex matching downstream.
var zeroWidthChars = strings.NewReplacer(
	"​", "", // zero-width space
	"‌", "", // zero-width non-joiner
	"‍", "", // zero-width joiner
	"\uFEFF", "", // zero-width no-break space (BOM)
	"⁠", "", // word joiner
	"­", "", // soft hyphen
	"\x00", "", // NUL, rejected by database drivers
)

// Sanitize makes extracted text safe for detection, storage, and export.
// Invalid UTF-8 sequences are dropped, zero-width characters removed, form
// feeds become newlines, and the result is NFC-normalized so combining
// sequences compare equal.
func Sanitize(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = zeroWidthChars.Replace(text)
	text = strings.ReplaceAll(text, "\f", "\n")
	return norm.NFC.String(text)
}
