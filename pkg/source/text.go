package source

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// decodeText converts plain-text bytes to UTF-8. UTF-16 is recognised by its
// byte order mark; other invalid UTF-8 is read as Windows-1252, which is what
// legacy office exports produce.
func decodeText(data []byte) string {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		data = data[len(utf8BOM):]
	case bytes.HasPrefix(data, utf16LEBOM), bytes.HasPrefix(data, utf16BEBOM):
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		if out, _, err := transform.Bytes(decoder, data); err == nil {
			return string(out)
		}
	}

	if utf8.Valid(data) {
		return string(data)
	}
	if out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data); err == nil {
		return string(out)
	}
	return strings.ToValidUTF8(string(data), "\ufffd")
}

// Normalize brings text to the form the parser expects: LF line endings,
// NFC composition, no-break and other exotic spaces turned into plain spaces,
// and no trailing whitespace on any line. Leading indentation is kept.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = norm.NFC.String(text)
	text = spaceReplacer.Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u2007", " ", // figure space
	"\u202f", " ", // narrow no-break space
	"\u200b", "", // zero-width space
	"\ufeff", "",
	"\f", "\n",
)
