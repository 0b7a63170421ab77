package canonical

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"creed.space/vcp/vcperr"
)

// forbiddenRunes are rejected anywhere in content: bidirectional
// direction overrides, isolates, zero-width characters, and the BOM.
var forbiddenRunes = map[rune]bool{
	'\u202a': true, // LEFT-TO-RIGHT EMBEDDING
	'\u202b': true, // RIGHT-TO-LEFT EMBEDDING
	'\u202c': true, // POP DIRECTIONAL FORMATTING
	'\u202d': true, // LEFT-TO-RIGHT OVERRIDE
	'\u202e': true, // RIGHT-TO-LEFT OVERRIDE
	'\u2066': true, // LEFT-TO-RIGHT ISOLATE
	'\u2067': true, // RIGHT-TO-LEFT ISOLATE
	'\u2068': true, // FIRST STRONG ISOLATE
	'\u2069': true, // POP DIRECTIONAL ISOLATE
	'\u200b': true, // ZERO WIDTH SPACE
	'\u200c': true, // ZERO WIDTH NON-JOINER
	'\u200d': true, // ZERO WIDTH JOINER
	'\ufeff': true, // ZERO WIDTH NO-BREAK SPACE (BOM)
}

// Content canonicalizes constitution text for hash computation.
//
// Rules, applied in order:
//  1. Unicode NFC normalization
//  2. Line ending normalization (CRLF and bare CR become LF)
//  3. Trailing spaces and tabs stripped from each line
//  4. Trailing empty lines removed; exactly one trailing newline
//  5. Control characters other than LF and TAB rejected
//  6. Direction overrides, isolates, zero-width characters, and BOM rejected
//
// The output is UTF-8 without a BOM. Content(Content(x)) == Content(x).
func Content(text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, vcperr.New(vcperr.KindInvalidEncoding, "VCP-CANON-001", "content is not valid UTF-8")
	}

	text = norm.NFC.String(text)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	text = strings.Join(lines, "\n") + "\n"

	for i, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return nil, vcperr.New(vcperr.KindInvalidEncoding, "VCP-CANON-002",
				fmt.Sprintf("illegal control character at offset %d: U+%04X", i, r))
		}
		if forbiddenRunes[r] {
			return nil, vcperr.New(vcperr.KindInvalidEncoding, "VCP-CANON-003",
				fmt.Sprintf("forbidden character at offset %d: U+%04X", i, r))
		}
	}

	return []byte(text), nil
}

// ContentBytes is Content over raw bytes. The bytes must be valid UTF-8.
func ContentBytes(b []byte) ([]byte, error) {
	if !utf8.Valid(b) {
		return nil, vcperr.New(vcperr.KindInvalidEncoding, "VCP-CANON-001", "content is not valid UTF-8")
	}
	return Content(string(b))
}
