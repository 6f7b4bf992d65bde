// Package normalize repairs character-encoding corruption in fetched text.
// The ingestion corpus is Azerbaijani, which pins down a correctness signal
// for heuristics: a repair is only a repair if it produces more Azerbaijani
// letters than it started with.
package normalize

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// azerbaijaniLetters are the Latin-extended characters specific to the
// target alphabet: cedillas, umlauts, dotless i, schwa.
var azerbaijaniLetters = map[rune]struct{}{
	'ə': {}, 'Ə': {},
	'ç': {}, 'Ç': {},
	'ş': {}, 'Ş': {},
	'ğ': {}, 'Ğ': {},
	'ö': {}, 'Ö': {},
	'ü': {}, 'Ü': {},
	'ı': {}, 'İ': {},
}

// legacyEncodings are the candidate Turkish/Latin code pages a mis-served
// page is most likely to actually be in, in preference order.
var legacyEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"windows-1254", charmap.Windows1254},
	{"iso-8859-9", charmap.ISO8859_9},
	{"windows-1252", charmap.Windows1252},
	{"iso-8859-1", charmap.ISO8859_1},
}

var metaCharsetPattern = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?([a-zA-Z0-9_\-]+)`)

// LetterCount returns the number of Azerbaijani-specific letters in s.
func LetterCount(s string) int {
	count := 0
	for _, r := range s {
		if _, ok := azerbaijaniLetters[r]; ok {
			count++
		}
	}
	return count
}

// Normalize returns a best-effort UTF-8-valid rendition of raw. It never
// fails: every step of the cascade has a stricter fallback, ending in a
// byte-level scrub.
func Normalize(raw string) string {
	if len(raw) == 0 {
		return raw
	}

	ctx := context.Background()

	// A declared charset is logged for diagnosis but never trusted: the
	// corpus is full of pages whose declaration and bytes disagree.
	if m := metaCharsetPattern.FindStringSubmatch(raw); m != nil {
		slog.DebugContext(ctx, "meta charset declared", "charset", strings.ToLower(m[1]))
	}

	detectedEnc, detectedName, certain := charset.DetermineEncoding([]byte(raw), "")
	base := LetterCount(raw)
	valid := utf8.ValidString(raw)

	if valid && hasMojibake(raw) {
		fixed := applySubstitutions(raw)
		if LetterCount(fixed) > base {
			slog.DebugContext(ctx, "mojibake table repair accepted", "letters_before", base, "letters_after", LetterCount(fixed))
			return fixed
		}

		if repaired, ok := repairDoubleEncoded(raw); ok && LetterCount(repaired) >= base {
			slog.DebugContext(ctx, "double-encoding repair accepted", "letters_before", base, "letters_after", LetterCount(repaired))
			return repaired
		}
	}

	if valid {
		return raw
	}

	// The detector leans toward Windows-1252 on short Latin byte runs, so
	// its answer only wins outright when it actually yields target letters.
	// Otherwise it is held as a fallback behind the Turkish code pages.
	var detected string

	if detectedName != "utf-8" && detectedEnc != nil {
		if decoded, err := detectedEnc.NewDecoder().String(raw); err == nil && utf8.ValidString(decoded) {
			if LetterCount(decoded) > 0 {
				slog.DebugContext(ctx, "converted from detected encoding", "encoding", detectedName, "certain", certain)
				return decoded
			}
			detected = decoded
		}
	}

	for _, le := range legacyEncodings {
		decoded, err := le.enc.NewDecoder().String(raw)
		if err != nil || !utf8.ValidString(decoded) {
			continue
		}
		if LetterCount(decoded) > 0 {
			slog.DebugContext(ctx, "converted from candidate encoding", "encoding", le.name)
			return decoded
		}
	}

	if len(detected) > 0 {
		return forceClean(detected)
	}

	return forceClean(raw)
}

// hasMojibake reports whether any known garbled sequence is present.
func hasMojibake(s string) bool {
	for _, sub := range substitutions {
		if strings.Contains(s, sub.bad) {
			return true
		}
	}
	return false
}

func applySubstitutions(s string) string {
	for _, sub := range substitutions {
		s = strings.ReplaceAll(s, sub.bad, sub.good)
	}
	return s
}

// repairDoubleEncoded undoes the classic "UTF-8 decoded as Windows-1252"
// round trip: re-encode the visible characters back to their 1252 bytes and
// reinterpret those bytes as UTF-8. The repair is rejected outright when any
// character has no 1252 byte or the resulting bytes are not valid UTF-8.
func repairDoubleEncoded(s string) (string, bool) {
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return "", false
	}

	if !utf8.Valid(b) {
		return "", false
	}

	return string(b), true
}

// forceClean is the terminal fallback: keep printable characters and
// line-structure whitespace, drop everything else. Valid UTF-8 is scrubbed
// rune by rune; arbitrary bytes are reinterpreted as Latin-1.
func forceClean(s string) string {
	if utf8.ValidString(s) {
		return strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' || r == '\t' {
				return r
			}
			if unicode.IsControl(r) {
				return -1
			}
			return r
		}, s)
	}

	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b == '\n' || b == '\r' || b == '\t':
			sb.WriteByte(b)
		case b >= 0x20 && b <= 0x7E:
			sb.WriteByte(b)
		case b >= 0xA0:
			sb.WriteRune(rune(b))
		}
	}

	return sb.String()
}
