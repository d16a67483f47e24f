// Package slug derives path and URL safe names from font family names and
// uploaded filenames.
package slug

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters that do not decompose into base + combining mark
var folds = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"ł", "l", "Ł", "L",
	"þ", "th", "Þ", "TH",
	"ð", "d", "Ð", "D",
)

// RemoveAccents folds accented latin letters to their ascii base.
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return folds.Replace(out)
}

// Make returns the family slug: lowercase ascii letters and digits, every
// other run collapsed to a single hyphen, no leading or trailing hyphen.
//
//	"Open Sans"      -> "open-sans"
//	"Fira Code Pro!" -> "fira-code-pro"
//	"Crème Brûlée"   -> "creme-brulee"
//
// Names without any usable character map to "family-" plus a short content
// hash so that two such families never share a directory.
func Make(family string) string {
	s := collapse(strings.ToLower(RemoveAccents(family)), func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
	})
	if s == "" {
		sum := sha256.Sum256([]byte(family))
		return "family-" + hex.EncodeToString(sum[:4])
	}
	return s
}

// Filename sanitizes the base name of an uploaded file (without extension).
// Case is kept; anything outside [A-Za-z0-9_] becomes a hyphen.
func Filename(base string) string {
	s := collapse(RemoveAccents(base), func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
	})
	if s == "" {
		return "font"
	}
	return s
}

func collapse(s string, keep func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range s {
		if keep(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}
