package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	phoneJunkRe   = regexp.MustCompile(`@s\.whatsapp\.net|[\s\-\(\)]`)
	nonWordRe     = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multiSpaceRe  = regexp.MustCompile(`\s+`)
	nonDigitRe    = regexp.MustCompile(`\D`)
	nonAlphaNumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// accent folder: NFD decompose, drop combining marks, recompose
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizePhone strips WhatsApp suffixes and separators and collapses the
// Venezuelan international prefix (58...) to the local 0... form. The result
// is the session key for the sender.
func NormalizePhone(phone string) string {
	clean := phoneJunkRe.ReplaceAllString(phone, "")
	clean = strings.TrimPrefix(clean, "whatsapp:")
	clean = strings.TrimPrefix(clean, "+")
	if strings.HasPrefix(clean, "58") && len(clean) > 10 {
		return "0" + clean[2:]
	}
	return clean
}

// FoldAccents removes diacritics ("azúcar" -> "azucar").
func FoldAccents(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeText lower-cases, folds accents, collapses punctuation to spaces
// and squeezes whitespace. Used for both inbound messages and search terms.
func NormalizeText(s string) string {
	out := FoldAccents(strings.ToLower(s))
	out = nonWordRe.ReplaceAllString(out, " ")
	out = multiSpaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Digits keeps only the digit characters of s.
func Digits(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// AlphaNumeric strips everything that is not a plain letter or digit.
func AlphaNumeric(s string) string {
	return nonAlphaNumRe.ReplaceAllString(s, "")
}
