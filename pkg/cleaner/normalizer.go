package cleaner

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Patterns for repairing OCR segmentation inside a single token
var (
	camelCaseRe   = regexp.MustCompile(`([a-z])([A-Z])`)
	letterDigitRe = regexp.MustCompile(`([a-zA-Z])(\p{Nd})`)
	digitLetterRe = regexp.MustCompile(`(\p{Nd})([a-zA-Z])`)
	suffixRe      = regexp.MustCompile(`(?i)([a-z])(Shan|Hu|Dao|Jiang|Xing|Ce|Diao|Biao|vessels|ships|forces|auxiliarios)`)
)

// wordPunct is trimmed from both ends of every word
const wordPunct = "-. "

// NormalizeToken repairs run-together words in an OCR token: camel-case
// joins, letter/digit joins and glued place-name suffixes are split apart,
// stray dashes and dots are trimmed from each word, and the words are
// rejoined with single spaces. Blank input yields "".
func NormalizeToken(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	s = splitCamelCase(s)
	s = splitDigits(s)
	s = splitSuffixes(s)

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if w = trimWord(w); w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// EmeiShan -> Emei Shan
func splitCamelCase(s string) string {
	return camelCaseRe.ReplaceAllString(s, "$1 $2")
}

// Biao265 -> Biao 265, 265vessels -> 265 vessels
func splitDigits(s string) string {
	s = letterDigitRe.ReplaceAllString(s, "$1 $2")
	return digitLetterRe.ReplaceAllString(s, "$1 $2")
}

// QiandaoHu -> Qiandao Hu. The suffix must end a word, and any letter or
// number counts as a word character, so "Qiandaohu二" stays whole.
func splitSuffixes(s string) string {
	var b strings.Builder
	last, pos := 0, 0
	for pos < len(s) {
		m := suffixRe.FindStringSubmatchIndex(s[pos:])
		if m == nil {
			break
		}
		start, end := pos+m[0], pos+m[1]
		if !endsWord(s, end) {
			_, size := utf8.DecodeRuneInString(s[start:])
			pos = start + size
			continue
		}
		split := pos + m[3]
		b.WriteString(s[last:split])
		b.WriteByte(' ')
		b.WriteString(s[split:end])
		last, pos = end, end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// endsWord reports whether a word boundary falls at byte offset i
func endsWord(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !(unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_')
}

func trimWord(w string) string {
	return strings.Trim(w, wordPunct)
}
