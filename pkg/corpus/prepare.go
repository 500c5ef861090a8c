// Package corpus turns cleaned Markdown into the text that gets chunked and
// embedded.
package corpus

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var spaceRunRe = regexp.MustCompile(` {2,}`)

// Preparer applies corpus corrections to a document
type Preparer struct {
	corrections *CorrectionTable
}

// NewPreparer creates a Preparer. A nil table means the defaults.
func NewPreparer(corrections *CorrectionTable) *Preparer {
	if corrections == nil {
		corrections = DefaultCorrections()
	}
	return &Preparer{corrections: corrections}
}

// Prepare composes text to NFC, applies the correction table, drops HTML
// comments such as <!-- image --> and collapses runs of spaces. Newlines and
// table pipes are kept.
func (p *Preparer) Prepare(text string) string {
	text = norm.NFC.String(text)
	text = p.corrections.Apply(text)
	text = StripHTMLComments(text)
	return CollapseSpaces(text)
}

// StripHTMLComments removes every HTML comment and leaves all other bytes as
// they were
func StripHTMLComments(text string) string {
	if !strings.Contains(text, "<!--") {
		return text
	}

	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	b.Grow(len(text))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if !errors.Is(z.Err(), io.EOF) {
				return text
			}
			return b.String()
		}
		if tt == html.CommentToken {
			continue
		}
		b.Write(z.Raw())
	}
}

// CollapseSpaces replaces runs of ASCII spaces with a single space
func CollapseSpaces(text string) string {
	return spaceRunRe.ReplaceAllString(text, " ")
}
