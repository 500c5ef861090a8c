// Package chunking splits Markdown into sections and size-bounded chunks.
package chunking

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section is the text under one heading. The preamble before the first
// heading has an empty Heading.
type Section struct {
	Heading string
	Content string
}

type headingMark struct {
	start   int // first byte of the heading line
	end     int // first byte after the heading line
	heading string
}

// SplitSections cuts text at every ATX heading of the given level. Heading
// lines are removed, section bodies are trimmed and empty sections dropped.
// Headings inside code blocks and setext headings do not split.
func SplitSections(content string, level int) []Section {
	source := []byte(content)
	marks := findHeadings(source, level)

	var sections []Section
	add := func(heading string, body []byte) {
		if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
			sections = append(sections, Section{Heading: heading, Content: trimmed})
		}
	}

	if len(marks) == 0 {
		add("", source)
		return sections
	}

	add("", source[:marks[0].start])
	for i, m := range marks {
		next := len(source)
		if i+1 < len(marks) {
			next = marks[i+1].start
		}
		add(m.heading, source[m.end:next])
	}
	return sections
}

func findHeadings(source []byte, level int) []headingMark {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var marks []headingMark
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level != level || heading.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		lines := heading.Lines()
		start := lineStart(source, lines.At(0).Start)
		if !isATXHeading(source[start:], level) {
			return ast.WalkSkipChildren, nil
		}
		marks = append(marks, headingMark{
			start:   start,
			end:     lineEnd(source, lines.At(lines.Len()-1).Stop),
			heading: strings.TrimSpace(extractText(heading, source)),
		})
		return ast.WalkSkipChildren, nil
	})
	return marks
}

func lineStart(source []byte, pos int) int {
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}

func lineEnd(source []byte, pos int) int {
	if i := bytes.IndexByte(source[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(source)
}

// isATXHeading reports whether line opens with exactly level '#' characters
// followed by a space, tab or line end
func isATXHeading(line []byte, level int) bool {
	trimmed := bytes.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	hashes := 0
	for hashes < len(trimmed) && trimmed[hashes] == '#' {
		hashes++
	}
	if hashes != level {
		return false
	}
	return hashes == len(trimmed) || trimmed[hashes] == ' ' || trimmed[hashes] == '\t' ||
		trimmed[hashes] == '\n' || trimmed[hashes] == '\r'
}

func extractText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
