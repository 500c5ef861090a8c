// Package cleaner repairs OCR noise in Markdown documents. Prose lines pass
// through untouched; table blocks are either cleaned cell by cell or, when
// they are too wide, rebuilt as a two-column Hull No. | Name table.
package cleaner

import (
	"fmt"
	"strings"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/logger"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

// Report summarizes one cleaning pass
type Report struct {
	Tables     int
	Organized  int
	Messy      int
	RowsIn     int
	RowsOut    int
	ProseLines int
}

// String renders the report for progress output
func (r Report) String() string {
	return fmt.Sprintf("%d tables (%d organized, %d messy), %d rows in, %d rows out, %d prose lines",
		r.Tables, r.Organized, r.Messy, r.RowsIn, r.RowsOut, r.ProseLines)
}

// Cleaner runs the document pass. It holds no per-document state and is safe
// for concurrent use.
type Cleaner struct {
	threshold int
	log       *logger.Logger
}

// Option configures a Cleaner
type Option func(*Cleaner)

// WithColumnThreshold sets the column count above which a table is restructured
func WithColumnThreshold(n int) Option {
	return func(c *Cleaner) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithLogger sets the logger used for per-table debug output
func WithLogger(l *logger.Logger) Option {
	return func(c *Cleaner) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Cleaner with the default column threshold
func New(opts ...Option) *Cleaner {
	c := &Cleaner{
		threshold: constants.DefaultColumnThreshold,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold returns the configured column threshold
func (c *Cleaner) Threshold() int {
	return c.threshold
}

// Clean transforms a whole document and reports what it did
func (c *Cleaner) Clean(text string) (string, Report) {
	var (
		report  Report
		b       strings.Builder
		block   []string
		inTable bool
	)

	flush := func() {
		rows, shape := ProcessBlock(block, c.threshold)
		report.merge(Report{Tables: 1, RowsIn: len(block), RowsOut: len(rows)})
		if shape == types.TableShapeMessy {
			report.Messy++
		} else {
			report.Organized++
		}
		c.log.Debug("table block: %d columns, %s, %d rows -> %d rows",
			ColumnCount(block[0]), shape, len(block), len(rows))
		for _, row := range rows {
			b.WriteString(row)
		}
		block = nil
		inTable = false
	}

	// SCANNING copies prose; IN_TABLE collects a block until the first non-table line.
	for _, line := range splitLinesKeepEnds(text) {
		if IsTableLine(line) {
			inTable = true
			block = append(block, line)
			continue
		}
		if inTable {
			flush()
		}
		report.ProseLines++
		b.WriteString(line)
	}
	if inTable {
		flush()
	}

	return b.String(), report
}

func (r *Report) merge(o Report) {
	r.Tables += o.Tables
	r.Organized += o.Organized
	r.Messy += o.Messy
	r.RowsIn += o.RowsIn
	r.RowsOut += o.RowsOut
	r.ProseLines += o.ProseLines
}

// CleanFile reads inPath, cleans it and writes the result to outPath. A
// missing or unreadable input is returned as a file access error.
func (c *Cleaner) CleanFile(inPath, outPath string) (*Report, error) {
	text, err := utils.ReadTextFile(inPath)
	if err != nil {
		return nil, err
	}

	cleaned, report := c.Clean(text)

	if err := utils.WriteTextFile(outPath, cleaned); err != nil {
		return nil, err
	}
	return &report, nil
}

// splitLinesKeepEnds splits text after every "\n", keeping the terminator on
// each line. A final line without a newline is kept as is.
func splitLinesKeepEnds(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
