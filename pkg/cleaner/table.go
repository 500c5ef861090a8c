package cleaner

import (
	"fmt"
	"strings"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/types"
)

// Fixed header of a restructured two-column table
var (
	messyHeader    = fmt.Sprintf("| %-*s | %-*s |", constants.HullColumnWidth, constants.HullColumnHeader, constants.NameColumnWidth, constants.NameColumnHeader)
	messySeparator = "|" + strings.Repeat("-", constants.HullColumnWidth+2) + "|" + strings.Repeat("-", constants.NameColumnWidth+2) + "|"
)

// IsTableLine reports whether line, once trimmed, starts with the row delimiter
func IsTableLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), constants.TableDelimiter)
}

// IsSeparatorRow reports whether line is a header divider such as |---|:--:|.
// It must start and end with the delimiter and contain nothing but
// delimiters, dashes, colons and whitespace.
func IsSeparatorRow(line string) bool {
	row := strings.TrimSpace(line)
	if len(row) < 3 || !strings.HasPrefix(row, constants.TableDelimiter) || !strings.HasSuffix(row, constants.TableDelimiter) {
		return false
	}
	for _, r := range row {
		switch r {
		case '|', '-', ':', ' ', '\t', '\v', '\f', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// ColumnCount derives a block's width from the delimiter count of its first row
func ColumnCount(firstRow string) int {
	return strings.Count(firstRow, constants.TableDelimiter) - 1
}

// Classify decides how a table block is processed. Blocks wider than
// threshold columns are messy; everything else, including an empty block,
// is organized.
func Classify(block []string, threshold int) types.TableShape {
	if len(block) == 0 {
		return types.TableShapeOrganized
	}
	if ColumnCount(block[0]) > threshold {
		return types.TableShapeMessy
	}
	return types.TableShapeOrganized
}

// splitCells drops the surrounding whitespace and outer delimiters of a row
// and splits what is left on the delimiter. Cells are not trimmed.
func splitCells(line string) []string {
	row := strings.Trim(strings.TrimSpace(line), constants.TableDelimiter)
	return strings.Split(row, constants.TableDelimiter)
}

// ProcessOrganized cleans every cell in place. Separator rows are returned
// unchanged and every other row keeps its cell count.
func ProcessOrganized(block []string) []string {
	out := make([]string, 0, len(block))
	for _, line := range block {
		if IsSeparatorRow(line) {
			out = append(out, line)
			continue
		}

		cells := splitCells(line)
		var b strings.Builder
		b.WriteString("|")
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("|")
			}
			b.WriteString(" ")
			b.WriteString(NormalizeToken(cell))
			b.WriteString(" ")
		}
		b.WriteString("|\n")
		out = append(out, b.String())
	}
	return out
}

// RestructureMessy rebuilds a wide table as a fixed Hull No. | Name table.
// Cells of each data row are read in pairs; a dangling last cell gets an
// empty name, and pairs that normalize to nothing are dropped.
func RestructureMessy(block []string) []string {
	out := []string{messyHeader + "\n", messySeparator + "\n"}
	for _, line := range block {
		if IsSeparatorRow(line) {
			continue
		}

		cells := splitCells(line)
		for i := 0; i < len(cells); i += 2 {
			hull := NormalizeToken(cells[i])
			name := ""
			if i+1 < len(cells) {
				name = NormalizeToken(cells[i+1])
			}
			if hull == "" && name == "" {
				continue
			}
			out = append(out, fmt.Sprintf("| %-*s | %-*s |\n", constants.HullColumnWidth, hull, constants.NameColumnWidth, name))
		}
	}
	return out
}

// ProcessBlock classifies block against threshold and runs the matching path
func ProcessBlock(block []string, threshold int) ([]string, types.TableShape) {
	shape := Classify(block, threshold)
	if shape == types.TableShapeMessy {
		return RestructureMessy(block), shape
	}
	if len(block) == 0 {
		return nil, shape
	}
	return ProcessOrganized(block), shape
}
