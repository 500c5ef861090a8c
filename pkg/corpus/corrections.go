package corpus

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nodewee/docrag/pkg/utils"
)

// Correction replaces a known OCR misreading with its fixed spelling
type Correction struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// CorrectionTable holds document-specific fixes applied before chunking.
// Replacements run in order, then every removal string is deleted.
type CorrectionTable struct {
	Replacements []Correction `yaml:"replacements"`
	Removals     []string     `yaml:"removals"`
}

// DefaultCorrections returns the fixes known for the submarine report scans
func DefaultCorrections() *CorrectionTable {
	return &CorrectionTable{
		Replacements: []Correction{
			{From: "Hulu dao", To: "Huludao"},
			{From: "cutitting", To: "outfitting"},
			{From: "fist", To: "first"},
			{From: "m mles", To: "miles"},
			{From: "n mles", To: "n miles"},
		},
		Removals: []string{"二"},
	}
}

// LoadCorrections reads a YAML correction table, e.g.
//
//	replacements:
//	  - from: "Hulu dao"
//	    to: "Huludao"
//	removals: ["二"]
func LoadCorrections(path string) (*CorrectionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.NewFileAccessError(path, err)
	}

	var table CorrectionTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeConversion, "failed to parse correction table")
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// Validate rejects entries that would match nothing or everything
func (t *CorrectionTable) Validate() error {
	for i, c := range t.Replacements {
		if c.From == "" {
			return utils.NewValidationError(fmt.Sprintf("replacement %d has an empty 'from'", i), nil)
		}
	}
	for i, r := range t.Removals {
		if r == "" {
			return utils.NewValidationError(fmt.Sprintf("removal %d is empty", i), nil)
		}
	}
	return nil
}

// Apply runs every replacement and removal over text
func (t *CorrectionTable) Apply(text string) string {
	if t == nil {
		return text
	}
	for _, c := range t.Replacements {
		text = strings.ReplaceAll(text, c.From, c.To)
	}
	for _, r := range t.Removals {
		text = strings.ReplaceAll(text, r, "")
	}
	return text
}

// Len returns the number of entries in the table
func (t *CorrectionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Replacements) + len(t.Removals)
}
