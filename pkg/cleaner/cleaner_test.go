package cleaner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewee/docrag/pkg/utils"
)

func TestCleanOrganizedDocument(t *testing.T) {
	in := "# Report\n\nIntro line with  double  spaces.\n| A | B |\n|---|---|\n| EmeiShan | Biao265 |\nAfter table\n"

	out, report := New().Clean(in)

	assert.Equal(t, "# Report\n\nIntro line with  double  spaces.\n| A | B |\n|---|---|\n| Emei Shan | Biao 265 |\nAfter table\n", out)
	assert.Equal(t, Report{Tables: 1, Organized: 1, RowsIn: 3, RowsOut: 3, ProseLines: 4}, report)
}

func TestCleanMessyDocument(t *testing.T) {
	in := strings.Join([]string{
		"## Fleet",
		"| 401 | Changzheng | 402 | Xia | 403 | Jin | 404 | Song |",
		"|---|---|---|---|---|---|---|---|",
		"| 405 | HanShan |  |  |  |  |  |  |",
		"",
		"End.",
	}, "\n")

	out, report := New().Clean(in)

	want := "## Fleet\n" + wantHeader + wantSeparator +
		messyRow("401", "Changzheng") +
		messyRow("402", "Xia") +
		messyRow("403", "Jin") +
		messyRow("404", "Song") +
		messyRow("405", "Han Shan") +
		"\nEnd."
	assert.Equal(t, want, out)
	assert.Equal(t, 1, report.Messy)
	assert.Equal(t, 3, report.RowsIn)
	assert.Equal(t, 7, report.RowsOut)
	assert.Equal(t, 3, report.ProseLines)
}

func TestCleanThresholdOption(t *testing.T) {
	in := "| 1 | 2 | 3 | 4 | 5 | 6 | 7 |\n"

	out, report := New(WithColumnThreshold(7)).Clean(in)
	assert.Equal(t, "| 1 | 2 | 3 | 4 | 5 | 6 | 7 |\n", out)
	assert.Equal(t, 1, report.Organized)

	out, report = New().Clean(in)
	assert.True(t, strings.HasPrefix(out, wantHeader+wantSeparator))
	assert.Equal(t, 1, report.Messy)
}

func TestCleanProseIdentity(t *testing.T) {
	prose := []string{
		"Plain prose with EmeiShan left alone.\n",
		"  indented -- text.\r\n",
		"a | b is not a table\n",
		"\n",
		"Biao265vessels",
	}
	in := strings.Join(prose, "")

	out, report := New().Clean(in)

	assert.Equal(t, in, out)
	assert.Zero(t, report.Tables)
	assert.Equal(t, len(prose), report.ProseLines)
}

func TestCleanTableAtEndOfInput(t *testing.T) {
	out, _ := New().Clean("x\n  | a |b|")
	assert.Equal(t, "x\n| a | b |\n", out)
}

func TestCleanSeparatedBlocks(t *testing.T) {
	in := "| a |\n\n| b |\n"
	out, report := New().Clean(in)
	assert.Equal(t, in, out)
	assert.Equal(t, 2, report.Tables)
}

func TestCleanEmpty(t *testing.T) {
	out, report := New().Clean("")
	assert.Empty(t, out)
	assert.Equal(t, Report{}, report)
}

func TestCleanFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "final_perfect_extraction.md")
	out := filepath.Join(dir, "out", "cleaned_final_output.md")
	require.NoError(t, os.WriteFile(in, []byte("Title\n| QiandaoHu |\n"), 0o644))

	report, err := New().CleanFile(in, out)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Tables)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Title\n| Qian dao Hu |\n", string(data))
}

func TestCleanFileMissingInput(t *testing.T) {
	dir := t.TempDir()

	_, err := New().CleanFile(filepath.Join(dir, "missing.md"), filepath.Join(dir, "out.md"))

	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeFileAccess, utils.GetErrorType(err))
	assert.NoFileExists(t, filepath.Join(dir, "out.md"))
}

func TestReportString(t *testing.T) {
	r := Report{Tables: 2, Organized: 1, Messy: 1, RowsIn: 5, RowsOut: 9, ProseLines: 3}
	assert.Equal(t, "2 tables (1 organized, 1 messy), 5 rows in, 9 rows out, 3 prose lines", r.String())
}
