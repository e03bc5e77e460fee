package writer

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/stamp"
)

var fixedNow = func() time.Time { return time.Date(2024, 12, 28, 9, 0, 0, 0, time.Local) }

// newTemplate builds a December sheet with day rows 10..40 and a marker in
// every output cell so blanking is observable.
func newTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := "12月"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for day := 1; day <= 31; day++ {
		row := day + 9
		require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("C%d", row), 12))
		require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("D%d", row), day))
		for _, col := range []string{"F", "L", "M", "V", "W"} {
			require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), "x"))
		}
	}

	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func sampleEntries() []domain.TimecardEntry {
	out := domain.TimeOfDay{Hour: 17, Minute: 31}
	return []domain.TimecardEntry{
		{Date: time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC), WorkType: "在宅", TimeOut: &out},
		{Date: time.Date(2024, 12, 22, 0, 0, 0, 0, time.UTC), WorkType: "有休"},
	}
}

func readCell(t *testing.T, path, sheet, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}

func TestTimecardWriter_Write(t *testing.T) {
	tpl := newTemplate(t)
	out := filepath.Join(t.TempDir(), "out.xlsx")
	gen, err := stamp.NewGenerator("")
	require.NoError(t, err)

	w := NewTimecardWriter(tpl, out, WithStamper(gen, 120), WithClock(fixedNow))
	employee := domain.Employee{FamilyName: "Yamada", GivenName: "Taro"}
	require.NoError(t, w.Write(context.Background(), 12, employee, sampleEntries()))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	tests := []struct {
		cell string
		want string
	}{
		{"F30", "出勤"},
		{"L30", "17:40"},
		{"M30", "17:31"},
		{"V30", ""},
		{"W30", "1"},
		{"F31", "有給休暇"},
		{"L31", ""},
		{"W31", ""},
		{"F10", ""},
		{"V10", ""},
		{"F40", ""},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue("12月", tt.cell)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.cell)
	}

	pics, err := f.GetPictures("12月", "T4")
	require.NoError(t, err)
	assert.NotEmpty(t, pics)

	// the template is left as it was
	assert.Equal(t, "x", readCell(t, tpl, "12月", "F30"))
}

func pictureNames(t *testing.T, path, sheet, cell string) []string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	pics, err := f.GetPictures(sheet, cell)
	require.NoError(t, err)
	var names []string
	for _, p := range pics {
		if p.Format != nil {
			names = append(names, p.Format.AltText)
		}
	}
	return names
}

func TestTimecardWriter_SealReplacedOnRewrite(t *testing.T) {
	tpl := newTemplate(t)
	gen, err := stamp.NewGenerator("")
	require.NoError(t, err)
	w := NewTimecardWriter(tpl, tpl, WithStamper(gen, 120), WithClock(fixedNow))

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Write(context.Background(), 12, domain.Employee{FamilyName: "Yamada"}, sampleEntries()))
		assert.Equal(t, []string{"syokuin"}, pictureNames(t, tpl, "12月", "T4"), "write %d", i+1)
	}
}

func TestTimecardWriter_KeepsOtherPicturesAtStampCell(t *testing.T) {
	tpl := newTemplate(t)
	gen, err := stamp.NewGenerator("")
	require.NoError(t, err)
	logo, err := gen.PNG("LOGO", "", "", 64)
	require.NoError(t, err)

	f, err := excelize.OpenFile(tpl)
	require.NoError(t, err)
	require.NoError(t, f.AddPictureFromBytes("12月", "T4", &excelize.Picture{
		Extension: ".png",
		File:      logo,
		Format:    &excelize.GraphicOptions{AltText: "logo"},
	}))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	w := NewTimecardWriter(tpl, tpl, WithStamper(gen, 120), WithClock(fixedNow))
	for i := 0; i < 2; i++ {
		require.NoError(t, w.Write(context.Background(), 12, domain.Employee{FamilyName: "Yamada"}, sampleEntries()))
		assert.ElementsMatch(t, []string{"logo", "syokuin"}, pictureNames(t, tpl, "12月", "T4"), "write %d", i+1)
	}
}

func TestTimecardWriter_InPlace(t *testing.T) {
	tpl := newTemplate(t)
	w := NewTimecardWriter(tpl, tpl)
	require.NoError(t, w.Write(context.Background(), 12, domain.Employee{}, sampleEntries()))

	assert.Equal(t, "出勤", readCell(t, tpl, "12月", "F30"))
	assert.Equal(t, "", readCell(t, tpl, "12月", "F29"))
}

func TestTimecardWriter_StopsAtFirstNonNumericRow(t *testing.T) {
	tpl := newTemplate(t)
	f, err := excelize.OpenFile(tpl)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("12月", "C25", "合計"))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	w := NewTimecardWriter(tpl, tpl)
	require.NoError(t, w.Write(context.Background(), 12, domain.Employee{}, sampleEntries()))

	assert.Equal(t, "", readCell(t, tpl, "12月", "F24"))
	assert.Equal(t, "x", readCell(t, tpl, "12月", "F25"))
	assert.Equal(t, "x", readCell(t, tpl, "12月", "F30"))
}

func TestTimecardWriter_Remarks(t *testing.T) {
	tpl := newTemplate(t)
	layout := DefaultLayout()
	layout.RemarksColumn = "Y"

	w := NewTimecardWriter(tpl, tpl, WithLayout(layout))
	entries := []domain.TimecardEntry{{Date: time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC), WorkType: "在宅/出勤"}}
	require.NoError(t, w.Write(context.Background(), 12, domain.Employee{}, entries))

	assert.Equal(t, "出勤", readCell(t, tpl, "12月", "F12"))
	assert.Equal(t, "午後出社", readCell(t, tpl, "12月", "Y12"))
	assert.Equal(t, "1", readCell(t, tpl, "12月", "V12"))
	assert.Equal(t, "1", readCell(t, tpl, "12月", "W12"))
}

func TestTimecardWriter_WriteTo(t *testing.T) {
	tpl := newTemplate(t)
	var buf bytes.Buffer

	w := NewTimecardWriter(tpl, tpl)
	require.NoError(t, w.WriteTo(&buf, 12, domain.Employee{}, sampleEntries()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetCellValue("12月", "F31")
	require.NoError(t, err)
	assert.Equal(t, "有給休暇", got)

	assert.Equal(t, "x", readCell(t, tpl, "12月", "F31"))
}

func TestTimecardWriter_Errors(t *testing.T) {
	tpl := newTemplate(t)
	w := NewTimecardWriter(tpl, tpl)

	err := w.Write(context.Background(), 5, domain.Employee{}, nil)
	assert.ErrorIs(t, err, domain.ErrWrite)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	w = NewTimecardWriter(filepath.Join(t.TempDir(), "missing.xlsx"), "out.xlsx")
	err = w.Write(context.Background(), 12, domain.Employee{}, nil)
	assert.ErrorIs(t, err, domain.ErrWrite)
}

func TestLoadLayout(t *testing.T) {
	l, err := LoadLayoutFromReader(strings.NewReader("stamp_cell: S4\nlast_row: 35\n"))
	require.NoError(t, err)
	assert.Equal(t, "S4", l.StampCell)
	assert.Equal(t, 35, l.LastRow)
	assert.Equal(t, "F", l.CategoryColumn)
	assert.Equal(t, "4月", l.SheetName(4))

	_, err = LoadLayoutFromReader(strings.NewReader("stamp_cell: 4S\n"))
	assert.Error(t, err)

	_, err = LoadLayoutFromReader(strings.NewReader("first_row: 20\nlast_row: 10\n"))
	assert.Error(t, err)

	_, err = LoadLayoutFromReader(strings.NewReader("sheet_format: Sheet\n"))
	assert.Error(t, err)
}
