package xlsx

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnNameBijection(t *testing.T) {
	tests := []struct {
		name   string
		number int
	}{
		{"A", 0},
		{"B", 1},
		{"Z", 25},
		{"AA", 26},
		{"AZ", 51},
		{"BA", 52},
		{"ZZ", 701},
		{"AAA", 702},
		{"XFD", 16383},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.name, ColumnName(tc.number))
			n, err := ColumnNumber(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.number, n)
		})
	}
}

func TestColumnNumberRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "a", "A1", "ABCDEFGH", "Ä"} {
		_, err := ColumnNumber(s)
		assert.ErrorIs(t, err, ErrStructure, "input %q", s)
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{"A1", Ref{0, 0}},
		{"b2", Ref{1, 1}},
		{"E9", Ref{8, 4}},
		{"AAA1048576", Ref{1048575, 702}},
		{"R1C1", Ref{0, 0}},
		{"r9c5", Ref{8, 4}},
	}
	for _, tc := range tests {
		got, err := ParseRef(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
	for _, s := range []string{"", "1A", "A0", "R0C1", "A", "11", "RC"} {
		_, err := ParseRef(s)
		assert.ErrorIs(t, err, ErrStructure, "input %q", s)
	}
}

func TestScrubFormat(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"General", ""},
		{"0.00", "0.00"},
		{"#,##0", "#,##0"},
		{`"$"#,##0_);[Red]("$"#,##0)`, "#,##0;#,##0"},
		{"yyyy-mm-dd hh:mm:ss", "yyyymmddhhmmss"},
		{`[$-404]e/m/d;yyyy"年"m"月"`, "emd;yyyym"},
		{"General;General;General", ""},
		{`"bytes"('@')`, "@"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, scrubFormat(tc.code), "code %q", tc.code)
	}
}

func TestBytesFormatName(t *testing.T) {
	assert.Equal(t, "bytes", bytesFormatName(`"bytes"('@')`))
	assert.Equal(t, "", bytesFormatName("General"))
	assert.Equal(t, "", bytesFormatName(`"dollars"#,##0`))
}

func roundTrip(t *testing.T, sheets []SheetData, styler Styler) map[string]Sheet {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, sheets, styler))
	workbook, err := ReadFrom(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return workbook
}

func TestRoundTrip(t *testing.T) {
	moment := time.Date(1919, time.August, 10, 11, 45, 14, 0, time.UTC)
	workbook := roundTrip(t, []SheetData{
		{Name: "数据", Cells: []Cell{
			{0, 0, "hello"},
			{0, 1, "  spaced  "},
			{0, 3, true},
			{2, 0, nil},
			{2, 1, 114.514},
			{2, 2, math.NaN()},
			{2, 3, math.Inf(1)},
			{3, 0, []byte("BYTES\x00--in excel!")},
			{3, 1, moment},
		}},
		{Name: "empty"},
	}, nil)

	require.Contains(t, workbook, "数据")
	require.Contains(t, workbook, "empty")
	sheet := workbook["数据"]

	assert.Equal(t, "hello", sheet[Ref{0, 0}])
	assert.Equal(t, "  spaced  ", sheet[Ref{0, 1}])
	assert.Equal(t, true, sheet[Ref{0, 3}])
	assert.Nil(t, sheet[Ref{2, 0}])
	assert.Equal(t, 114.514, sheet[Ref{2, 1}])
	nan, ok := sheet[Ref{2, 2}].(float64)
	require.True(t, ok)
	assert.True(t, math.IsNaN(nan))
	// Infinity is stored as #DIV/0! and reads back as NaN; the two error
	// sentinels collapse on the way in.
	inf, ok := sheet[Ref{2, 3}].(float64)
	require.True(t, ok)
	assert.True(t, math.IsNaN(inf))
	assert.Equal(t, []byte("BYTES\x00--in excel!"), sheet[Ref{3, 0}])
	assert.Equal(t, moment, sheet[Ref{3, 1}])
	assert.Empty(t, workbook["empty"])
}

func TestRoundTripIntegerFormat(t *testing.T) {
	styler := func(style *CellStyle, sheetName string, row, col int, value Value) {
		if col == 1 {
			style.NumberFormat = "0"
		}
	}
	workbook := roundTrip(t, []SheetData{
		{Name: "Sheet1", Cells: []Cell{{0, 0, 42}, {0, 1, 42}}},
	}, styler)
	sheet := workbook["Sheet1"]
	// General-formatted numbers always read back as floats; the digit
	// placeholder in "0" is what turns the second cell into an integer.
	assert.Equal(t, float64(42), sheet[Ref{0, 0}])
	assert.Equal(t, int64(42), sheet[Ref{0, 1}])
}

func TestRoundTripStyles(t *testing.T) {
	styler := func(style *CellStyle, sheetName string, row, col int, value Value) {
		if row == 1 {
			style.Bold = true
			style.Fill = RGB(0xab, 0xcd, 0xef)
			style.Height = 24
		}
		if col == 2 {
			style.Width = 114
			style.SetBorderStyle(BorderThick)
			style.SetBorderColor(RGB(0xe9, 0xe9, 0x81))
		}
	}
	workbook := roundTrip(t, []SheetData{
		{Name: "Sheet1", Cells: []Cell{{0, 0, "a"}, {1, 2, "b"}, {2, 2, "c"}}},
	}, styler)
	sheet := workbook["Sheet1"]
	assert.Equal(t, "a", sheet[Ref{0, 0}])
	assert.Equal(t, "b", sheet[Ref{1, 2}])
	assert.Equal(t, "c", sheet[Ref{2, 2}])
}

func TestWriteRejectsUnorderedCells(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTo(&buf, []SheetData{
		{Name: "Sheet1", Cells: []Cell{{1, 0, "a"}, {0, 0, "b"}}},
	}, nil)
	assert.ErrorIs(t, err, ErrStructure)

	buf.Reset()
	err = WriteTo(&buf, []SheetData{
		{Name: "Sheet1", Cells: []Cell{{0, 1, "a"}, {0, 0, "b"}}},
	}, nil)
	assert.ErrorIs(t, err, ErrStructure)
}

func TestWriteRejectsOutOfRangeCells(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTo(&buf, []SheetData{
		{Name: "Sheet1", Cells: []Cell{{1048576, 0, "a"}}},
	}, nil)
	assert.ErrorIs(t, err, ErrStructure)

	buf.Reset()
	err = WriteTo(&buf, []SheetData{
		{Name: "Sheet1", Cells: []Cell{{0, 16384, "a"}}},
	}, nil)
	assert.ErrorIs(t, err, ErrStructure)
}

func TestWriteRejectsUnsupportedValue(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTo(&buf, []SheetData{
		{Name: "Sheet1", Cells: []Cell{{0, 0, struct{}{}}}},
	}, nil)
	assert.ErrorIs(t, err, ErrStructure)
}
