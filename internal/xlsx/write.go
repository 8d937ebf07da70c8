package xlsx

import (
	"archive/zip"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Styler programs cell formats. It is called once per populated cell with a
// freshly reset style. It is also called with row -1 for column defaults,
// column -1 for row defaults, and both -1 for the sheet default (sheet name
// "" selects the workbook default).
type Styler func(style *CellStyle, sheetName string, row, col int, value Value)

// Write encodes sheets into the workbook file at name. Cells must arrive in
// strictly increasing row order, and in strictly increasing column order
// within a row.
func Write(name string, sheets []SheetData, styler Styler) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := WriteTo(f, sheets, styler); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTo encodes sheets into w. See Write.
func WriteTo(w io.Writer, sheets []SheetData, styler Styler) error {
	if styler == nil {
		styler = func(*CellStyle, string, int, int, Value) {}
	}
	e := &encoder{
		zip:           zip.NewWriter(w),
		styler:        styler,
		sharedStrings: newPool[string](0),
		numberFormats: newPool[string](customFormatBase),
		fonts:         newPool[string](0),
		// Fill slots 0 and 1 and border slot 0 are reserved by convention;
		// files that reuse them render with garbage patterns in Excel.
		fills:   newPool[string](2),
		borders: newPool[string](1),
		cellXfs: newPool[[4]int](0),
	}
	// Several builtin ids share a code; presetting in ascending id order
	// keeps the emitted files deterministic.
	ids := make([]int, 0, len(builtinNumberFormats))
	for id := range builtinNumberFormats {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		e.numberFormats.preset(builtinNumberFormats[id], id)
	}
	return e.encode(sheets)
}

type encoder struct {
	zip    *zip.Writer
	styler Styler
	style  CellStyle

	sharedStrings *pool[string]
	numberFormats *pool[string]
	fonts         *pool[string]
	fills         *pool[string]
	borders       *pool[string]
	cellXfs       *pool[[4]int]
}

// part adds a stored (uncompressed) zip entry.
func (e *encoder) part(name, content string) error {
	w, err := e.zip.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

// styleIndex resets the working style, applies the value's intrinsic number
// format and the styler, and interns the result into the style pools.
func (e *encoder) styleIndex(sheetName string, row, col int, value Value) (int, error) {
	e.style.Reset()
	format, _, err := e.encodeValue(value)
	if err != nil {
		return 0, err
	}
	if format != "" {
		e.style.NumberFormat = format
	}
	e.styler(&e.style, sheetName, row, col, value)
	return e.cellXfs.intern([4]int{
		e.numberFormats.intern(e.style.NumberFormat),
		e.fonts.intern(e.style.fontSpec()),
		e.fills.intern(e.style.fillSpec()),
		e.borders.intern(e.style.borderSpec()),
	}), nil
}

// encodeValue converts a value to its intrinsic number format ("" when the
// default applies) and the <c> fragment following the style attribute.
// Strings and byte strings are interned into the shared string pool.
func (e *encoder) encodeValue(v Value) (format, frag string, err error) {
	switch x := v.(type) {
	case nil:
		// Blank cells read back as empty strings, so nil needs a distinct
		// representation; #N/A is the natural fit.
		return "", `t="e"><v>#N/A</v>`, nil
	case string:
		return "", `t="s"><v>` + strconv.Itoa(e.sharedStrings.intern(x)) + `</v>`, nil
	case []byte:
		return `"bytes"('@')`, `t="s"><v>` + strconv.Itoa(e.sharedStrings.intern(hexPairs(x))) + `</v>`, nil
	case bool:
		if x {
			return "", `t="b"><v>1</v>`, nil
		}
		return "", `t="b"><v>0</v>`, nil
	case int:
		return "", `><v>` + strconv.Itoa(x) + `</v>`, nil
	case int64:
		return "", `><v>` + strconv.FormatInt(x, 10) + `</v>`, nil
	case float64:
		switch {
		case math.IsNaN(x):
			return "", `t="e"><v>#NUM!</v>`, nil
		case math.IsInf(x, 0):
			return "", `t="e"><v>#DIV/0!</v>`, nil
		}
		return "", `><v>` + formatFloat(x) + `</v>`, nil
	case time.Time:
		days := x.UTC().Sub(epoch).Seconds() / 86400
		return "yyyy-mm-dd hh:mm:ss", `><v>` + formatFloat(days) + `</v>`, nil
	default:
		return "", "", fmt.Errorf("%w: unsupported cell value type %T", ErrStructure, v)
	}
}

func hexPairs(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02X", c)
	}
	return strings.Join(parts, " ")
}

func (e *encoder) encode(sheets []SheetData) error {
	var overrides strings.Builder
	for i := range sheets {
		fmt.Fprintf(&overrides, `<Override PartName="/xl/worksheets/sheet%d.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>`, i+1)
	}
	if err := e.part("[Content_Types].xml", `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
`+overrides.String()+`
<Override PartName="/xl/sharedStrings.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"/>
<Override PartName="/xl/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"/>
</Types>`); err != nil {
		return err
	}

	if err := e.part("_rels/.rels", `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`); err != nil {
		return err
	}

	var sheetList strings.Builder
	for i, sheet := range sheets {
		fmt.Fprintf(&sheetList, `<sheet name="%s" sheetId="%d" r:id="rId%d"/>`, xmlEscape(sheet.Name), i+1, i+1)
	}
	if err := e.part("xl/workbook.xml", `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<workbookPr/>
<sheets>`+sheetList.String()+`</sheets>
<calcPr calcId="114514"/>
</workbook>`); err != nil {
		return err
	}

	// Workbook-level default style occupies cell xf slot 0.
	if _, err := e.styleIndex("", -1, -1, nil); err != nil {
		return err
	}

	for i, sheet := range sheets {
		if err := e.encodeSheet(i+1, sheet); err != nil {
			return err
		}
	}

	var rels strings.Builder
	for i := range sheets {
		fmt.Fprintf(&rels, `<Relationship Target="worksheets/sheet%d.xml" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Id="rId%d"/>`, i+1, i+1)
	}
	fmt.Fprintf(&rels, `<Relationship Target="sharedStrings.xml" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings" Id="rId%d"/>`, len(sheets)+1)
	fmt.Fprintf(&rels, `<Relationship Target="styles.xml" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Id="rId%d"/>`, len(sheets)+2)
	if err := e.part("xl/_rels/workbook.xml.rels", `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
`+rels.String()+`
</Relationships>`); err != nil {
		return err
	}

	// The shared string pool and the style tables go last; every earlier
	// part appends to them.
	var sst strings.Builder
	for _, s := range e.sharedStrings.keys {
		sst.WriteString("<si><t>" + xmlEscape(s) + "</t></si>")
	}
	if err := e.part("xl/sharedStrings.xml", fmt.Sprintf(`<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<sst uniqueCount="%d" count="%d" xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xml:space="preserve">%s</sst>`,
		len(e.sharedStrings.keys), len(e.sharedStrings.keys), sst.String())); err != nil {
		return err
	}

	var numFmts, cellStyleXfs, cellXfs strings.Builder
	for i, code := range e.numberFormats.keys {
		fmt.Fprintf(&numFmts, `<numFmt numFmtId="%d" formatCode="%s"/>`, e.numberFormats.base+i, xmlEscape(code))
	}
	for i, xf := range e.cellXfs.keys {
		fmt.Fprintf(&cellStyleXfs, `<xf numFmtId="%d" fontId="%d" fillId="%d" borderId="%d"/>`, xf[0], xf[1], xf[2], xf[3])
		fmt.Fprintf(&cellXfs, `<xf xfId="%d" numFmtId="%d" fontId="%d" fillId="%d" borderId="%d"/>`, i, xf[0], xf[1], xf[2], xf[3])
	}
	if err := e.part("xl/styles.xml", `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<numFmts>`+numFmts.String()+`</numFmts>
<fonts>`+strings.Join(e.fonts.keys, "")+`</fonts>
<fills>
<fill><patternFill patternType="none"/></fill>
<fill><patternFill patternType="gray125"/></fill>
`+strings.Join(e.fills.keys, "")+`
</fills>
<borders>
<border/>
`+strings.Join(e.borders.keys, "")+`
</borders>
<cellStyleXfs>`+cellStyleXfs.String()+`</cellStyleXfs>
<cellXfs>`+cellXfs.String()+`</cellXfs>
<cellStyles>
<cellStyle name="a" xfId="0" builtinId="0" customBuiltin="1"/>
</cellStyles>
</styleSheet>`); err != nil {
		return err
	}

	return e.zip.Close()
}

func (e *encoder) encodeSheet(id int, sheet SheetData) error {
	defaultStyle, err := e.styleIndex(sheet.Name, -1, -1, nil)
	if err != nil {
		return err
	}
	defaultWidth := e.style.Width
	defaultHeight := e.style.Height

	var body strings.Builder
	body.WriteString("</cols><sheetData>")
	columns := map[int]string{16384: ""}
	oldRow := -1
	for i := 0; i < len(sheet.Cells); {
		row := sheet.Cells[i].Row
		if row <= oldRow {
			return fmt.Errorf("%w: sheet %q rows out of order at row %d", ErrStructure, sheet.Name, row)
		}
		if row >= 1048576 {
			return fmt.Errorf("%w: sheet %q row %d out of range", ErrStructure, sheet.Name, row)
		}
		oldRow = row

		rowStyle, err := e.styleIndex(sheet.Name, row, -1, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(&body, `<row r="%d" s="%d" customFormat="1" ht="%s" customHeight="1">`, row+1, rowStyle, formatFloat(e.style.Height))

		oldCol := -1
		for ; i < len(sheet.Cells) && sheet.Cells[i].Row == row; i++ {
			cell := sheet.Cells[i]
			if cell.Col <= oldCol {
				return fmt.Errorf("%w: sheet %q columns out of order at %s%d", ErrStructure, sheet.Name, ColumnName(cell.Col), row+1)
			}
			if cell.Col >= 16384 {
				return fmt.Errorf("%w: sheet %q column %d out of range", ErrStructure, sheet.Name, cell.Col)
			}
			oldCol = cell.Col
			if _, ok := columns[cell.Col]; !ok {
				colStyle, err := e.styleIndex(sheet.Name, -1, cell.Col, nil)
				if err != nil {
					return err
				}
				columns[cell.Col] = fmt.Sprintf(`<col min="%d" max="%d" style="%d" width="%s" customWidth="1"/>`, cell.Col+1, cell.Col+1, colStyle, formatFloat(e.style.Width))
			}
			cellStyle, err := e.styleIndex(sheet.Name, row, cell.Col, cell.Value)
			if err != nil {
				return err
			}
			_, frag, err := e.encodeValue(cell.Value)
			if err != nil {
				return err
			}
			fmt.Fprintf(&body, `<c r="%s%d" s="%d" %s</c>`, ColumnName(cell.Col), row+1, cellStyle, frag)
		}
		body.WriteString("</row>")
	}
	body.WriteString("</sheetData></worksheet>")

	var head strings.Builder
	fmt.Fprintf(&head, `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheetFormatPr customHeight="1" defaultRowHeight="%s" defaultColWidth="%s"/>
<cols>`, formatFloat(defaultHeight), formatFloat(defaultWidth))
	used := make([]int, 0, len(columns))
	for j := range columns {
		used = append(used, j)
	}
	sort.Ints(used)
	prev := -1
	for _, j := range used {
		if j != prev+1 {
			fmt.Fprintf(&head, `<col min="%d" max="%d" style="%d" width="%s" customWidth="1"/>`, prev+2, j, defaultStyle, formatFloat(defaultWidth))
		}
		head.WriteString(columns[j])
		prev = j
	}

	return e.part(fmt.Sprintf("xl/worksheets/sheet%d.xml", id), head.String()+body.String())
}
