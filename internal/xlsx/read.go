package xlsx

import (
	"archive/zip"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strconv"
	"strings"
	"time"
)

// Read opens and decodes the workbook at name.
//
//	workbook, err := xlsx.Read("input.xlsx")
//	cell := workbook["Sheet1"][xlsx.Ref{Row: 8, Col: 4}]
//
// Sheet iteration order is not preserved; callers that care consult the
// sheets in the order they name them.
func Read(name string) (map[string]Sheet, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ReadFrom(f, info.Size())
}

// ReadFrom decodes a workbook from an in-memory or seekable source.
func ReadFrom(r io.ReaderAt, size int64) (map[string]Sheet, error) {
	z, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStructure, err)
	}
	parts := make(map[string]*zip.File, len(z.File))
	for _, f := range z.File {
		parts[f.Name] = f
	}
	decode := func(name string, v any) error {
		f, ok := parts[name]
		if !ok {
			return fmt.Errorf("%w: missing part %q", ErrStructure, name)
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%w: part %q: %v", ErrStructure, name, err)
		}
		defer rc.Close()
		if err := xml.NewDecoder(rc).Decode(v); err != nil {
			return fmt.Errorf("%w: part %q: %v", ErrStructure, name, err)
		}
		return nil
	}

	// Package relationships locate the workbook part. Excel writes targets
	// relative to the part's directory, openpyxl writes them absolute from
	// the package root; both forms occur in the wild.
	var pkgRels xmlRelationships
	if err := decode("_rels/.rels", &pkgRels); err != nil {
		return nil, err
	}
	workbookPart := ""
	for _, rel := range pkgRels.Relationships {
		if strings.HasSuffix(rel.Type, "/officeDocument") {
			workbookPart = strings.TrimPrefix(rel.Target, "/")
		}
	}
	if workbookPart == "" {
		return nil, fmt.Errorf("%w: no officeDocument relationship", ErrStructure)
	}
	workbookDir := path.Dir(workbookPart)

	var workbookRels xmlRelationships
	relsPart := path.Join(workbookDir, "_rels", path.Base(workbookPart)+".rels")
	if err := decode(relsPart, &workbookRels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(workbookRels.Relationships))
	for _, rel := range workbookRels.Relationships {
		if strings.HasPrefix(rel.Target, "/") {
			targets[rel.ID] = strings.TrimPrefix(rel.Target, "/")
		} else {
			targets[rel.ID] = path.Join(workbookDir, rel.Target)
		}
	}

	var wb xmlWorkbook
	if err := decode(workbookPart, &wb); err != nil {
		return nil, err
	}

	var pool []string
	if _, ok := parts[path.Join(workbookDir, "sharedStrings.xml")]; ok {
		var sst xmlSharedStrings
		if err := decode(path.Join(workbookDir, "sharedStrings.xml"), &sst); err != nil {
			return nil, err
		}
		pool = make([]string, len(sst.Items))
		for i, si := range sst.Items {
			pool[i] = si.text()
		}
	}

	styleFormats := []string{"General"}
	if _, ok := parts[path.Join(workbookDir, "styles.xml")]; ok {
		var st xmlStyles
		if err := decode(path.Join(workbookDir, "styles.xml"), &st); err != nil {
			return nil, err
		}
		formats := make(map[int]string, len(builtinNumberFormats)+len(st.NumFmts))
		for id, code := range builtinNumberFormats {
			formats[id] = code
		}
		for _, nf := range st.NumFmts {
			formats[nf.ID] = nf.Code
		}
		if len(st.CellXfs) > 0 {
			styleFormats = make([]string, len(st.CellXfs))
			for i, xf := range st.CellXfs {
				styleFormats[i] = "General"
				if xf.NumFmtID != nil {
					if code, ok := formats[*xf.NumFmtID]; ok {
						styleFormats[i] = code
					}
				}
			}
		}
	}

	workbook := make(map[string]Sheet, len(wb.Sheets))
	for _, sheet := range wb.Sheets {
		part, ok := targets[sheet.RID]
		if !ok {
			return nil, fmt.Errorf("%w: sheet %q references unknown relationship %q", ErrStructure, sheet.Name, sheet.RID)
		}
		var ws xmlWorksheet
		if err := decode(part, &ws); err != nil {
			return nil, err
		}
		cells := make(Sheet)
		for _, row := range ws.Rows {
			for _, c := range row.Cells {
				ref, err := ParseRef(c.R)
				if err != nil {
					return nil, err
				}
				v, err := decodeCell(c, pool, styleFormats)
				if err != nil {
					return nil, fmt.Errorf("sheet %q cell %s: %w", sheet.Name, c.R, err)
				}
				cells[ref] = v
			}
		}
		workbook[sheet.Name] = cells
	}
	return workbook, nil
}

// decodeCell converts a <c> element to its Go value, refining the raw
// primitive through the cell's number format.
func decodeCell(c xmlCell, pool []string, styleFormats []string) (Value, error) {
	raw := ""
	if c.V != nil {
		raw = *c.V
	}

	var value Value
	switch {
	case c.T == "s":
		i, err := strconv.Atoi(raw)
		if err != nil || i < 0 || i >= len(pool) {
			return nil, fmt.Errorf("%w: shared string index %q", ErrStructure, raw)
		}
		value = pool[i]
	case c.T == "b":
		value = raw != "0"
	case c.T == "str" || raw == "":
		// A "str" cell holds a formula result that bypassed the pool.
		// Blank cells, including style-only cells, read as empty strings.
		value = ""
	case c.T == "e":
		if raw == "#N/A" {
			value = nil
		} else {
			value = math.NaN()
		}
	default:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: numeric cell %q", ErrStructure, raw)
		}
		value = f
	}

	format := "General"
	if c.S >= 0 && c.S < len(styleFormats) {
		format = styleFormats[c.S]
	}
	if s, ok := value.(string); ok && bytesFormatName(format) == "bytes" {
		b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: bytes cell %q", ErrStructure, s)
		}
		return b, nil
	}
	codes := scrubFormat(format)
	if f, ok := value.(float64); ok && !math.IsInf(f, 0) && !math.IsNaN(f) &&
		!strings.Contains(codes, ".") && !strings.Contains(raw, ".") &&
		strings.ContainsAny(codes, "0#") && f == math.Trunc(f) {
		return int64(f), nil
	}
	if f, ok := value.(float64); ok && f >= 0 && !math.IsInf(f, 0) &&
		formatDateLetter.MatchString(codes) {
		return serialToTime(f), nil
	}
	return value, nil
}

// serialToTime converts a fractional day count since the epoch, rounded to
// the millisecond so that clean wall-clock values survive the float trip.
func serialToTime(days float64) time.Time {
	ms := math.Round(days * 86400 * 1e3)
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

type xmlRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xmlWorkbook struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

type xmlSharedStrings struct {
	Items []xmlStringItem `xml:"si"`
}

type xmlStringItem struct {
	T    *string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (si xmlStringItem) text() string {
	if si.T != nil {
		return *si.T
	}
	var b strings.Builder
	for _, r := range si.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

type xmlStyles struct {
	NumFmts []struct {
		ID   int    `xml:"numFmtId,attr"`
		Code string `xml:"formatCode,attr"`
	} `xml:"numFmts>numFmt"`
	CellXfs []struct {
		NumFmtID *int `xml:"numFmtId,attr"`
	} `xml:"cellXfs>xf"`
}

type xmlWorksheet struct {
	Rows []struct {
		Cells []xmlCell `xml:"c"`
	} `xml:"sheetData>row"`
}

type xmlCell struct {
	R string  `xml:"r,attr"`
	T string  `xml:"t,attr"`
	S int     `xml:"s,attr"`
	V *string `xml:"v"`
}
