// Package xlsx reads and writes Excel 2007 (.xlsx) workbooks.
//
// Only the parts of the format the document store needs are implemented:
// part relationships, the shared string pool, the style table (number
// formats plus basic fonts, fills and borders on write) and per-sheet
// sparse cell grids. Formulas, comments and themes are not supported.
//
// Written workbooks are not compressed: on current hardware an uncompressed
// archive is faster to produce, and it compresses better when the whole data
// directory is archived with a stronger algorithm later.
package xlsx

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Value is a cell value. The supported dynamic types are nil (absent),
// bool, int, int64, float64 (NaN and ±Inf included), string, []byte and
// time.Time. On disk, absent, NaN and ±Inf are represented by the error
// sentinels #N/A, #NUM! and #DIV/0! respectively.
type Value = any

// Ref addresses a single cell. Row and Col are zero-based.
type Ref struct {
	Row, Col int
}

// Sheet is a sparse cell grid keyed by cell reference.
type Sheet map[Ref]Value

// Cell pairs a reference with a value for the writer, which consumes cells
// in row-major order.
type Cell struct {
	Row, Col int
	Value    Value
}

// SheetData names one worksheet and its cells in write order.
type SheetData struct {
	Name  string
	Cells []Cell
}

// ErrStructure reports a malformed workbook, cell reference or column name,
// or writer input that violates the required cell ordering.
var ErrStructure = errors.New("malformed workbook structure")

// epoch is day zero of the serial date system: 30 December 1899. Excel
// stores date-times as fractional days since this point, in an unspecified
// calendar time frame; this package reads and writes them as UTC.
var epoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ColumnName converts a zero-based column number to its letter form.
// 0 → "A", 25 → "Z", 26 → "AA", 702 → "AAA".
func ColumnName(n int) string {
	if n < 0 {
		return ""
	}
	var buf [8]byte
	i := len(buf)
	for n >= 0 {
		i--
		buf[i] = byte(n%26) + 'A'
		n = n/26 - 1
	}
	return string(buf[i:])
}

// ColumnNumber converts a letter column name to its zero-based number.
// "A" → 0, "AAA" → 702.
func ColumnNumber(s string) (int, error) {
	if len(s) == 0 || len(s) > 7 {
		return 0, fmt.Errorf("%w: column name %q must be one to seven upper-case letters", ErrStructure, s)
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("%w: column name %q must be one to seven upper-case letters", ErrStructure, s)
		}
		n = n*26 + int(c-'A') + 1
	}
	return n - 1, nil
}

var (
	refA1   = regexp.MustCompile(`^([A-Z]+)([0-9]+)$`)
	refR1C1 = regexp.MustCompile(`^(?i:R([0-9]+)C([0-9]+))$`)
)

// ParseRef decodes a single-cell reference in either A1 or R1C1 form to a
// zero-based Ref. Stored files always use A1, but both forms are accepted.
func ParseRef(address string) (Ref, error) {
	if m := refA1.FindStringSubmatch(upperASCII(address)); m != nil {
		col, err := ColumnNumber(m[1])
		if err != nil {
			return Ref{}, err
		}
		row, err := parseDecimal(m[2])
		if err != nil || row < 1 {
			return Ref{}, fmt.Errorf("%w: cell reference %q", ErrStructure, address)
		}
		return Ref{Row: row - 1, Col: col}, nil
	}
	if m := refR1C1.FindStringSubmatch(address); m != nil {
		row, err1 := parseDecimal(m[1])
		col, err2 := parseDecimal(m[2])
		if err1 != nil || err2 != nil || row < 1 || col < 1 {
			return Ref{}, fmt.Errorf("%w: cell reference %q", ErrStructure, address)
		}
		return Ref{Row: row - 1, Col: col - 1}, nil
	}
	return Ref{}, fmt.Errorf("%w: cell reference %q is neither A1 nor R1C1", ErrStructure, address)
}

func parseDecimal(s string) (int, error) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		n = n*10 + int(s[i]-'0')
		if n > 1<<30 {
			return 0, fmt.Errorf("out of range: %q", s)
		}
	}
	return n, nil
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// pool assigns consecutive indices, starting at base, to distinct values in
// insertion order. Interning an already-known value returns its original
// index. It backs the shared string pool and the style tables.
type pool[K comparable] struct {
	index map[K]int
	keys  []K
	base  int
}

func newPool[K comparable](base int) *pool[K] {
	return &pool[K]{index: make(map[K]int), base: base}
}

// intern returns the index for k, assigning the next free one if unseen.
func (p *pool[K]) intern(k K) int {
	if i, ok := p.index[k]; ok {
		return i
	}
	i := p.base + len(p.keys)
	p.index[k] = i
	p.keys = append(p.keys, k)
	return i
}

// preset records an externally fixed index for k without occupying a slot.
// Used to seed the number-format pool with the builtin format codes.
func (p *pool[K]) preset(k K, index int) {
	if _, ok := p.index[k]; !ok {
		p.index[k] = index
	}
}
