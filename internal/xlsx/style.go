package xlsx

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an ARGB colour. The zero value is fully transparent black.
type Color struct {
	A, R, G, B uint8
}

// RGB builds an opaque colour.
func RGB(r, g, b uint8) Color {
	return Color{A: 0xff, R: r, G: g, B: b}
}

func (c Color) hex() string {
	return fmt.Sprintf("%02x%02x%02x%02x", c.A, c.R, c.G, c.B)
}

// BorderStyle names one of the edge line styles SpreadsheetML defines.
type BorderStyle string

const (
	BorderNone             BorderStyle = "none"
	BorderThin             BorderStyle = "thin"
	BorderMedium           BorderStyle = "medium"
	BorderDashed           BorderStyle = "dashed"
	BorderDotted           BorderStyle = "dotted"
	BorderThick            BorderStyle = "thick"
	BorderDouble           BorderStyle = "double"
	BorderHair             BorderStyle = "hair"
	BorderMediumDashed     BorderStyle = "mediumDashed"
	BorderDashDot          BorderStyle = "dashDot"
	BorderMediumDashDot    BorderStyle = "mediumDashDot"
	BorderDashDotDot       BorderStyle = "dashDotDot"
	BorderMediumDashDotDot BorderStyle = "mediumDashDotDot"
	BorderSlantDashDot     BorderStyle = "slantDashDot"
)

// CellStyle holds the format of one cell, reset before every styler call.
//
// Width and Height are row and column properties, not cell properties;
// setting them on an ordinary cell has no effect. They live here because the
// styler is also invoked with row -1 (column defaults) and column -1 (row
// defaults), where they are picked up.
type CellStyle struct {
	NumberFormat string

	FontName      string
	FontSize      float64
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Subscript     bool
	Superscript   bool
	Color         Color

	Fill Color

	BorderTopStyle      BorderStyle
	BorderRightStyle    BorderStyle
	BorderBottomStyle   BorderStyle
	BorderLeftStyle     BorderStyle
	BorderDiagonalStyle BorderStyle
	BorderTopColor      Color
	BorderRightColor    Color
	BorderBottomColor   Color
	BorderLeftColor     Color
	BorderDiagonalColor Color
	DiagonalUp          bool
	DiagonalDown        bool

	Width  float64
	Height float64
}

// Reset restores the defaults: General format, 10pt Courier New, black on
// white, no borders, width 8 and height 16.
func (s *CellStyle) Reset() {
	*s = CellStyle{
		NumberFormat: "General",
		FontName:     "Courier New",
		FontSize:     10,
		Color:        RGB(0, 0, 0),
		Fill:         RGB(255, 255, 255),
		Width:        8,
		Height:       16,
	}
	s.SetBorderStyle(BorderNone)
	s.SetBorderColor(RGB(0, 0, 0))
}

// SetBorderStyle sets all five edge styles at once.
func (s *CellStyle) SetBorderStyle(style BorderStyle) {
	s.BorderTopStyle = style
	s.BorderRightStyle = style
	s.BorderBottomStyle = style
	s.BorderLeftStyle = style
	s.BorderDiagonalStyle = style
}

// SetBorderColor sets all five edge colours at once.
func (s *CellStyle) SetBorderColor(c Color) {
	s.BorderTopColor = c
	s.BorderRightColor = c
	s.BorderBottomColor = c
	s.BorderLeftColor = c
	s.BorderDiagonalColor = c
}

func (s *CellStyle) fontSpec() string {
	var b strings.Builder
	b.WriteString(`<font><name val="` + xmlEscape(s.FontName) + `"/><sz val="` + formatFloat(s.FontSize) + `"/>`)
	if s.Bold {
		b.WriteString("<b/>")
	}
	if s.Italic {
		b.WriteString("<i/>")
	}
	if s.Underline {
		b.WriteString("<u/>")
	}
	if s.Strikethrough {
		b.WriteString("<strike/>")
	}
	if s.Subscript {
		b.WriteString(`<vertAlign val="subscript"/>`)
	} else if s.Superscript {
		b.WriteString(`<vertAlign val="superscript"/>`)
	}
	b.WriteString(`<color rgb="` + s.Color.hex() + `"/></font>`)
	return b.String()
}

func (s *CellStyle) fillSpec() string {
	return `<fill><patternFill patternType="solid"><fgColor rgb="` + s.Fill.hex() + `"/></patternFill></fill>`
}

func (s *CellStyle) borderSpec() string {
	var b strings.Builder
	b.WriteString("<border")
	if s.DiagonalUp {
		b.WriteString(` diagonalUp="1"`)
	}
	if s.DiagonalDown {
		b.WriteString(` diagonalDown="1"`)
	}
	b.WriteString(">")
	edge := func(name string, style BorderStyle, c Color) {
		b.WriteString(`<` + name + ` style="` + string(style) + `"><color rgb="` + c.hex() + `"/></` + name + `>`)
	}
	edge("left", s.BorderLeftStyle, s.BorderLeftColor)
	edge("right", s.BorderRightStyle, s.BorderRightColor)
	edge("top", s.BorderTopStyle, s.BorderTopColor)
	edge("bottom", s.BorderBottomStyle, s.BorderBottomColor)
	edge("diagonal", s.BorderDiagonalStyle, s.BorderDiagonalColor)
	b.WriteString("</border>")
	return b.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&#34;",
	"'", "&#39;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
