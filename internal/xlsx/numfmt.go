package xlsx

import (
	"regexp"
	"strings"
)

// builtinNumberFormats maps the format ids Excel reserves to their codes.
// Ids 27..36 and 50..58 are locale-dependent in real Excel; the codes below
// fold the main CJK variants into multi-section codes so that date detection
// still works on files written by localised installations.
var builtinNumberFormats = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `"$"#,##0_);("$"#,##0)`,
	6:  `"$"#,##0_);[Red]("$"#,##0)`,
	7:  `"$"#,##0.00_);("$"#,##0.00)`,
	8:  `"$"#,##0.00_);[Red]("$"#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	27: `[$-404]e/m/d;yyyy"年"m"月";[$-411]ge.m.d;yyyy"年" mm"月" dd"日"`,
	28: `[$-404]e"年"m"月"d"日";m"月"d"日";[$-411]ggge"年"m"月"d"日";mm-dd`,
	29: `[$-404]e"年"m"月"d"日";m"月"d"日";[$-411]ggge"年"m"月"d"日";mm-dd`,
	30: "m/d/yy;m-d-yy;m/d/yy;mm-dd-yy",
	31: `yyyy"年"m"月"d"日";yyyy"年"m"月"d"日";yyyy"年"m"月"d"日";yyyy"년" mm"월" dd"일"`,
	32: `hh"時"mm"分";h"时"mm"分";h"時"mm"分";h"시" mm"분"`,
	33: `hh"時"mm"分"ss"秒";h"时"mm"分"ss"秒";h"時"mm"分"ss"秒";h"시" mm"분" ss"초"`,
	34: `上午/下午hh"時"mm"分";上午/下午h"时"mm"分";yyyy"年"m"月";yyyy-mm-dd`,
	35: `上午/下午hh"時"mm"分"ss"秒";上午/下午h"时"mm"分"ss"秒";m"月"d"日";yyyy-mm-dd`,
	36: `[$-404]e/m/d;yyyy"年"m"月";[$-411]ge.m.d;yyyy"年" mm"月" dd"日"`,
	37: "#,##0_);(#,##0)",
	38: "#,##0_);[Red](#,##0)",
	39: "#,##0.00_);(#,##0.00)",
	40: "#,##0.00_);[Red](#,##0.00)",
	41: `_(* #,##0_);_(* \(#,##0\);_(* "-"_);_(@_)`,
	42: `_("$"* #,##0_);_("$"* \(#,##0\);_("$"* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* \(#,##0.00\);_(* "-"??_);_(@_)`,
	44: `_("$"* #,##0.00_)_("$"* \(#,##0.00\)_("$"* "-"??_)_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
	50: `[$-404]e/m/d;yyyy"年"m"月";[$-411]ge.m.d;yyyy"年" mm"月" dd"日"`,
	51: `[$-404]e"年"m"月"d"日";m"月"d"日";[$-411]ggge"年"m"月"d"日";mm-dd`,
	52: `上午/下午hh"時"mm"分";yyyy"年"m"月";yyyy"年"m"月";yyyy-mm-dd`,
	53: `上午/下午hh"時"mm"分"ss"秒";m"月"d"日";m"月"d"日";yyyy-mm-dd`,
	54: `[$-404]e"年"m"月"d"日";m"月"d"日";[$-411]ggge"年"m"月"d"日";mm-dd`,
	55: `上午/下午hh"時"mm"分";上午/下午h"时"mm"分";yyyy"年"m"月";yyyy-mm-dd`,
	56: `上午/下午hh"時"mm"分"ss"秒";上午/下午h"时"mm"分"ss"秒";m"月"d"日";yyyy-mm-dd`,
	57: `[$-404]e/m/d;yyyy"年"m"月";[$-411]ge.m.d;yyyy"年" mm"月" dd"日"`,
	58: `[$-404]e"年"m"月"d"日";m"月"d"日";[$-411]ggge"年"m"月"d"日";mm-dd`,
	59: "t0",
	60: "t0.00",
	61: "t#,##0",
	62: "t#,##0.00",
	67: "t0%",
	68: "t0.00%",
	69: "t# ?/?",
	70: "t# ??/??",
	71: "ว/ด/ปปปป",
	72: "ว-ดดด-ปป",
	73: "ว-ดดด",
	74: "ดดด-ปป",
	75: "ช:นน",
	76: "ช:นน:ทท",
	77: "ว/ด/ปปปป ช:นน",
	78: "นน:ทท",
	79: "[ช]:นน:ทท",
	80: "นน:ทท.0",
	81: "d/m/bb",
}

// customFormatBase is the first id available to custom number formats; the
// smaller ones are reserved for the builtin table above.
const customFormatBase = 176

var (
	formatSectionPrefix = regexp.MustCompile(`^(\[[^\[\]]+\])+`)
	formatNoise         = regexp.MustCompile(`[\\_].|"[^"]*"|[-+$/():!^&'~{}<>= ]+`)
	formatDateLetter    = regexp.MustCompile(`[ymdhsgebวดปชนท]`)
)

// scrubFormat reduces a number-format code to the characters that decide the
// interpretation of the cell value. Bracketed section prefixes (colours,
// locales, special formats), escapes, quoted literals and punctuation are
// dropped; "General" sections collapse to nothing.
func scrubFormat(code string) string {
	sections := strings.Split(strings.ToLower(code), ";")
	for i, s := range sections {
		sections[i] = formatSectionPrefix.ReplaceAllString(s, "")
	}
	codes := formatNoise.ReplaceAllString(strings.Join(sections, ";"), "")
	for strings.HasSuffix(codes, ";general") {
		codes = strings.TrimSuffix(codes, ";general")
	}
	if codes == "general" {
		codes = ""
	}
	return codes
}

// bytesFormatName extracts the type tag from a format code of the shape
// `"name"('@')`. It returns "" when the code is not tagged.
func bytesFormatName(code string) string {
	if !strings.HasPrefix(code, `"`) {
		return ""
	}
	name, _, found := strings.Cut(strings.TrimPrefix(code, `"`), `"(`)
	if !found {
		return ""
	}
	return name
}
