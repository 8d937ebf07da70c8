package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind selects how one parameter alternative is matched.
type Kind int

const (
	// KindNever never matches. A command whose only parameter is KindNever
	// always fails with its help text, which is how help-only commands are
	// built.
	KindNever Kind = iota
	// KindNone matches nothing but records a nil default and makes the
	// parameter optional; used as the tail alternative of optional types.
	KindNone
	KindInt
	KindFloat
	// KindString takes one whitespace-delimited word. Leftover text at the
	// end of parsing is appended to the last string parameter, so only a
	// final string parameter can absorb spaces.
	KindString
)

// Param describes one parameter: its name, the alternatives tried in
// order, and whether it may be absent.
type Param struct {
	Name     string
	Kinds    []Kind
	Optional bool
}

// Args carries the parsed values: int64, float64, string or nil.
type Args map[string]any

// SyntaxError reports text that does not parse against the declared
// parameters. An empty Message means no parameter matched at all; the
// dispatcher substitutes the command's help text then.
type SyntaxError struct {
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Message == "" {
		return "command syntax error"
	}
	return e.Message
}

// Numbers are accepted at either end of the remaining text, so "114读书"
// and "读书114" both hand 114 to an int parameter. Prefixed forms come
// before plain digits so that "0x10" is not consumed as "0".
var (
	intPrefix   = regexp.MustCompile(`(?i)^[+-]?(0x[0-9a-f]+|0o[0-7]+|0b[01]+|\d+)`)
	intSuffix   = regexp.MustCompile(`(?i)[+-]?(0x[0-9a-f]+|0o[0-7]+|0b[01]+|\d+)$`)
	floatPrefix = regexp.MustCompile(`(?i)^[+-]?(0x[0-9a-f]*\.[0-9a-f]*p\d+|\d*\.\d*|\d+)`)
	floatSuffix = regexp.MustCompile(`(?i)[+-]?(0x[0-9a-f]*\.[0-9a-f]*p\d+|\d*\.\d*|\d+)$`)
	firstWord   = regexp.MustCompile(`^\S+`)
)

// Parse extracts arguments for params from text. Ambient values in given
// bind their parameters directly without consuming any text.
func Parse(params []Param, given map[string]any, text string) (Args, error) {
	args := make(Args)
	firstParameter := true
	lastString := ""
	for _, p := range params {
		if v, ok := given[p.Name]; ok {
			args[p.Name] = v
			continue
		}
		text = strings.TrimSpace(text)

		matched := false
		optional := p.Optional
		for _, kind := range p.Kinds {
			switch kind {
			case KindNever:
				// no match, ever
			case KindNone:
				args[p.Name] = nil
				optional = true
			case KindInt:
				if loc, v, ok := matchInt(text); ok {
					args[p.Name] = v
					text = text[:loc[0]] + text[loc[1]:]
					matched = true
				}
			case KindFloat:
				if loc, v, ok := matchFloat(text); ok {
					args[p.Name] = v
					text = text[:loc[0]] + text[loc[1]:]
					matched = true
				}
			case KindString:
				lastString = p.Name
				if m := firstWord.FindString(text); m != "" {
					args[p.Name] = m
					text = text[len(m):]
					matched = true
				}
			}
			if matched {
				firstParameter = false
				break
			}
		}
		if !matched && !optional {
			if firstParameter {
				return nil, &SyntaxError{}
			}
			return nil, &SyntaxError{Message: fmt.Sprintf("解析命令时找不到参数 %s。", p.Name)}
		}
	}

	if strings.TrimSpace(text) != "" {
		if s, ok := args[lastString].(string); lastString != "" && ok {
			args[lastString] = s + text
		} else {
			return nil, &SyntaxError{Message: fmt.Sprintf("残留未成功解析的参数“%s”。", text)}
		}
	}
	return args, nil
}

func matchInt(text string) ([]int, int64, bool) {
	for _, re := range []*regexp.Regexp{intPrefix, intSuffix} {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		s := text[loc[0]:loc[1]]
		base := 10
		digits := strings.TrimLeft(s, "+-")
		if len(digits) > 1 && digits[0] == '0' && strings.ContainsRune("xXoObB", rune(digits[1])) {
			// ParseInt's base 0 handles the 0x/0o/0b prefixes; plain
			// numbers stay base 10 so that "010" does not read as octal.
			base = 0
		}
		v, err := strconv.ParseInt(s, base, 64)
		if err != nil {
			continue
		}
		return loc, v, true
	}
	return nil, 0, false
}

func matchFloat(text string) ([]int, float64, bool) {
	for _, re := range []*regexp.Regexp{floatPrefix, floatSuffix} {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		// A bare "." or sign satisfies the pattern but not the parser;
		// that is a non-match, not an error.
		v, err := strconv.ParseFloat(text[loc[0]:loc[1]], 64)
		if err != nil {
			continue
		}
		return loc, v, true
	}
	return nil, 0, false
}
