// Package cq converts between CQ codes and the internal entity form.
//
// A message entity arrives as "[CQ:face,id=178]" and is rewritten to
// "\x9dface\x00id=178\x9c". Brackets map to U+009D/U+009C and the comma to
// NUL, obscure control characters that ordinary text never contains, so
// plugin code can manipulate message text without tripping over escapes.
// If the input genuinely contains U+009D or U+009C, all bets are off.
package cq

import (
	"regexp"
	"strings"
)

const (
	// Open and Close delimit an entity in the internal form; Sep separates
	// the name and the key=value arguments.
	Open  = '\u009d'
	Close = '\u009c'
	Sep   = '\x00'
)

// knownEntities lists the argument order Decode normalises known entity
// types to, so that received text can be matched with plain string code.
// Keys are always emitted, empty when absent.
var knownEntities = map[string][]string{
	"face":    {"id"},
	"image":   {"url", "type", "subType"},
	"record":  {"url", "magic"},
	"at":      {"qq"},
	"share":   {"url", "title", "content", "image"},
	"reply":   {"id", "seq"},
	"poke":    {"qq"},
	"forward": {"id"},
	"xml":     {"resid", "data"},
	"json":    {"resid", "data"},
}

var cqCode = regexp.MustCompile(`(?s)\[CQ:(.*?)\]`)

var unescaper = strings.NewReplacer(
	"&#91;", "[",
	"&#93;", "]",
	"&#44;", ",",
	"&amp;", "&",
)

// Decode rewrites the CQ codes in a raw message to the internal form and
// unescapes the ampersand entities.
func Decode(raw string) string {
	return unescaper.Replace(cqCode.ReplaceAllStringFunc(raw, func(m string) string {
		body := m[len("[CQ:") : len(m)-1]
		name, rest, _ := strings.Cut(body, ",")

		// Arguments keep their first position but their last value when a
		// key repeats.
		var order []string
		values := make(map[string]string)
		if rest != "" {
			for _, arg := range strings.Split(rest, ",") {
				k, v, _ := strings.Cut(arg, "=")
				if _, ok := values[k]; !ok {
					order = append(order, k)
				}
				values[k] = v
			}
		}

		parts := []string{name}
		for _, k := range knownEntities[name] {
			parts = append(parts, k+"="+values[k])
			delete(values, k)
		}
		for _, k := range order {
			if v, ok := values[k]; ok {
				parts = append(parts, k+"="+v)
			}
		}
		return string(Open) + strings.Join(parts, string(Sep)) + string(Close)
	}))
}

// Encode is the inverse of Decode: internal entities become CQ codes, commas
// inside them are escaped, and "&", "[", "]" are escaped throughout.
func Encode(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inside := false
	for _, r := range text {
		switch r {
		case Open:
			b.WriteString("[CQ:")
			inside = true
		case Close:
			b.WriteByte(']')
			inside = false
		case Sep:
			b.WriteByte(',')
		case ',':
			if inside {
				b.WriteString("&#44;")
			} else {
				b.WriteByte(',')
			}
		case '&':
			b.WriteString("&amp;")
		case '[':
			b.WriteString("&#91;")
		case ']':
			b.WriteString("&#93;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tag builds an internal-form entity from a name and key/value pairs.
//
//	cq.Tag("face", "id", "178")
func Tag(name string, kv ...string) string {
	var b strings.Builder
	b.WriteRune(Open)
	b.WriteString(name)
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteByte(Sep)
		b.WriteString(kv[i])
		b.WriteByte('=')
		b.WriteString(kv[i+1])
	}
	b.WriteRune(Close)
	return b.String()
}
