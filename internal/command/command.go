// Package command turns free-form chat text into command invocations.
//
// Command names are matched aggressively: the input is Unicode-normalised
// so that "．ＦｏｏBAR" and ".foo_bar" reach the same handler. Arguments
// are parsed leniently from whatever text follows the name, by declared
// parameter type rather than by position alone.
package command

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Prefixes holds the runes that introduce a command attempt.
const Prefixes = ".。!！"

// IsAttempt reports whether text starts with a command prefix.
func IsAttempt(text string) bool {
	for _, r := range text {
		return strings.ContainsRune(Prefixes, r)
	}
	return false
}

// canonicalizer implements the compatibility caseless match of the Unicode
// default case algorithms: NFKD(fold(NFKD(fold(NFD(x))))). Two folds and
// two compatibility passes are needed for squared letters like ㎯; the
// final pass strips combining marks (é → e, が → か).
var canonicalizer = transform.Chain(
	norm.NFD,
	cases.Fold(),
	norm.NFKD,
	cases.Fold(),
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
)

var wordBreaks = regexp.MustCompile(`[\s\p{Z}_]+`)

// Normalize reduces text to its canonical form: trimmed, aggressively
// case-folded and decomposed, marks stripped, and runs of whitespace and
// underscores collapsed to single underscores.
//
//	Normalize("! Ｆｏｏ  BÄR114514 ") == "!_foo_bar114514"
func Normalize(text string) string {
	s, _, err := transform.String(canonicalizer, strings.TrimSpace(text))
	if err != nil {
		s = strings.TrimSpace(text)
	}
	return wordBreaks.ReplaceAllString(s, "_")
}

// Tokenize splits a command attempt into normalised tokens, grouped by
// Unicode general category so that ".roll2d6" yields ["roll" "2" "d" "6"].
// Only the 110 runes after the prefix take part; the rest is arguments at
// best. Non-attempts yield nil.
func Tokenize(text string) []string {
	rs := []rune(text)
	if len(rs) == 0 || !strings.ContainsRune(Prefixes, rs[0]) {
		return nil
	}
	end := min(111, len(rs))
	var tokens []string
	var current []rune
	currentCat := ""
	for _, r := range Normalize(string(rs[1:end])) {
		cat := category(r)
		if cat != currentCat && len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
		currentCat = cat
		current = append(current, r)
	}
	if len(current) > 0 {
		tokens = append(tokens, string(current))
	}
	return tokens
}

// SplitArgs locates the part of the original text following the command
// name, where name is a normalised form matched from Tokenize output.
// Normalisation is monotonic over prefix length, so the cut point is found
// by binary search over the prefixes of the original text.
func SplitArgs(text, name string) string {
	rs := []rune(text)
	hi := min(111, len(rs))
	if hi < 1 {
		return ""
	}
	k := sort.Search(hi-1, func(k int) bool {
		return Normalize(string(rs[1:k+1])) >= name
	})
	return strings.TrimSpace(string(rs[k+1:]))
}

// categoryNames is the sorted list of two-letter general categories,
// for a deterministic lookup order.
var categoryNames = func() []string {
	var names []string
	for name := range unicode.Categories {
		if len(name) == 2 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}()

func category(r rune) string {
	for _, name := range categoryNames {
		if unicode.Is(unicode.Categories[name], r) {
			return name
		}
	}
	return ""
}

// FormatTimespan renders a second count as Chinese day/hour/minute/second
// words, e.g. 93784 → "1 天 2 小时 3 分 4 秒".
func FormatTimespan(seconds int64) string {
	var parts []string
	if seconds >= 86400 {
		parts = append(parts, itoa(seconds/86400), "天")
	}
	seconds %= 86400
	if seconds >= 3600 {
		parts = append(parts, itoa(seconds/3600), "小时")
	}
	seconds %= 3600
	if seconds >= 60 {
		parts = append(parts, itoa(seconds/60), "分")
	}
	seconds %= 60
	parts = append(parts, itoa(seconds), "秒")
	return strings.Join(parts, " ")
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
