package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "foo_bar114514", "foo_bar114514"},
		{"trim and collapse", "  foo   bar  ", "foo_bar"},
		{"fullwidth and accents", " Ｆｏｏ  BÄR114514 ", "foo_bar114514"},
		{"case folding", "FOO Bar", "foo_bar"},
		{"kana marks stripped", "がぎぐ", "かきく"},
		{"underscore runs", "a__b _ c", "a_b_c"},
		{"empty", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestIsAttempt(t *testing.T) {
	assert.True(t, IsAttempt(".help"))
	assert.True(t, IsAttempt("。help"))
	assert.True(t, IsAttempt("!help"))
	assert.True(t, IsAttempt("！help"))
	assert.False(t, IsAttempt("help"))
	assert.False(t, IsAttempt(""))
	assert.False(t, IsAttempt(" .help"))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"not a command", "hello", nil},
		{"single word", ".help", []string{"help"}},
		{"letters and digits split", ".roll2d6", []string{"roll", "2", "d", "6"}},
		{"fullwidth text", ".ＦｏｏBAR114514", []string{"foobar", "114514"}},
		{"spaces become underscores", ".debug p", []string{"debug", "_", "p"}},
		{"empty after prefix", ".", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tokenize(tc.in))
		})
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name string
		text string
		cmd  string
		want string
	}{
		{"simple tail", ".foo bar", "foo", "bar"},
		{"no tail", ".foo", "foo", ""},
		{"fullwidth name", ".Ｆｏｏ  bar baz", "foo", "bar baz"},
		{"digits in name", ".debug next 3", "debug_next", "3"},
		{"tail keeps inner spacing", ".echo  a  b ", "echo", "a  b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitArgs(tc.text, tc.cmd))
		})
	}
}

func TestParse(t *testing.T) {
	intParam := func(name string) Param { return Param{Name: name, Kinds: []Kind{KindInt}} }
	strParam := func(name string) Param { return Param{Name: name, Kinds: []Kind{KindString}} }

	t.Run("int at the front", func(t *testing.T) {
		args, err := Parse([]Param{intParam("n")}, nil, "42")
		require.NoError(t, err)
		assert.Equal(t, int64(42), args["n"])
	})

	t.Run("int at the end", func(t *testing.T) {
		args, err := Parse([]Param{intParam("n"), strParam("title")}, nil, "读书 114")
		require.NoError(t, err)
		assert.Equal(t, int64(114), args["n"])
		assert.Equal(t, "读书", args["title"])
	})

	t.Run("prefixed integer literals", func(t *testing.T) {
		for in, want := range map[string]int64{
			"0x10":  16,
			"0o17":  15,
			"0b101": 5,
			"-0x1f": -31,
			"010":   10,
		} {
			args, err := Parse([]Param{intParam("n")}, nil, in)
			require.NoError(t, err, "input %q", in)
			assert.Equal(t, want, args["n"], "input %q", in)
		}
	})

	t.Run("floats including hex", func(t *testing.T) {
		p := []Param{{Name: "x", Kinds: []Kind{KindFloat}}}
		for in, want := range map[string]float64{
			"3.5":     3.5,
			".5":      0.5,
			"2.":      2,
			"7":       7,
			"0x1.8p3": 12,
		} {
			args, err := Parse(p, nil, in)
			require.NoError(t, err, "input %q", in)
			assert.Equal(t, want, args["x"], "input %q", in)
		}
	})

	t.Run("last string absorbs leftovers", func(t *testing.T) {
		args, err := Parse([]Param{strParam("title"), intParam("n")}, nil, "买 3 斤 苹果")
		require.NoError(t, err)
		assert.Equal(t, int64(3), args["n"])
		assert.Equal(t, "买 斤 苹果", args["title"])
	})

	t.Run("leftovers without a string parameter fail", func(t *testing.T) {
		_, err := Parse([]Param{intParam("n")}, nil, "3 extra")
		var syn *SyntaxError
		require.ErrorAs(t, err, &syn)
		assert.Contains(t, syn.Message, "extra")
	})

	t.Run("missing first parameter yields empty message", func(t *testing.T) {
		_, err := Parse([]Param{intParam("n")}, nil, "")
		var syn *SyntaxError
		require.ErrorAs(t, err, &syn)
		assert.Empty(t, syn.Message)
	})

	t.Run("missing later parameter is named", func(t *testing.T) {
		_, err := Parse([]Param{strParam("a"), intParam("n")}, nil, "word")
		var syn *SyntaxError
		require.ErrorAs(t, err, &syn)
		assert.Contains(t, syn.Message, "n")
	})

	t.Run("optional parameter may be absent", func(t *testing.T) {
		args, err := Parse([]Param{{Name: "n", Kinds: []Kind{KindInt}, Optional: true}}, nil, "")
		require.NoError(t, err)
		_, present := args["n"]
		assert.False(t, present)
	})

	t.Run("none alternative records nil", func(t *testing.T) {
		args, err := Parse([]Param{{Name: "n", Kinds: []Kind{KindNone, KindInt}}}, nil, "")
		require.NoError(t, err)
		v, present := args["n"]
		assert.True(t, present)
		assert.Nil(t, v)
	})

	t.Run("none alternative overridden by match", func(t *testing.T) {
		args, err := Parse([]Param{{Name: "n", Kinds: []Kind{KindNone, KindInt}}}, nil, "9")
		require.NoError(t, err)
		assert.Equal(t, int64(9), args["n"])
	})

	t.Run("never always fails", func(t *testing.T) {
		_, err := Parse([]Param{{Name: "n", Kinds: []Kind{KindNever}}}, nil, "anything at all")
		var syn *SyntaxError
		require.ErrorAs(t, err, &syn)
	})

	t.Run("given arguments bind directly", func(t *testing.T) {
		args, err := Parse(
			[]Param{{Name: "context", Kinds: []Kind{KindInt}}, intParam("n")},
			map[string]any{"context": int64(-10000)},
			"5",
		)
		require.NoError(t, err)
		assert.Equal(t, int64(-10000), args["context"])
		assert.Equal(t, int64(5), args["n"])
	})
}

func TestFormatTimespan(t *testing.T) {
	assert.Equal(t, "0 秒", FormatTimespan(0))
	assert.Equal(t, "42 秒", FormatTimespan(42))
	assert.Equal(t, "1 分 5 秒", FormatTimespan(65))
	assert.Equal(t, "1 天 2 小时 3 分 4 秒", FormatTimespan(93784))
}
