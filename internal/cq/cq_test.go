package cq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"plain text untouched",
			"hello, world",
			"hello, world",
		},
		{
			"simple entity",
			"[CQ:face,id=178]",
			"\u009dface\x00id=178\u009c",
		},
		{
			"known keys reordered and filled",
			"[CQ:image,type=flash,url=http://example.com/a.png]",
			"\u009dimage\x00url=http://example.com/a.png\x00type=flash\x00subType=\u009c",
		},
		{
			"unknown entity keeps argument order",
			"[CQ:custom,b=2,a=1]",
			"\u009dcustom\x00b=2\x00a=1\u009c",
		},
		{
			"duplicate key keeps first position and last value",
			"[CQ:custom,a=1,b=2,a=3]",
			"\u009dcustom\x00a=3\x00b=2\u009c",
		},
		{
			"ampersand entities unescaped",
			"a&#91;b&#93;c&#44;d&amp;e",
			"a[b]c,d&e",
		},
		{
			"entity embedded in text",
			"see [CQ:at,qq=10000] now",
			"see \u009dat\x00qq=10000\u009c now",
		},
		{
			"no arguments",
			"[CQ:shake]",
			"\u009dshake\u009c",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decode(tc.in))
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"plain text untouched",
			"hello world",
			"hello world",
		},
		{
			"entity restored",
			"\u009dface\x00id=178\u009c",
			"[CQ:face,id=178]",
		},
		{
			"brackets and ampersand escaped",
			"a[b]c&d",
			"a&#91;b&#93;c&amp;d",
		},
		{
			"comma escaped only inside entities",
			"1,2 \u009dshare\x00title=a,b\u009c 3,4",
			"1,2 [CQ:share,title=a&#44;b] 3,4",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Encode(tc.in))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	// Escaped commas and ampersands inside an entity survive a full trip.
	in := "[CQ:share,url=http://e/?a=1&amp;b=2,title=x&#44;y,content=,image=]"
	internal := Decode(in)
	assert.Equal(t, "\u009dshare\x00url=http://e/?a=1&b=2\x00title=x,y\x00content=\x00image=\u009c", internal)
	assert.Equal(t, in, Encode(internal))
}

func TestTag(t *testing.T) {
	assert.Equal(t, "\u009dface\x00id=178\u009c", Tag("face", "id", "178"))
	assert.Equal(t, "\u009dshake\u009c", Tag("shake"))
	assert.Equal(t, "[CQ:face,id=178]", Encode(Tag("face", "id", "178")))
}
