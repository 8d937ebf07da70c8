package onebot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNameSource counts gateway calls so the tests can assert on caching.
type fakeNameSource struct {
	friends     []Friend
	groupNames  map[int64]string
	memberNames map[[2]int64][2]string // card, nickname
	calls       map[string]int
}

func newFakeNameSource() *fakeNameSource {
	return &fakeNameSource{
		friends:     []Friend{{UserID: 7, Nickname: "seven"}, {UserID: 8, Nickname: "eight"}},
		groupNames:  map[int64]string{1919810: "测试群"},
		memberNames: map[[2]int64][2]string{{1919810, 7}: {"群名片", "seven"}, {1919810, 8}: {"", "eight"}},
		calls:       map[string]int{},
	}
}

func (f *fakeNameSource) FriendList(context.Context) ([]Friend, error) {
	f.calls["friend_list"]++
	return f.friends, nil
}

func (f *fakeNameSource) GroupName(_ context.Context, groupID int64) (string, error) {
	f.calls["group_name"]++
	return f.groupNames[groupID], nil
}

func (f *fakeNameSource) GroupMemberName(_ context.Context, groupID, userID int64) (string, error) {
	f.calls["member_name"]++
	names := f.memberNames[[2]int64{groupID, userID}]
	if names[0] != "" {
		return names[0], nil
	}
	return names[1], nil
}

func TestNameFriendWarmsWholeList(t *testing.T) {
	src := newFakeNameSource()
	names := NewNames(src)

	name, err := names.Name(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "seven", name)
	assert.Equal(t, 1, src.calls["friend_list"])

	// The other friend was cached by the same list fetch.
	name, err = names.Name(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "eight", name)
	assert.Equal(t, 1, src.calls["friend_list"])
}

func TestNameGroup(t *testing.T) {
	src := newFakeNameSource()
	names := NewNames(src)

	for range 2 {
		name, err := names.Name(context.Background(), -1919810)
		require.NoError(t, err)
		assert.Equal(t, "测试群", name)
	}
	assert.Equal(t, 1, src.calls["group_name"])
}

func TestMemberNamePrefersCard(t *testing.T) {
	src := newFakeNameSource()
	names := NewNames(src)

	name, err := names.MemberName(context.Background(), -1919810, 7)
	require.NoError(t, err)
	assert.Equal(t, "群名片", name)

	name, err = names.MemberName(context.Background(), -1919810, 8)
	require.NoError(t, err)
	assert.Equal(t, "eight", name)
	assert.Equal(t, 2, src.calls["member_name"])

	// Friend contexts defer to the plain name lookup.
	name, err = names.MemberName(context.Background(), 7, 7)
	require.NoError(t, err)
	assert.Equal(t, "seven", name)
	assert.Equal(t, 1, src.calls["friend_list"])
}

func TestObserveFillsBothLevels(t *testing.T) {
	src := newFakeNameSource()
	names := NewNames(src)

	names.Observe(-1919810, 9, "nine", "九号名片")

	name, err := names.Name(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "nine", name)

	name, err = names.MemberName(context.Background(), -1919810, 9)
	require.NoError(t, err)
	assert.Equal(t, "九号名片", name)

	name, err = names.MemberName(context.Background(), 9, 9)
	require.NoError(t, err)
	assert.Equal(t, "nine", name)

	// Everything above came from the cache.
	assert.Empty(t, src.calls)
}
