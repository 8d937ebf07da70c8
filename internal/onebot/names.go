package onebot

import (
	"context"
	"sync"
)

// NameSource is the slice of the gateway the name cache pulls from.
// *Client implements it.
type NameSource interface {
	FriendList(ctx context.Context) ([]Friend, error)
	GroupName(ctx context.Context, groupID int64) (string, error)
	GroupMemberName(ctx context.Context, groupID, userID int64) (string, error)
}

// Names caches display names for the lifetime of the process. The gateway
// keeps its own cache behind it, so misses are cheap enough to tolerate and
// invalidation is not worth the trouble.
//
// Two keyings coexist: a conversation (friend or group) has a name, and a
// member seen from a conversation has one too (the group card wins over the
// nickname there).
type Names struct {
	mu        sync.Mutex
	source    NameSource
	byContext map[int64]string
	byMember  map[[2]int64]string
}

// NewNames creates an empty cache backed by source.
func NewNames(source NameSource) *Names {
	return &Names{
		source:    source,
		byContext: make(map[int64]string),
		byMember:  make(map[[2]int64]string),
	}
}

// Name returns the name of a conversation: the friend's nickname for a
// positive target, the group name for a negative one. A friend miss warms
// the cache with the whole friend list in one call.
func (n *Names) Name(ctx context.Context, target int64) (string, error) {
	n.mu.Lock()
	if name, ok := n.byContext[target]; ok {
		n.mu.Unlock()
		return name, nil
	}
	n.mu.Unlock()

	var name string
	if target >= 0 {
		friends, err := n.source.FriendList(ctx)
		if err != nil {
			return "", err
		}
		n.mu.Lock()
		for _, f := range friends {
			n.byContext[f.UserID] = f.Nickname
		}
		name = n.byContext[target]
		n.byContext[target] = name
		n.mu.Unlock()
		return name, nil
	}
	name, err := n.source.GroupName(ctx, -target)
	if err != nil {
		return "", err
	}
	n.mu.Lock()
	n.byContext[target] = name
	n.mu.Unlock()
	return name, nil
}

// MemberName returns the name of sender as seen from target: the group card
// when target is a group and the member set one, the nickname otherwise.
func (n *Names) MemberName(ctx context.Context, target, sender int64) (string, error) {
	key := [2]int64{target, sender}
	n.mu.Lock()
	if name, ok := n.byMember[key]; ok {
		n.mu.Unlock()
		return name, nil
	}
	n.mu.Unlock()

	var name string
	var err error
	if target >= 0 {
		name, err = n.Name(ctx, sender)
	} else {
		name, err = n.source.GroupMemberName(ctx, -target, sender)
	}
	if err != nil {
		return "", err
	}
	n.mu.Lock()
	n.byMember[key] = name
	n.mu.Unlock()
	return name, nil
}

// Observe records names carried by event metadata, saving future gateway
// round trips. An empty card falls back to the nickname.
func (n *Names) Observe(target, sender int64, nickname, card string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.byContext[sender] = nickname
	n.byMember[[2]int64{sender, sender}] = nickname
	if card == "" {
		card = nickname
	}
	n.byMember[[2]int64{target, sender}] = card
}
