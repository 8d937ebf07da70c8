// Package bot holds the event pipeline: the plugin contract, the
// conversation-flow engine, the per-plugin dispatcher and the HTTP host.
package bot

import (
	"bytes"
	"fmt"
	"strconv"
)

// FlexInt decodes a JSON number or a quoted number; go-cqhttp emits ids in
// both shapes depending on the endpoint.
type FlexInt int64

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("numeric field: %w", err)
	}
	*n = FlexInt(v)
	return nil
}

// Sender is the event metadata about the message author.
type Sender struct {
	Nickname string `json:"nickname"`
	Card     string `json:"card"`
}

// FileInfo describes an uploaded or offline file.
type FileInfo struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	URL   string `json:"url"`
	ID    string `json:"id"`
	BusID int64  `json:"busid"`
}

// Event is one report from the gateway.
// https://docs.go-cqhttp.org/event/
type Event struct {
	Time        int64     `json:"time"`
	PostType    string    `json:"post_type"`
	MessageType string    `json:"message_type"`
	NoticeType  string    `json:"notice_type"`
	RequestType string    `json:"request_type"`
	SubType     string    `json:"sub_type"`
	MessageID   FlexInt   `json:"message_id"`
	UserID      *FlexInt  `json:"user_id"`
	GroupID     *FlexInt  `json:"group_id"`
	RawMessage  string    `json:"raw_message"`
	Sender      *Sender   `json:"sender"`
	Comment     string    `json:"comment"`
	Flag        string    `json:"flag"`
	File        *FileInfo `json:"file"`
}

// ContextSender extracts the signed conversation id and the sender. The
// conversation is the negated group id when a group is involved, the user
// id otherwise; the sender is 0 when the event carries no user.
func (e *Event) ContextSender() (target, sender int64) {
	if e.UserID != nil {
		sender = int64(*e.UserID)
	}
	target = sender
	if e.GroupID != nil {
		target = -int64(*e.GroupID)
	}
	return target, sender
}
