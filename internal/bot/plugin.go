package bot

import (
	"context"

	"github.com/satgo1546/pykinezumiko/internal/command"
	"github.com/satgo1546/pykinezumiko/internal/docstore"
)

// Gateway is the slice of the go-cqhttp API the dispatcher needs.
// *onebot.Client implements it.
type Gateway interface {
	Send(ctx context.Context, target int64, message string) error
	GetMessage(ctx context.Context, messageID int64) (string, error)
	GroupFileURL(ctx context.Context, groupID int64, fileID string, busID int64) (string, error)
	SetFriendAddRequest(ctx context.Context, flag string, approve bool) error
	SetGroupAddRequest(ctx context.Context, flag, subType string, approve bool) error
}

// Plugin is a unit of chatbot behavior. Beyond the marker method, plugins
// opt into events by implementing the optional interfaces below.
//
// Handlers report back through their return value:
//
//   - nil, false or "" means the event was not handled and the next plugin
//     gets a chance;
//   - true means handled without a reply;
//   - a FlowFunc starts a multi-turn conversation flow;
//   - anything else is formatted with fmt.Sprint and sent back to the
//     conversation the event came from.
type Plugin interface {
	Name() string
}

// MessageHandler receives messages no command matched.
type MessageHandler interface {
	OnMessage(ctx context.Context, target, sender int64, text string, messageID int64) any
}

// MessageDeletedHandler receives recalled messages, already fetched back
// from the gateway.
type MessageDeletedHandler interface {
	OnMessageDeleted(ctx context.Context, target, sender int64, text string, messageID int64) any
}

// FileHandler receives offline files and group uploads with a resolved
// download URL.
type FileHandler interface {
	OnFile(ctx context.Context, target, sender int64, name string, size int64, url string) any
}

// AdmissionHandler decides on friend and group-join requests. A nil return
// leaves the request for the next plugin; otherwise the verdict is reported
// to the gateway and the event is handled.
type AdmissionHandler interface {
	OnAdmission(ctx context.Context, target, sender int64, comment string) *bool
}

// IntervalHandler receives periodic ticks, driven by gateway heartbeats or
// the local ticker. Every plugin gets every tick.
type IntervalHandler interface {
	OnInterval(ctx context.Context)
}

// EventObserver replaces the whole routing for a plugin. Returning true
// swallows the event.
type EventObserver interface {
	OnEvent(ctx context.Context, ev *Event) bool
}

// DatabaseProvider exposes the workbook databases the host saves after
// every event that dirtied them.
type DatabaseProvider interface {
	Databases() []*docstore.Database
}

// Commander exposes named commands.
type Commander interface {
	Commands() []Command
}

// Command binds a normalized name to a handler. Doc's first line doubles
// as the usage hint shown when the first parameter fails to parse.
type Command struct {
	Name   string
	Doc    string
	Params []command.Param
	Fn     func(ctx context.Context, inv *Invocation) any
}

// Invocation carries one parsed command call.
type Invocation struct {
	Target    int64
	Sender    int64
	MessageID int64
	Text      string
	Args      command.Args
}
