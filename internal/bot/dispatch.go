package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satgo1546/pykinezumiko/internal/command"
	"github.com/satgo1546/pykinezumiko/internal/cq"
)

// Dispatcher routes gateway events into one plugin.
type Dispatcher struct {
	plugin   Plugin
	commands map[string]Command
	flows    *Flows
	gw       Gateway
	logger   *zap.Logger
}

func NewDispatcher(p Plugin, flows *Flows, gw Gateway, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		plugin:   p,
		commands: make(map[string]Command),
		flows:    flows,
		gw:       gw,
		logger:   logger.With(zap.String("plugin", p.Name())),
	}
	if c, ok := p.(Commander); ok {
		for _, cmd := range c.Commands() {
			d.commands[command.Normalize(cmd.Name)] = cmd
		}
	}
	return d
}

// Plugin returns the wrapped plugin.
func (d *Dispatcher) Plugin() Plugin { return d.plugin }

// Commands lists the registered commands keyed by normalized name.
func (d *Dispatcher) Commands() map[string]Command { return d.commands }

// HandleEvent routes one event. A true result means the event is consumed
// and later plugins must not see it.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev *Event) (bool, error) {
	if o, ok := d.plugin.(EventObserver); ok {
		return o.OnEvent(ctx, ev), nil
	}
	target, sender := ev.ContextSender()
	switch ev.PostType {
	case "message":
		text := cq.Decode(ev.RawMessage)
		messageID := int64(ev.MessageID)
		result := d.flows.Feed(target, sender, text, func() any {
			return d.dispatchMessage(ctx, target, sender, text, messageID)
		}, func(prompt string) {
			if err := d.gw.Send(ctx, target, prompt); err != nil {
				d.logger.Warn("prompt undelivered", zap.Int64("target", target), zap.Error(err))
			}
		})
		return d.deliver(ctx, target, result)
	case "request":
		h, ok := d.plugin.(AdmissionHandler)
		if !ok {
			return false, nil
		}
		approve := h.OnAdmission(ctx, target, sender, ev.Comment)
		if approve == nil {
			return false, nil
		}
		var err error
		switch ev.RequestType {
		case "friend":
			err = d.gw.SetFriendAddRequest(ctx, ev.Flag, *approve)
		case "group":
			err = d.gw.SetGroupAddRequest(ctx, ev.Flag, ev.SubType, *approve)
		}
		return true, err
	case "meta_event":
		if h, ok := d.plugin.(IntervalHandler); ok {
			h.OnInterval(ctx)
		}
		// Ticks fan out to every plugin.
		return false, nil
	case "notice":
		return d.handleNotice(ctx, ev, target, sender)
	}
	return false, nil
}

func (d *Dispatcher) handleNotice(ctx context.Context, ev *Event, target, sender int64) (bool, error) {
	switch ev.NoticeType {
	case "friend_recall", "group_recall":
		h, ok := d.plugin.(MessageDeletedHandler)
		if !ok {
			return false, nil
		}
		messageID := int64(ev.MessageID)
		text, err := d.gw.GetMessage(ctx, messageID)
		if err != nil {
			return false, fmt.Errorf("fetch recalled message: %w", err)
		}
		return d.deliver(ctx, target, h.OnMessageDeleted(ctx, target, sender, text, messageID))
	case "offline_file":
		h, ok := d.plugin.(FileHandler)
		if !ok || ev.File == nil {
			return false, nil
		}
		return d.deliver(ctx, target, h.OnFile(ctx, target, sender, ev.File.Name, ev.File.Size, ev.File.URL))
	case "group_upload":
		h, ok := d.plugin.(FileHandler)
		if !ok || ev.File == nil {
			return false, nil
		}
		url, err := d.gw.GroupFileURL(ctx, -target, ev.File.ID, ev.File.BusID)
		if err != nil {
			return false, fmt.Errorf("resolve group file: %w", err)
		}
		return d.deliver(ctx, target, h.OnFile(ctx, target, sender, ev.File.Name, ev.File.Size, url))
	}
	return false, nil
}

// dispatchMessage matches the longest command prefix against the registered
// commands, falling back to the plugin's plain message handler.
func (d *Dispatcher) dispatchMessage(ctx context.Context, target, sender int64, text string, messageID int64) any {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := command.Tokenize(text)
	for len(parts) > 0 {
		name := strings.Join(parts, "")
		if cmd, ok := d.commands[name]; ok {
			return d.invoke(ctx, cmd, name, target, sender, text, messageID)
		}
		parts = parts[:len(parts)-1]
	}
	if h, ok := d.plugin.(MessageHandler); ok {
		return h.OnMessage(ctx, target, sender, text, messageID)
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, cmd Command, name string, target, sender int64, text string, messageID int64) any {
	given := map[string]any{
		"context":    target,
		"sender":     sender,
		"text":       text,
		"message_id": messageID,
	}
	args, err := command.Parse(cmd.Params, given, command.SplitArgs(text, name))
	if err != nil {
		var syn *command.SyntaxError
		if errors.As(err, &syn) {
			if syn.Message != "" {
				return syn.Message
			}
			// The first parameter failed outright; show the usage line instead.
			if line, _, _ := strings.Cut(cmd.Doc, "\n"); line != "" {
				return line
			}
			return nil
		}
		return err
	}
	return cmd.Fn(ctx, &Invocation{
		Target:    target,
		Sender:    sender,
		MessageID: messageID,
		Text:      text,
		Args:      args,
	})
}

// deliver applies the handler return protocol.
func (d *Dispatcher) deliver(ctx context.Context, target int64, result any) (bool, error) {
	switch v := result.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case error:
		return true, v
	case string:
		if v == "" {
			return false, nil
		}
		return d.reply(ctx, target, v)
	default:
		return d.reply(ctx, target, fmt.Sprint(v))
	}
}

func (d *Dispatcher) reply(ctx context.Context, target int64, message string) (bool, error) {
	if target == 0 {
		return true, nil
	}
	if err := d.gw.Send(ctx, target, message); err != nil {
		return true, fmt.Errorf("reply: %w", err)
	}
	return true, nil
}
