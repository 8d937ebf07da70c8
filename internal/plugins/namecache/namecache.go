// Package namecache feeds the display-name cache from the metadata that
// rides along on every message, so most name lookups never hit the gateway.
package namecache

import (
	"context"

	"github.com/satgo1546/pykinezumiko/internal/bot"
	"github.com/satgo1546/pykinezumiko/internal/onebot"
)

// Plugin never handles anything; place it first in the pipeline.
type Plugin struct {
	names *onebot.Names
}

func New(names *onebot.Names) *Plugin {
	return &Plugin{names: names}
}

func (p *Plugin) Name() string { return "名片缓存" }

func (p *Plugin) OnEvent(_ context.Context, ev *bot.Event) bool {
	if ev.PostType == "message" && ev.Sender != nil {
		target, sender := ev.ContextSender()
		p.names.Observe(target, sender, ev.Sender.Nickname, ev.Sender.Card)
	}
	return false
}
