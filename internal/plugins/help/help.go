// Package help serves the command index assembled at startup from the
// first doc line of every registered command.
package help

import (
	"context"
	"strings"

	"github.com/satgo1546/pykinezumiko/internal/bot"
	"github.com/satgo1546/pykinezumiko/internal/command"
)

// Index assembles the help text from the first doc line of every command
// the given plugins register.
func Index(header string, plugins ...bot.Plugin) string {
	var b strings.Builder
	b.WriteString(header)
	for _, p := range plugins {
		c, ok := p.(bot.Commander)
		if !ok {
			continue
		}
		for _, cmd := range c.Commands() {
			line, _, _ := strings.Cut(cmd.Doc, "\n")
			if line == "" {
				line = "." + cmd.Name
			}
			b.WriteString("\n‣ ")
			b.WriteString(strings.TrimSpace(line))
		}
	}
	return b.String()
}

type Plugin struct {
	index string
}

func New(index string) *Plugin {
	return &Plugin{index: index}
}

func (p *Plugin) Name() string { return "帮助" }

func (p *Plugin) Commands() []bot.Command {
	return []bot.Command{{
		Name: "help",
		Doc:  ".help\n列出可用的命令。",
		Params: []command.Param{
			// Swallows whatever trails the command so ".help 猜数字" still
			// answers with the index.
			{Name: "query", Kinds: []command.Kind{command.KindString, command.KindNone}},
		},
		Fn: func(context.Context, *bot.Invocation) any { return p.index },
	}}
}
