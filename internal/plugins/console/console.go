// Package console logs the internal form of every message that reaches it.
package console

import (
	"context"

	"go.uber.org/zap"
)

type Plugin struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Plugin {
	return &Plugin{logger: logger}
}

func (p *Plugin) Name() string { return "控制台" }

func (p *Plugin) OnMessage(_ context.Context, target, sender int64, text string, messageID int64) any {
	p.logger.Info("message",
		zap.Int64("target", target),
		zap.Int64("sender", sender),
		zap.Int64("message_id", messageID),
		zap.String("text", text),
	)
	return nil
}
