// Package clock schedules one-shot reminders. ".clock 300 倒垃圾" replies
// after five minutes; reminders survive restarts in the workbook database.
package clock

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satgo1546/pykinezumiko/internal/bot"
	"github.com/satgo1546/pykinezumiko/internal/command"
	"github.com/satgo1546/pykinezumiko/internal/docstore"
)

// Reminder is one pending alarm.
type Reminder struct {
	docstore.Base
	Due    time.Time
	Title  string
	Target int64
}

type Plugin struct {
	gw     bot.Gateway
	logger *zap.Logger
	table  *docstore.Table[Reminder]
	db     *docstore.Database
	now    func() time.Time
}

func New(gw bot.Gateway, dataDir string, logger *zap.Logger) (*Plugin, error) {
	table := docstore.NewTable[Reminder]("提醒")
	db, err := docstore.Open(filepath.Join(dataDir, "clock.xlsx"), table)
	if err != nil {
		return nil, fmt.Errorf("open reminder database: %w", err)
	}
	return &Plugin{
		gw:     gw,
		logger: logger,
		table:  table,
		db:     db,
		now:    time.Now,
	}, nil
}

func (p *Plugin) Name() string { return "闹钟" }

func (p *Plugin) Databases() []*docstore.Database { return []*docstore.Database{p.db} }

func (p *Plugin) Commands() []bot.Command {
	return []bot.Command{{
		Name: "clock",
		Doc:  ".clock <秒数> <标题>\n设定一次性提醒。秒数写在标题前后都行。",
		Params: []command.Param{
			{Name: "context", Kinds: []command.Kind{command.KindInt}},
			{Name: "seconds", Kinds: []command.Kind{command.KindInt}},
			{Name: "title", Kinds: []command.Kind{command.KindString}},
		},
		Fn: p.schedule,
	}}
}

func (p *Plugin) schedule(_ context.Context, inv *bot.Invocation) any {
	seconds := inv.Args["seconds"].(int64)
	if seconds < 0 {
		return "无法识别到有效时间"
	}
	title := inv.Args["title"].(string)
	due := p.now().Add(time.Duration(seconds) * time.Second)
	p.table.Put(uuid.NewString(), &Reminder{
		Due:    due,
		Title:  title,
		Target: inv.Target,
	})
	return fmt.Sprintf("%s后提醒：%s", command.FormatTimespan(seconds), title)
}

// OnInterval fires the reminders that came due since the last tick.
func (p *Plugin) OnInterval(ctx context.Context) {
	now := p.now()
	type firing struct {
		key      any
		reminder Reminder
	}
	var due []firing
	for key, r := range p.table.All() {
		if !r.Due.After(now) {
			due = append(due, firing{key: key, reminder: *r})
		}
	}
	for _, f := range due {
		p.table.Delete(f.key)
		if err := p.gw.Send(ctx, f.reminder.Target, f.reminder.Title); err != nil {
			p.logger.Warn("reminder undelivered",
				zap.Int64("target", f.reminder.Target),
				zap.String("title", f.reminder.Title),
				zap.Error(err),
			)
		}
	}
}
