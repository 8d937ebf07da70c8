// Package demo shows off the plugin surface: plain replies, multi-send,
// conversation flows and entity round-trips.
package demo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/satgo1546/pykinezumiko/internal/bot"
	"github.com/satgo1546/pykinezumiko/internal/command"
	"github.com/satgo1546/pykinezumiko/internal/cq"
)

var meows = []string{"喵呜～", "喵！", "喵？", "喵～"}

var faceEntity = regexp.MustCompile(`^\x{009d}face\x{0000}id=(\d+)\x{009c}$`)

type Plugin struct {
	gw bot.Gateway
	// randInt returns an integer in [1, 100]; swapped out in tests.
	randInt func() int
}

func New(gw bot.Gateway) *Plugin {
	return &Plugin{
		gw:      gw,
		randInt: func() int { return rand.IntN(100) + 1 },
	}
}

func (p *Plugin) Name() string { return "演示" }

func (p *Plugin) OnMessage(_ context.Context, _, _ int64, text string, _ int64) any {
	switch {
	case text == ".debug p":
		return "你好，世界！"
	case text == ".cat":
		return meows[rand.IntN(len(meows))]
	case !strings.HasPrefix(text, "^") && strings.HasSuffix(text, "^"), text == "More?":
		return "More?"
	}
	return nil
}

func (p *Plugin) Commands() []bot.Command {
	return []bot.Command{
		{
			Name: "debug_m",
			Doc:  ".debug m\n向当前会话连发多条消息。",
			Fn:   p.multiSend,
		},
		{
			Name: "debug_t",
			Doc:  ".debug t\n阻塞 8 秒后回复。",
			Fn:   p.sleepy,
		},
		{
			Name: "猜数字",
			Doc:  ".猜数字\n开始猜数字游戏。",
			Fn: func(context.Context, *bot.Invocation) any {
				return bot.FlowFunc(p.guessNumber)
			},
		},
		{
			Name: "debug_next",
			Doc:  ".debug next <n>\n回显接下来的 n 条消息。",
			Params: []command.Param{
				{Name: "n", Kinds: []command.Kind{command.KindInt}},
			},
			Fn: func(_ context.Context, inv *bot.Invocation) any {
				return p.echoNext(inv.Args["n"].(int64))
			},
		},
		{
			Name: "debug_repr",
			Doc:  ".debug repr\n以带引号的形式回显接下来的一条消息。",
			Fn: func(context.Context, *bot.Invocation) any {
				return bot.FlowFunc(func(turn *bot.Turn) any {
					reply, err := turn.Ask("将以 repr 回显接下来的一条消息。")
					if err != nil {
						return nil
					}
					return strconv.Quote(reply)
				})
			},
		},
		{
			Name: "debug_face",
			Doc:  ".debug face <表情>\n表情与编号互查。",
			Params: []command.Param{
				{Name: "x", Kinds: []command.Kind{command.KindString}},
			},
			Fn: func(_ context.Context, inv *bot.Invocation) any {
				return p.face(inv.Args["x"].(string))
			},
		},
	}
}

func (p *Plugin) multiSend(ctx context.Context, inv *bot.Invocation) any {
	// Handlers are not limited to one reply into one conversation.
	for _, message := range []string{"这是第一条消息。", "这是第二条消息。"} {
		if err := p.gw.Send(ctx, inv.Target, message); err != nil {
			return err
		}
	}
	return true
}

func (p *Plugin) sleepy(ctx context.Context, inv *bot.Invocation) any {
	if err := p.gw.Send(ctx, inv.Target, "8 秒后，将被回调。"); err != nil {
		return err
	}
	// Blocks this event on purpose; other conversations keep running.
	time.Sleep(8 * time.Second)
	return "被回调。"
}

func (p *Plugin) guessNumber(turn *bot.Turn) any {
	x := p.randInt()
	guess, err := turn.Ask("我从 1～100 中随机选了一个整数。猜对了也没有奖励，猜错了也没有惩罚。")
	for err == nil {
		n, atoiErr := strconv.Atoi(strings.TrimSpace(guess))
		if atoiErr != nil {
			return fmt.Sprintf("游戏结束。正确答案是 %d。", x)
		}
		switch {
		case n < x:
			guess, err = turn.Ask("太小了。")
		case n > x:
			guess, err = turn.Ask("太大了。")
		default:
			return "猜对了！"
		}
	}
	return nil
}

func (p *Plugin) echoNext(n int64) any {
	n = max(1, n)
	if n > 9 {
		return "注意，即使重启也无法清除待回显的状态。请再考虑一下。"
	}
	return bot.FlowFunc(func(turn *bot.Turn) any {
		text, err := turn.Ask(fmt.Sprintf("将回显接下来的 %d 条消息。", n))
		for range n - 1 {
			if err != nil {
				return nil
			}
			text, err = turn.Ask(text)
		}
		if err != nil {
			return nil
		}
		return text
	})
}

func (p *Plugin) face(x string) any {
	var id int
	if m := faceEntity.FindStringSubmatch(x); m != nil {
		id, _ = strconv.Atoi(m[1])
	} else {
		var err error
		if id, err = strconv.Atoi(x); err != nil {
			return "既不是表情，也不是编号。"
		}
	}
	return cq.Tag("face", "id", strconv.Itoa(id)) + fmt.Sprintf(" = %d", id)
}
