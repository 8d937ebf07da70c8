package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDispatch(t *testing.T) func() any {
	return func() any {
		t.Fatal("dispatch must not run while a flow is active")
		return nil
	}
}

func TestFeedPassesThroughPlainResults(t *testing.T) {
	f := NewFlows(24 * time.Hour)
	result := f.Feed(1, 2, "hello", func() any { return "收到" }, func(string) {
		t.Fatal("nothing to prompt")
	})
	assert.Equal(t, "收到", result)
	assert.Zero(t, f.Len())
}

func TestFeedFlowLifecycle(t *testing.T) {
	f := NewFlows(24 * time.Hour)
	var sent []string
	send := func(p string) { sent = append(sent, p) }
	start := FlowFunc(func(turn *Turn) any {
		first, err := turn.Ask("请输入第一个词。")
		if err != nil {
			return err
		}
		second, err := turn.Ask("还差一个词。")
		if err != nil {
			return err
		}
		return first + second
	})

	result := f.Feed(1, 2, ".join", func() any { return start }, send)
	assert.Equal(t, true, result)
	assert.Equal(t, []string{"请输入第一个词。"}, sent)
	assert.Equal(t, 1, f.Len())

	result = f.Feed(1, 2, "木", noDispatch(t), send)
	assert.Equal(t, true, result)
	assert.Equal(t, []string{"请输入第一个词。", "还差一个词。"}, sent)

	result = f.Feed(1, 2, "鼠", noDispatch(t), send)
	assert.Equal(t, "木鼠", result)
	assert.Zero(t, f.Len())
}

func TestFeedKeyedByContextAndSender(t *testing.T) {
	f := NewFlows(24 * time.Hour)
	start := FlowFunc(func(turn *Turn) any {
		reply, err := turn.Ask("说。")
		if err != nil {
			return err
		}
		return reply
	})

	require.Equal(t, true, f.Feed(-10, 2, ".echo", func() any { return start }, func(string) {}))

	// A different sender in the same group does not resume the flow.
	result := f.Feed(-10, 3, "别人", func() any { return nil }, func(string) {})
	assert.Nil(t, result)
	assert.Equal(t, 1, f.Len())

	assert.Equal(t, "自己", f.Feed(-10, 2, "自己", noDispatch(t), func(string) {}))
}

func TestFeedImmediateCompletion(t *testing.T) {
	f := NewFlows(24 * time.Hour)
	start := FlowFunc(func(*Turn) any { return "立即完成" })
	result := f.Feed(1, 2, ".go", func() any { return start }, func(string) {
		t.Fatal("nothing to prompt")
	})
	assert.Equal(t, "立即完成", result)
	assert.Zero(t, f.Len())
}

func TestFeedEmptyPromptSendsNothing(t *testing.T) {
	f := NewFlows(24 * time.Hour)
	start := FlowFunc(func(turn *Turn) any {
		reply, err := turn.Ask("")
		if err != nil {
			return err
		}
		return reply
	})
	result := f.Feed(1, 2, ".quiet", func() any { return start }, func(string) {
		t.Fatal("empty prompt must not be sent")
	})
	assert.Equal(t, true, result)
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, "好", f.Feed(1, 2, "好", noDispatch(t), func(string) {}))
}

func TestEvictionEndsStaleFlows(t *testing.T) {
	f := NewFlows(24 * time.Hour)
	now := time.Now()
	f.now = func() time.Time { return now }

	ended := make(chan error, 1)
	start := FlowFunc(func(turn *Turn) any {
		_, err := turn.Ask("在吗？")
		ended <- err
		return nil
	})
	require.Equal(t, true, f.Feed(1, 2, ".wait", func() any { return start }, func(string) {}))
	require.Equal(t, 1, f.Len())

	// Any later message sweeps out flows idle for more than a day.
	now = now.Add(24*time.Hour + time.Minute)
	assert.Nil(t, f.Feed(3, 4, "无关消息", func() any { return nil }, func(string) {}))
	assert.Zero(t, f.Len())

	select {
	case err := <-ended:
		assert.ErrorIs(t, err, ErrFlowEnded)
	case <-time.After(time.Second):
		t.Fatal("evicted flow did not unwind")
	}
}

func TestPromptRefreshesRetention(t *testing.T) {
	f := NewFlows(24 * time.Hour)
	now := time.Now()
	f.now = func() time.Time { return now }

	start := FlowFunc(func(turn *Turn) any {
		for {
			reply, err := turn.Ask("再来。")
			if err != nil {
				return nil
			}
			if reply == "完" {
				return "好"
			}
		}
	})
	require.Equal(t, true, f.Feed(1, 2, ".loop", func() any { return start }, func(string) {}))

	// Activity 23 hours in keeps the flow alive past the original deadline.
	now = now.Add(23 * time.Hour)
	require.Equal(t, true, f.Feed(1, 2, "继续", noDispatch(t), func(string) {}))
	now = now.Add(23 * time.Hour)
	assert.Equal(t, "好", f.Feed(1, 2, "完", noDispatch(t), func(string) {}))
}
