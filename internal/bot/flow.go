package bot

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrFlowEnded is returned from Turn.Ask when the flow was evicted while
// waiting for a reply. Flow functions should return promptly on it.
var ErrFlowEnded = errors.New("conversation flow ended")

// FlowFunc is a multi-turn conversation. Returning one from a handler
// starts it on its own goroutine; it pulls follow-up messages from the same
// context and sender through Turn.Ask. Its return value follows the handler
// protocol.
type FlowFunc func(t *Turn) any

// Turn is the flow's side of the conversation.
type Turn struct {
	ctx     context.Context
	target  int64
	sender  int64
	prompts chan string
	replies chan string
}

func (t *Turn) Context() context.Context { return t.ctx }
func (t *Turn) Target() int64            { return t.target }
func (t *Turn) Sender() int64            { return t.sender }

// Ask sends prompt to the conversation and blocks until the next message
// from the same context and sender arrives. An empty prompt sends nothing
// and does not refresh the flow's retention timestamp.
func (t *Turn) Ask(prompt string) (string, error) {
	select {
	case t.prompts <- prompt:
	case <-t.ctx.Done():
		return "", ErrFlowEnded
	}
	select {
	case reply := <-t.replies:
		return reply, nil
	case <-t.ctx.Done():
		return "", ErrFlowEnded
	}
}

type flow struct {
	turn   *Turn
	done   chan any
	cancel context.CancelFunc
}

func startFlow(target, sender int64, f FlowFunc) *flow {
	ctx, cancel := context.WithCancel(context.Background())
	fl := &flow{
		turn: &Turn{
			ctx:     ctx,
			target:  target,
			sender:  sender,
			prompts: make(chan string),
			replies: make(chan string),
		},
		done:   make(chan any, 1),
		cancel: cancel,
	}
	go func() { fl.done <- f(fl.turn) }()
	return fl
}

// resume hands message to the parked flow (none on the first resume) and
// waits for either the next prompt or completion.
func (fl *flow) resume(message string, first bool) (prompt string, final any, finished bool) {
	if !first {
		select {
		case fl.turn.replies <- message:
		case v := <-fl.done:
			return "", v, true
		}
	}
	select {
	case p := <-fl.turn.prompts:
		return p, nil, false
	case v := <-fl.done:
		return "", v, true
	}
}

type flowEntry struct {
	key  [2]int64
	last time.Time
	f    *flow
}

// Flows tracks the active conversation flows of one plugin, ordered from
// stalest to freshest so eviction only ever inspects the front.
type Flows struct {
	mu        sync.Mutex
	retention time.Duration
	order     *list.List
	index     map[[2]int64]*list.Element
	now       func() time.Time
}

func NewFlows(retention time.Duration) *Flows {
	return &Flows{
		retention: retention,
		order:     list.New(),
		index:     make(map[[2]int64]*list.Element),
		now:       time.Now,
	}
}

// Len reports the number of active flows.
func (f *Flows) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order.Len()
}

// Feed routes one message. When the context and sender have an active flow
// the message resumes it; otherwise dispatch runs, and a FlowFunc result
// starts a new flow. Prompts go out through send; the returned value is
// what the caller should treat as the handler result, with true standing
// for a consumed message whose prompt already went out.
func (f *Flows) Feed(target, sender int64, message string, dispatch func() any, send func(prompt string)) any {
	f.mu.Lock()
	f.evict()
	key := [2]int64{target, sender}
	var fl *flow
	if el, ok := f.index[key]; ok {
		fl = el.Value.(*flowEntry).f
	}
	f.mu.Unlock()

	if fl == nil {
		result := dispatch()
		ff, ok := result.(FlowFunc)
		if !ok {
			return result
		}
		fl = startFlow(target, sender, ff)
		prompt, final, finished := fl.resume("", true)
		if finished {
			return final
		}
		f.mu.Lock()
		if old, ok := f.index[key]; ok {
			// A concurrent message raced us to start a flow; the older one loses.
			old.Value.(*flowEntry).f.cancel()
			f.order.Remove(old)
		}
		f.index[key] = f.order.PushBack(&flowEntry{key: key, last: f.now(), f: fl})
		f.mu.Unlock()
		if prompt != "" {
			send(prompt)
		}
		return true
	}

	prompt, final, finished := fl.resume(message, false)
	if finished {
		f.mu.Lock()
		if el, ok := f.index[key]; ok && el.Value.(*flowEntry).f == fl {
			f.order.Remove(el)
			delete(f.index, key)
		}
		f.mu.Unlock()
		return final
	}
	if prompt != "" {
		f.mu.Lock()
		if el, ok := f.index[key]; ok && el.Value.(*flowEntry).f == fl {
			el.Value.(*flowEntry).last = f.now()
			f.order.MoveToBack(el)
		}
		f.mu.Unlock()
		send(prompt)
	}
	return true
}

// evict cancels flows idle past the retention window. Callers hold f.mu.
func (f *Flows) evict() {
	cutoff := f.now().Add(-f.retention)
	for el := f.order.Front(); el != nil; el = f.order.Front() {
		e := el.Value.(*flowEntry)
		if !e.last.Before(cutoff) {
			break
		}
		e.f.cancel()
		f.order.Remove(el)
		delete(f.index, e.key)
	}
}
