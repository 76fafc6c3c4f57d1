// Package engine runs the intent → state/effect loop shared by every screen.
//
// A Loop owns one goroutine. Every state transition runs on it, one step at
// a time, in the order steps were posted, so screen code never locks.
// Asynchronous work runs elsewhere and hands its result back as a step:
//
//	l.Launch("search", func(ctx context.Context, post func(func())) {
//		res := gateway.SearchRecipes(ctx, q)
//		post(func() { l.Update(apply(res)) })
//	})
//
// Work is grouped into named slots. Launching into a slot cancels what was
// there before, and steps posted by the cancelled work are dropped, so a
// superseded completion can never overwrite newer state.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/cevizenes/recipeapp/internal/logging"
	"github.com/cevizenes/recipeapp/internal/pubsub"
)

// Work is a unit of asynchronous work. post schedules fn on the loop
// goroutine; for slot work fn only runs while the slot still belongs to
// the launch that produced it.
type Work func(ctx context.Context, post func(fn func()))

// Option configures a Loop.
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock replaces the wall clock used for debounce timers.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

type task struct {
	gen    uint64
	cancel context.CancelFunc
	timer  clockwork.Timer
}

func (t *task) stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.cancel != nil {
		t.cancel()
	}
}

// Loop is the runtime of one screen engine, holding state S and emitting
// one-shot effects E.
type Loop[S, E any] struct {
	name   string
	log    *log.Logger
	clock  clockwork.Clock
	ctx    context.Context
	cancel context.CancelFunc

	mailbox *pubsub.Queue[func()]
	state   *pubsub.Value[S]
	effects *pubsub.Queue[E]
	serial  *pubsub.Queue[func()]

	// Owned by the loop goroutine.
	slots map[string]*task
	gen   uint64

	done      chan struct{}
	closeOnce sync.Once
}

// New starts a loop named name with the given initial state.
func New[S, E any](name string, initial S, opts ...Option) *Loop[S, E] {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop[S, E]{
		name:    name,
		log:     logging.WithPrefix(name),
		clock:   o.clock,
		ctx:     ctx,
		cancel:  cancel,
		mailbox: pubsub.NewQueue[func()](),
		state:   pubsub.NewValue(initial),
		effects: pubsub.NewQueue[E](),
		serial:  pubsub.NewQueue[func()](),
		slots:   make(map[string]*task),
		done:    make(chan struct{}),
	}
	go l.run()
	go l.runSerial()
	return l
}

func (l *Loop[S, E]) run() {
	defer close(l.done)
	for step := range l.mailbox.Out() {
		step()
	}
}

func (l *Loop[S, E]) runSerial() {
	for job := range l.serial.Out() {
		job()
	}
}

// Logger returns the loop's prefixed logger.
func (l *Loop[S, E]) Logger() *log.Logger {
	return l.log
}

// Clock returns the clock used for timers.
func (l *Loop[S, E]) Clock() clockwork.Clock {
	return l.clock
}

// Post enqueues fn to run on the loop goroutine. It never blocks.
// Steps posted after Close are discarded.
func (l *Loop[S, E]) Post(fn func()) {
	l.mailbox.Push(fn)
}

// State returns the latest state snapshot.
func (l *Loop[S, E]) State() S {
	return l.state.Load()
}

// Subscribe yields the latest state, then every later snapshot.
func (l *Loop[S, E]) Subscribe(ctx context.Context) <-chan S {
	return l.state.Subscribe(ctx)
}

// Update replaces the state with fn(current). Loop goroutine only.
func (l *Loop[S, E]) Update(fn func(S) S) {
	l.state.Update(fn)
}

// Emit queues a one-shot effect.
func (l *Loop[S, E]) Emit(e E) {
	l.effects.Push(e)
}

// Effects delivers every emitted effect exactly once, in emission order,
// to whichever receiver takes it. It closes after Close.
func (l *Loop[S, E]) Effects() <-chan E {
	return l.effects.Out()
}

// Launch cancels whatever occupies slot and runs work on its own goroutine.
// It reports whether something was superseded. Loop goroutine only.
func (l *Loop[S, E]) Launch(slot string, work Work) bool {
	superseded := l.Cancel(slot)

	t := l.claim(slot)
	ctx, cancel := context.WithCancel(l.ctx)
	t.cancel = cancel
	post := l.guard(slot, t.gen)

	go func() {
		defer cancel()
		work(ctx, post)
		post(func() { delete(l.slots, slot) })
	}()
	return superseded
}

// Debounce cancels whatever occupies slot and runs fn on the loop after d
// of quiet. It reports whether something was superseded. Loop goroutine only.
func (l *Loop[S, E]) Debounce(slot string, d time.Duration, fn func()) bool {
	superseded := l.Cancel(slot)

	t := l.claim(slot)
	post := l.guard(slot, t.gen)
	t.timer = l.clock.AfterFunc(d, func() {
		post(func() {
			delete(l.slots, slot)
			fn()
		})
	})
	return superseded
}

// Cancel stops the timer or work in slot. It reports whether the slot was
// occupied. Loop goroutine only.
func (l *Loop[S, E]) Cancel(slot string) bool {
	t, ok := l.slots[slot]
	if !ok {
		return false
	}
	delete(l.slots, slot)
	t.stop()
	l.log.Debug("cancelled", "slot", slot, "gen", t.gen)
	return true
}

// Busy reports whether slot holds a pending timer or running work.
// Loop goroutine only.
func (l *Loop[S, E]) Busy(slot string) bool {
	_, ok := l.slots[slot]
	return ok
}

// Serial runs work on the loop's FIFO writer. Jobs never overlap, run in
// submission order and are not cancelled by Launch or Cancel. Steps posted
// by serial work always run.
func (l *Loop[S, E]) Serial(work Work) {
	ctx := context.WithoutCancel(l.ctx)
	l.serial.Push(func() { work(ctx, l.Post) })
}

// Flush blocks until every step posted before the call has run.
func (l *Loop[S, E]) Flush(ctx context.Context) error {
	reached := make(chan struct{})
	if !l.mailbox.Push(func() { close(reached) }) {
		return context.Canceled
	}
	select {
	case <-reached:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels every slot, drops queued steps and serial jobs that have
// not started, and ends the state and effect streams. It must not be
// called from the loop goroutine.
func (l *Loop[S, E]) Close() {
	l.closeOnce.Do(func() {
		l.cancel()
		l.mailbox.Close()
		<-l.done
		l.serial.Close()
		l.effects.Close()
		l.state.Close()
	})
}

func (l *Loop[S, E]) claim(slot string) *task {
	l.gen++
	t := &task{gen: l.gen}
	l.slots[slot] = t
	return t
}

func (l *Loop[S, E]) guard(slot string, gen uint64) func(func()) {
	return func(fn func()) {
		l.Post(func() {
			if t, ok := l.slots[slot]; !ok || t.gen != gen {
				l.log.Debug("dropped stale step", "slot", slot, "gen", gen)
				return
			}
			fn()
		})
	}
}
