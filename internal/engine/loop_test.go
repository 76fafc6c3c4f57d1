package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type counter struct {
	N     int
	Trail []string
}

func newLoop(t *testing.T, opts ...Option) *Loop[counter, string] {
	t.Helper()
	l := New[counter, string]("test", counter{}, opts...)
	t.Cleanup(l.Close)
	return l
}

func flush(t *testing.T, l *Loop[counter, string]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, l.Flush(ctx))
}

func appendTrail(s string) func(counter) counter {
	return func(c counter) counter {
		c.Trail = append(append([]string(nil), c.Trail...), s)
		return c
	}
}

func TestStepsRunInOrder(t *testing.T) {
	l := newLoop(t)
	for i := 0; i < 100; i++ {
		l.Post(func() {
			l.Update(func(c counter) counter { c.N++; return c })
		})
	}
	flush(t, l)
	assert.Equal(t, 100, l.State().N)
}

func TestSubscribeReplaysLatest(t *testing.T) {
	l := newLoop(t)
	l.Post(func() { l.Update(func(c counter) counter { c.N = 7; return c }) })
	flush(t, l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := l.Subscribe(ctx)
	select {
	case s := <-ch:
		assert.Equal(t, 7, s.N)
	case <-time.After(waitFor):
		t.Fatal("no replay")
	}
}

func TestEffectsDeliveredOnceInOrder(t *testing.T) {
	l := newLoop(t)
	l.Post(func() {
		l.Emit("a")
		l.Emit("b")
		l.Emit("c")
	})

	var got []string
	for len(got) < 3 {
		select {
		case e := <-l.Effects():
			got = append(got, e)
		case <-time.After(waitFor):
			t.Fatalf("only got %v", got)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)

	select {
	case e := <-l.Effects():
		t.Fatalf("effect %q delivered twice", e)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestLaunchDropsSupersededCompletion(t *testing.T) {
	l := newLoop(t)
	release := make(chan struct{})
	firstCancelled := make(chan struct{})

	l.Post(func() {
		l.Launch("slot", func(ctx context.Context, post func(func())) {
			<-ctx.Done()
			close(firstCancelled)
			<-release
			post(func() { l.Update(appendTrail("first")) })
		})
	})
	flush(t, l)

	var superseded bool
	l.Post(func() {
		superseded = l.Launch("slot", func(ctx context.Context, post func(func())) {
			post(func() { l.Update(appendTrail("second")) })
		})
	})
	flush(t, l)
	assert.True(t, superseded)

	select {
	case <-firstCancelled:
	case <-time.After(waitFor):
		t.Fatal("first launch was not cancelled")
	}
	close(release)

	require.Eventually(t, func() bool {
		_ = l.Flush(context.Background())
		return len(l.State().Trail) == 1
	}, waitFor, time.Millisecond)

	// Give the stale completion a chance to land.
	time.Sleep(20 * time.Millisecond)
	flush(t, l)
	assert.Equal(t, []string{"second"}, l.State().Trail)
}

func TestLaunchFreesSlotWhenDone(t *testing.T) {
	l := newLoop(t)
	l.Post(func() {
		l.Launch("slot", func(ctx context.Context, post func(func())) {
			post(func() { l.Update(appendTrail("done")) })
		})
	})

	require.Eventually(t, func() bool {
		busy := true
		l.Post(func() { busy = l.Busy("slot") })
		_ = l.Flush(context.Background())
		return !busy
	}, waitFor, time.Millisecond)
	assert.Equal(t, []string{"done"}, l.State().Trail)
}

func TestDebounceFiresAfterQuietPeriod(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := newLoop(t, WithClock(clock))

	for _, s := range []string{"p", "pa", "pas"} {
		l.Post(func() {
			l.Debounce("debounce", 350*time.Millisecond, func() { l.Update(appendTrail(s)) })
		})
		flush(t, l)
		clock.Advance(100 * time.Millisecond)
	}
	flush(t, l)
	assert.Empty(t, l.State().Trail, "no quiet period yet")

	clock.Advance(250 * time.Millisecond)
	require.Eventually(t, func() bool {
		_ = l.Flush(context.Background())
		return len(l.State().Trail) == 1
	}, waitFor, time.Millisecond)
	assert.Equal(t, []string{"pas"}, l.State().Trail)
}

func TestCancelStopsDebounce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := newLoop(t, WithClock(clock))

	var cancelled bool
	l.Post(func() {
		l.Debounce("debounce", time.Second, func() { l.Update(appendTrail("fired")) })
	})
	l.Post(func() { cancelled = l.Cancel("debounce") })
	flush(t, l)
	assert.True(t, cancelled)

	clock.Advance(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	flush(t, l)
	assert.Empty(t, l.State().Trail)
}

func TestSerialRunsInSubmissionOrder(t *testing.T) {
	l := newLoop(t)

	var (
		mu  sync.Mutex
		ran []int
	)
	for i := 0; i < 20; i++ {
		l.Serial(func(ctx context.Context, post func(func())) {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
			post(func() { l.Update(func(c counter) counter { c.N++; return c }) })
		})
	}

	require.Eventually(t, func() bool {
		_ = l.Flush(context.Background())
		return l.State().N == 20
	}, waitFor, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, v := range ran {
		assert.Equal(t, i, v)
	}
}

func TestSerialIgnoresSlotCancellation(t *testing.T) {
	l := newLoop(t)
	errs := make(chan error, 1)

	l.Serial(func(ctx context.Context, post func(func())) {
		errs <- ctx.Err()
	})
	l.Post(func() { l.Cancel("anything") })

	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("serial job did not run")
	}
}

func TestCloseCancelsSlotsAndEndsStreams(t *testing.T) {
	l := New[counter, string]("closing", counter{})
	cancelled := make(chan struct{})
	l.Post(func() {
		l.Launch("slot", func(ctx context.Context, post func(func())) {
			<-ctx.Done()
			close(cancelled)
		})
	})
	flush(t, l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := l.Subscribe(ctx)
	<-states

	l.Close()
	l.Close()

	select {
	case <-cancelled:
	case <-time.After(waitFor):
		t.Fatal("slot work not cancelled on Close")
	}
	require.Eventually(t, func() bool {
		_, ok := <-l.Effects()
		return !ok
	}, waitFor, time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := <-states
		return !ok
	}, waitFor, time.Millisecond)

	assert.Error(t, l.Flush(context.Background()))
}
