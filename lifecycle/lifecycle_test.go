package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/maltyxx/zenject/di"
	"github.com/maltyxx/zenject/observability"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type disposableStub struct {
	mu        sync.Mutex
	destroyed int
	fail      bool
}

func (d *disposableStub) OnDestroy(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed++
	if d.fail {
		return fmt.Errorf("teardown failed")
	}
	return nil
}

func (d *disposableStub) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

func newTestLifecycle(c di.Container) (*AppLifecycle, *[]int) {
	codes := new([]int)
	lc := New(c, WithExitFunc(func(code int) {
		*codes = append(*codes, code)
	}), WithGracefulTimeout(2*time.Second))
	return lc, codes
}

func TestShutdownEventOrdering(t *testing.T) {
	lc, _ := newTestLifecycle(di.NewContainer())
	rec := &recorder{}

	lc.AddEventListener(EventBeforeShutdown, func(ctx context.Context) error {
		rec.add("before")
		return nil
	})
	lc.AddEventListener(EventShutdown, func(ctx context.Context) error {
		rec.add("shutdown")
		return nil
	})
	lc.AddEventListener(EventAfterShutdown, func(ctx context.Context) error {
		rec.add("after")
		return nil
	})

	lc.Shutdown(context.Background(), 0)

	got := rec.list()
	want := []string{"before", "shutdown", "after"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestShutdownIdempotent(t *testing.T) {
	lc, codes := newTestLifecycle(di.NewContainer())
	rec := &recorder{}

	lc.AddEventListener(EventShutdown, func(ctx context.Context) error {
		rec.add("shutdown")
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lc.Shutdown(context.Background(), 0)
		}()
	}
	wg.Wait()

	if len(rec.list()) != 1 {
		t.Errorf("expected exactly one shutdown event, got %d", len(rec.list()))
	}
	if len(*codes) != 1 {
		t.Errorf("expected exactly one exit, got %d", len(*codes))
	}
	if !lc.IsShuttingDown() {
		t.Error("expected IsShuttingDown to report true")
	}
}

func TestShutdownExitCode(t *testing.T) {
	lc, codes := newTestLifecycle(di.NewContainer())
	lc.Shutdown(context.Background(), 3)

	if len(*codes) != 1 || (*codes)[0] != 3 {
		t.Errorf("expected exit code 3, got %v", *codes)
	}
}

func TestFailingListenerDoesNotBlockOthers(t *testing.T) {
	lc, _ := newTestLifecycle(di.NewContainer())
	rec := &recorder{}

	lc.AddEventListener(EventShutdown, func(ctx context.Context) error {
		return fmt.Errorf("listener broke")
	})
	lc.AddEventListener(EventShutdown, func(ctx context.Context) error {
		panic("listener panicked")
	})
	lc.AddEventListener(EventShutdown, func(ctx context.Context) error {
		rec.add("survivor")
		return nil
	})

	lc.Shutdown(context.Background(), 0)

	if len(rec.list()) != 1 {
		t.Error("expected surviving listener to run despite sibling failures")
	}
}

func TestRemoveEventListener(t *testing.T) {
	lc, _ := newTestLifecycle(di.NewContainer())
	rec := &recorder{}

	handle := lc.AddEventListener(EventShutdown, func(ctx context.Context) error {
		rec.add("removed")
		return nil
	})
	lc.RemoveEventListener(EventShutdown, handle)

	lc.Shutdown(context.Background(), 0)

	if len(rec.list()) != 0 {
		t.Error("expected removed listener not to fire")
	}
}

func TestDestroyResolvedInstancesOnly(t *testing.T) {
	c := di.NewContainer()
	resolved := &disposableStub{}
	lazyConstructed := false

	c.RegisterSingleton(di.NewToken("resolved"), func(c di.Container) (any, error) {
		return resolved, nil
	})
	c.RegisterSingleton(di.NewToken("never-resolved"), func(c di.Container) (any, error) {
		lazyConstructed = true
		return &disposableStub{}, nil
	})
	c.Resolve(di.NewToken("resolved"))

	lc, _ := newTestLifecycle(c)
	lc.Shutdown(context.Background(), 0)

	if resolved.count() != 1 {
		t.Errorf("expected resolved instance torn down once, got %d", resolved.count())
	}
	if lazyConstructed {
		t.Error("expected shutdown never to construct unresolved instances")
	}
}

func TestManagedInstancesMergedAndDeduped(t *testing.T) {
	c := di.NewContainer()
	shared := &disposableStub{}
	managedOnly := &disposableStub{}

	c.RegisterInstance(di.NewToken("shared"), shared)

	lc, _ := newTestLifecycle(c)
	lc.Register(shared) // also managed: must still tear down once
	lc.Register(managedOnly)

	lc.Shutdown(context.Background(), 0)

	if shared.count() != 1 {
		t.Errorf("expected deduplicated teardown, got %d", shared.count())
	}
	if managedOnly.count() != 1 {
		t.Errorf("expected managed-only instance torn down, got %d", managedOnly.count())
	}
}

func TestUnregisterRemovesFromTeardown(t *testing.T) {
	lc, _ := newTestLifecycle(di.NewContainer())
	d := &disposableStub{}

	lc.Register(d)
	lc.Unregister(d)
	lc.Shutdown(context.Background(), 0)

	if d.count() != 0 {
		t.Error("expected unregistered instance to be skipped")
	}
}

func TestFailingTeardownDoesNotAbortSiblings(t *testing.T) {
	lc, _ := newTestLifecycle(di.NewContainer())
	failing := &disposableStub{fail: true}
	healthy := &disposableStub{}

	lc.Register(failing)
	lc.Register(healthy)
	lc.Shutdown(context.Background(), 0)

	if healthy.count() != 1 {
		t.Error("expected healthy teardown despite sibling failure")
	}
}

func TestHandlePanicTriggersShutdown(t *testing.T) {
	lc, codes := newTestLifecycle(di.NewContainer())

	func() {
		defer lc.HandlePanic()
		panic("worker fault")
	}()

	if len(*codes) != 1 || (*codes)[0] != 1 {
		t.Errorf("expected non-zero exit after fault, got %v", *codes)
	}
}

func TestShutdownRecordsTeardownOutcomes(t *testing.T) {
	metrics, err := observability.NewMetrics(observability.Meter("lifecycle-test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	lc := New(nil,
		WithExitFunc(func(code int) {}),
		WithGracefulTimeout(2*time.Second),
		WithMetrics(metrics),
	)
	ok := &disposableStub{}
	bad := &disposableStub{fail: true}
	lc.Register(ok)
	lc.Register(bad)

	lc.Shutdown(context.Background(), 0)

	if ok.count() != 1 || bad.count() != 1 {
		t.Errorf("expected both teardown hooks to run, got %d and %d", ok.count(), bad.count())
	}
}
