package plugin

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/maltyxx/zenject/di"
	"github.com/maltyxx/zenject/errors"
	"github.com/maltyxx/zenject/injector"
)

type extComponent struct {
	inits int32
}

func (e *extComponent) OnInit(ctx context.Context) error {
	atomic.AddInt32(&e.inits, 1)
	return nil
}

func newRegistry() (*Registry, di.Container) {
	c := di.NewContainer()
	return NewRegistry(injector.NewLoader(c)), c
}

func TestLoadTwiceRunsHookOnce(t *testing.T) {
	r, _ := newRegistry()
	component := &extComponent{}
	var loaderCalls int32

	err := r.Register("ext", func(ctx context.Context) ([]*injector.Module, error) {
		atomic.AddInt32(&loaderCalls, 1)
		return []*injector.Module{{
			Name: "ext",
			New: func(c di.Container) (any, error) {
				return component, nil
			},
		}}, nil
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := r.Load(context.Background(), "ext"); err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	if err := r.Load(context.Background(), "ext"); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if !r.IsLoaded("ext") {
		t.Error("expected plugin to report loaded")
	}
	if atomic.LoadInt32(&loaderCalls) != 1 {
		t.Errorf("expected one loader invocation, got %d", loaderCalls)
	}
	if atomic.LoadInt32(&component.inits) != 1 {
		t.Errorf("expected one post-construct hook, got %d", component.inits)
	}
}

func TestLoadUnregistered(t *testing.T) {
	r, _ := newRegistry()
	err := r.Load(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error for unregistered plugin")
	}
	if !errors.HasCode(err, errors.ErrCodePluginNotRegistered) {
		t.Errorf("expected PLUGIN_NOT_REGISTERED, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newRegistry()
	fn := func(ctx context.Context) ([]*injector.Module, error) { return nil, nil }

	if err := r.Register("", fn); err == nil {
		t.Error("expected error for empty name")
	}
	if err := r.Register("ext", nil); err == nil {
		t.Error("expected error for nil loader function")
	}
}

func TestRegisterReplacesBeforeLoad(t *testing.T) {
	r, c := newRegistry()
	tok := di.NewToken("which")

	moduleWith := func(value string) LoaderFunc {
		return func(ctx context.Context) ([]*injector.Module, error) {
			return []*injector.Module{{
				Name:      "swap",
				Providers: []injector.Provider{injector.Value{Provide: tok, UseValue: value}},
			}}, nil
		}
	}

	r.Register("swap", moduleWith("old"))
	r.Register("swap", moduleWith("new"))
	if err := r.Load(context.Background(), "swap"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if val, _ := c.Resolve(tok); val != "new" {
		t.Errorf("expected replacement loader to win, got %v", val)
	}

	// Loaded plugins are pinned; replacing them is an error.
	if err := r.Register("swap", moduleWith("late")); err == nil {
		t.Error("expected error re-registering a loaded plugin")
	}
}

func TestLoaderFunctionFailure(t *testing.T) {
	r, _ := newRegistry()
	r.Register("broken", func(ctx context.Context) ([]*injector.Module, error) {
		return nil, fmt.Errorf("fetch failed")
	})

	err := r.Load(context.Background(), "broken")
	if err == nil {
		t.Fatal("expected loader failure to propagate")
	}
	if !errors.HasCode(err, errors.ErrCodePluginLoadFailed) {
		t.Errorf("expected PLUGIN_LOAD_FAILED, got %v", err)
	}
	if r.IsLoaded("broken") {
		t.Error("expected failed plugin not to be marked loaded")
	}
}

func TestLoaderFunctionReturnsNoModules(t *testing.T) {
	r, _ := newRegistry()
	r.Register("empty", func(ctx context.Context) ([]*injector.Module, error) {
		return nil, nil
	})

	if err := r.Load(context.Background(), "empty"); err == nil {
		t.Error("expected error for loader returning no entry module")
	}
}

func TestEnumeration(t *testing.T) {
	r, _ := newRegistry()
	fn := func(name string) LoaderFunc {
		return func(ctx context.Context) ([]*injector.Module, error) {
			return []*injector.Module{{Name: name}}, nil
		}
	}

	r.Register("zeta", fn("zeta"))
	r.Register("alpha", fn("alpha"))
	r.Load(context.Background(), "zeta")

	reg := r.RegisteredPlugins()
	if len(reg) != 2 || reg[0] != "alpha" || reg[1] != "zeta" {
		t.Errorf("expected sorted registered names, got %v", reg)
	}
	loaded := r.LoadedPlugins()
	if len(loaded) != 1 || loaded[0] != "zeta" {
		t.Errorf("expected loaded names [zeta], got %v", loaded)
	}
	if !r.IsRegistered("alpha") || r.IsLoaded("alpha") {
		t.Error("expected alpha registered but not loaded")
	}
}
