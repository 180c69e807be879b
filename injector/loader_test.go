package injector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maltyxx/zenject/di"
	"github.com/maltyxx/zenject/errors"
)

type apiService struct {
	key   string
	inits int32
}

func (s *apiService) OnInit(ctx context.Context) error {
	atomic.AddInt32(&s.inits, 1)
	return nil
}

func TestLoadIdempotent(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)
	constructions := 0
	instance := &apiService{}

	m := &Module{
		Name: "core",
		New: func(c di.Container) (any, error) {
			constructions++
			return instance, nil
		},
	}

	if err := l.Load(context.Background(), m); err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	if err := l.Load(context.Background(), m); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if constructions != 1 {
		t.Errorf("expected one module construction, got %d", constructions)
	}
	if atomic.LoadInt32(&instance.inits) != 1 {
		t.Errorf("expected one post-construct hook, got %d", instance.inits)
	}
	if !l.IsLoaded("core") {
		t.Error("expected module to report loaded")
	}
}

func TestExportPropagationSharesSingleton(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)
	svcTok := di.NewToken("shared-service")
	constructions := 0

	sharedProvider := Class{
		Provide: svcTok,
		UseClass: func(c di.Container) (any, error) {
			constructions++
			return &apiService{}, nil
		},
	}
	library := &Module{
		Name:      "library",
		Providers: []Provider{sharedProvider},
		Exports:   []Provider{sharedProvider},
	}
	consumer := &Module{Name: "consumer", Imports: []*Module{library}}

	if err := l.Load(context.Background(), consumer); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	first, _ := c.Resolve(svcTok)
	second, _ := c.Resolve(svcTok)
	if first != second {
		t.Error("expected importer and exporter to share the singleton")
	}
	if constructions != 1 {
		t.Errorf("expected one construction across scopes, got %d", constructions)
	}
}

// The scenario from the runtime's contract: Config exports a value, App
// imports Config and declares a service that depends on it at construction.
func TestConfigAppScenario(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)
	apiKey := di.NewToken("API_KEY")
	svcTok := di.NewToken("Service")

	keyProvider := Value{Provide: apiKey, UseValue: "k1"}
	config := &Module{
		Name:      "config",
		Providers: []Provider{keyProvider},
		Exports:   []Provider{keyProvider},
	}

	var observed string
	app := &Module{
		Name:    "app",
		Imports: []*Module{config},
		Providers: []Provider{
			Component{
				Provide: svcTok,
				New: func(c di.Container) (any, error) {
					key, err := di.Resolve[string](c, apiKey)
					if err != nil {
						return nil, err
					}
					svc := &apiService{key: key}
					observed = key
					return svc, nil
				},
			},
		},
	}

	if err := l.Load(context.Background(), app); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	val, err := c.Resolve(apiKey)
	if err != nil || val != "k1" {
		t.Errorf("expected API_KEY 'k1' from root scope, got %v (%v)", val, err)
	}
	if observed != "k1" {
		t.Errorf("expected service to observe 'k1' at construction, got %q", observed)
	}

	svc := di.MustResolve[*apiService](c, svcTok)
	if atomic.LoadInt32(&svc.inits) != 1 {
		t.Errorf("expected one post-construct hook on the service, got %d", svc.inits)
	}
}

func TestImportCycleFailsFast(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)

	a := &Module{Name: "a"}
	b := &Module{Name: "b", Imports: []*Module{a}}
	a.Imports = []*Module{b}

	err := l.Load(context.Background(), a)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !errors.HasCode(err, errors.ErrCodeModuleCycle) {
		t.Errorf("expected MODULE_CYCLE in chain, got %v", err)
	}
}

func TestDiamondImportLoadsSharedModuleOnce(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)
	var loads int32

	shared := &Module{
		Name: "shared",
		New: func(c di.Container) (any, error) {
			atomic.AddInt32(&loads, 1)
			return &apiService{}, nil
		},
	}
	left := &Module{Name: "left", Imports: []*Module{shared}}
	right := &Module{Name: "right", Imports: []*Module{shared}}
	root := &Module{Name: "root", Imports: []*Module{left, right}}

	if err := l.Load(context.Background(), root); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if atomic.LoadInt32(&loads) != 1 {
		t.Errorf("expected shared module constructed once, got %d", loads)
	}
	if len(l.LoadedModules()) != 4 {
		t.Errorf("expected 4 loaded modules, got %v", l.LoadedModules())
	}
}

func TestLoadedModulesSorted(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)

	l.Load(context.Background(), &Module{Name: "zulu"})
	l.Load(context.Background(), &Module{Name: "alpha"})

	names := l.LoadedModules()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zulu" {
		t.Errorf("expected sorted names, got %v", names)
	}
}

func TestProviderOrderWithinModule(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)
	first := di.NewToken("first")
	second := di.NewToken("second")

	m := &Module{
		Name: "ordered",
		Providers: []Provider{
			Value{Provide: first, UseValue: 1},
			Factory{
				Provide: second,
				Deps:    []di.Token{first},
				UseFactory: func(deps ...any) (any, error) {
					return deps[0].(int) + 1, nil
				},
			},
		},
	}

	if err := l.Load(context.Background(), m); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	val, _ := c.Resolve(second)
	if val != 2 {
		t.Errorf("expected later provider to see earlier one, got %v", val)
	}
}

func TestImportFailurePropagates(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)

	broken := &Module{
		Name: "broken",
		Providers: []Provider{
			Component{
				Provide: di.NewToken("boom"),
				New:     func(c di.Container) (any, error) { return nil, fmt.Errorf("boom") },
			},
		},
	}
	root := &Module{Name: "root2", Imports: []*Module{broken}}

	if err := l.Load(context.Background(), root); err == nil {
		t.Fatal("expected import failure to propagate")
	}
	if l.IsLoaded("root2") || l.IsLoaded("broken") {
		t.Error("expected neither module to be marked loaded")
	}
}

func TestInvalidModuleDescriptor(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)

	if err := l.Load(context.Background(), &Module{}); err == nil {
		t.Error("expected error for empty module name")
	}
	if err := l.Load(context.Background(), nil); err == nil {
		t.Error("expected error for nil module")
	}
}

func TestProcessDynamicAndLoadByName(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)
	tok := di.NewToken("dyn-value")
	constructions := 0

	dynamic := &Module{
		Name:      "dynamic",
		Providers: []Provider{Value{Provide: tok, UseValue: "v"}},
		New: func(c di.Container) (any, error) {
			constructions++
			return &apiService{}, nil
		},
	}

	if err := l.ProcessDynamic(dynamic); err != nil {
		t.Fatalf("ProcessDynamic failed: %v", err)
	}
	if l.IsLoaded("dynamic") {
		t.Error("expected declaration not to load the module")
	}

	if err := l.LoadByName(context.Background(), "dynamic"); err != nil {
		t.Fatalf("LoadByName failed: %v", err)
	}
	if err := l.LoadByName(context.Background(), "dynamic"); err != nil {
		t.Fatalf("second LoadByName failed: %v", err)
	}

	if constructions != 1 {
		t.Errorf("expected one construction, got %d", constructions)
	}
	if val, _ := c.Resolve(tok); val != "v" {
		t.Errorf("expected dynamic provider registered, got %v", val)
	}
}

func TestLoadByNameUndeclared(t *testing.T) {
	l := NewLoader(di.NewContainer())
	if err := l.LoadByName(context.Background(), "ghost"); err == nil {
		t.Error("expected error for undeclared module name")
	}
}

func TestDynamicModuleAsImport(t *testing.T) {
	c := di.NewContainer()
	l := NewLoader(c)
	tok := di.NewToken("dsn")

	databaseModule := func(dsn string) *Module {
		p := Value{Provide: tok, UseValue: dsn}
		return &Module{
			Name:      "database",
			Providers: []Provider{p},
			Exports:   []Provider{p},
		}
	}

	root := &Module{
		Name:    "root3",
		Imports: []*Module{databaseModule("postgres://localhost")},
	}

	if err := l.Load(context.Background(), root); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if val, _ := c.Resolve(tok); val != "postgres://localhost" {
		t.Errorf("expected parameterized provider value, got %v", val)
	}
}

func TestSiblingImportCycleFailsFastUnderConcurrency(t *testing.T) {
	for i := 0; i < 50; i++ {
		c := di.NewContainer()
		l := NewLoader(c)

		a := &Module{Name: "a"}
		b := &Module{Name: "b"}
		a.Imports = []*Module{b}
		b.Imports = []*Module{a}

		start := make(chan struct{})
		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for _, m := range []*Module{a, b} {
			wg.Add(1)
			go func(m *Module) {
				defer wg.Done()
				<-start
				errs <- l.Load(context.Background(), m)
			}(m)
		}
		close(start)

		settled := make(chan struct{})
		go func() {
			wg.Wait()
			close(settled)
		}()
		select {
		case <-settled:
		case <-time.After(5 * time.Second):
			t.Fatal("Load deadlocked on a mutual import split across goroutines")
		}

		close(errs)
		for err := range errs {
			if err == nil {
				t.Fatal("expected both loads of a cyclic graph to fail")
			}
			if !errors.HasCode(err, errors.ErrCodeModuleCycle) {
				t.Fatalf("expected MODULE_CYCLE in chain, got %v", err)
			}
		}
	}
}

func TestConcurrentExportPropagationConstructsOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		c := di.NewContainer()
		l := NewLoader(c)
		svcTok := di.NewToken("exported-service")
		var constructions int32

		exported := Class{
			Provide: svcTok,
			UseClass: func(c di.Container) (any, error) {
				atomic.AddInt32(&constructions, 1)
				return &apiService{}, nil
			},
		}
		shared := &Module{Name: "shared", Exports: []Provider{exported}}
		left := &Module{Name: "left", Imports: []*Module{shared}}
		right := &Module{Name: "right", Imports: []*Module{shared}}

		start := make(chan struct{})
		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for _, m := range []*Module{left, right} {
			wg.Add(1)
			go func(m *Module) {
				defer wg.Done()
				<-start
				errs <- l.Load(context.Background(), m)
			}(m)
		}
		close(start)
		wg.Wait()

		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
		}
		if got := atomic.LoadInt32(&constructions); got != 1 {
			t.Fatalf("expected the propagated export constructed once, got %d", got)
		}
		first, _ := c.Resolve(svcTok)
		second, _ := c.Resolve(svcTok)
		if first != second {
			t.Error("expected both importers to share the singleton")
		}
	}
}
