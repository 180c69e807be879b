package lifecycle

import "context"

// Initializable is implemented by components that need setup right after
// construction (e.g., dial a client, warm a cache). The provider registrar
// calls OnInit automatically when the instance is first resolved and awaits
// it before registration completes.
type Initializable interface {
	OnInit(ctx context.Context) error
}

// Disposable is implemented by components that hold resources requiring
// explicit cleanup. The AppLifecycle coordinator calls OnDestroy during
// shutdown for every already-resolved instance that implements it.
type Disposable interface {
	OnDestroy(ctx context.Context) error
}
