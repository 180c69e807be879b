package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltyxx/zenject/logger"
)

// HandleSignals wires SIGINT and SIGTERM into Shutdown. It blocks until a
// signal arrives or the context is canceled, then runs the shutdown
// sequence with exit code 0. Call it from the application's main goroutine
// after the module graph is loaded.
func (l *AppLifecycle) HandleSignals(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		l.log.Info("Received shutdown signal", map[string]interface{}{
			logger.FieldSignal: sig.String(),
		})
		l.Shutdown(context.Background(), 0)
	case <-ctx.Done():
		l.log.Info("Context canceled, shutting down")
		l.Shutdown(context.Background(), 0)
	}
}

// HandlePanic recovers a panic on the calling goroutine, logs it, and runs
// the shutdown sequence with a non-zero exit code. Use it as a deferred
// call at the top of goroutines whose faults must still produce an orderly
// teardown:
//
//	defer lc.HandlePanic()
func (l *AppLifecycle) HandlePanic() {
	if r := recover(); r != nil {
		l.log.Error("Unrecovered fault, shutting down", map[string]interface{}{
			logger.FieldError: fmt.Sprintf("%v", r),
		})
		l.Shutdown(context.Background(), 1)
	}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
