package interrupt_test

// Notes:
// - Tests use black-box approach via interrupt_test package
// - All tests inject dependencies via NewHandlerWithOptions for deterministic behavior
// - Time manipulation: nowFunc is injected to control the abort window calculation
// - Signal synchronization: ctx.Done() used to confirm first signal processed
//
// Thread-safety note:
// - Production code writes to stderr from the listen() goroutine
// - os.Stderr is safe for concurrent writes at OS level
// - bytes.Buffer is NOT thread-safe, so we use syncBuffer in tests

import (
	"bytes"
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alonsovb/sermonkit/internal/interrupt"
)

// syncBuffer is a thread-safe bytes.Buffer for testing.
// Required because the Handler writes to stderr from its listen goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Contains(substr string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Contains(b.buf.Bytes(), []byte(substr))
}

// ---------------------------------------------------------------------------
// TestNewHandler - Default constructor
// ---------------------------------------------------------------------------

func TestNewHandler(t *testing.T) {
	t.Parallel()

	// NewHandler creates a real signal listener, so we just verify it returns
	// valid objects and can be stopped without panic.
	ctx := context.Background()
	h, handlerCtx := interrupt.NewHandler(ctx)

	if h == nil {
		t.Fatal("NewHandler returned nil handler")
	}
	if handlerCtx == nil {
		t.Fatal("NewHandler returned nil context")
	}

	// Context should not be canceled yet
	select {
	case <-handlerCtx.Done():
		t.Fatal("context should not be canceled before any signal")
	default:
		// Expected
	}

	if h.WasInterrupted() {
		t.Error("WasInterrupted should be false before any signal")
	}

	// Stop should not panic
	h.Stop()
}

// ---------------------------------------------------------------------------
// TestHandler_FirstInterrupt - Single signal cancels context
// ---------------------------------------------------------------------------

func TestHandler_FirstInterrupt(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:  sigCh,
		Stderr: &stderr,
	})
	defer h.Stop()

	// Send first signal
	sigCh <- os.Interrupt

	// Wait for context to be canceled (with timeout)
	select {
	case <-ctx.Done():
		// Expected
	case <-time.After(100 * time.Millisecond):
		t.Fatal("context should be canceled after first signal")
	}

	if !h.WasInterrupted() {
		t.Error("WasInterrupted should be true after first signal")
	}

	// Give the listen goroutine time to write the notice
	deadline := time.After(200 * time.Millisecond)
	for !stderr.Contains("Press Ctrl+C again to abort") {
		select {
		case <-deadline:
			t.Fatalf("stderr should contain the interrupt notice, got: %q", stderr.String())
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// ---------------------------------------------------------------------------
// TestHandler_DoubleInterruptWithinWindow - Triggers abort
// ---------------------------------------------------------------------------

func TestHandler_DoubleInterruptWithinWindow(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	var exitCode atomic.Int32
	exitCode.Store(-1) // Sentinel: not called

	// Mock time: first signal at T=0, second at T=1s (within 2s window)
	callCount := 0
	var mu sync.Mutex
	mockNow := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		callCount++
		if callCount == 1 {
			// First call: during first interrupt
			return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		// Subsequent calls: 1 second later (within window)
		return time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)
	}

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		ExitFunc: func(code int) { exitCode.Store(int32(code)) },
		NowFunc:  mockNow,
		Stderr:   &stderr,
	})
	defer h.Stop()

	// Send first signal
	sigCh <- os.Interrupt

	// Wait for context cancellation (confirms first signal processed)
	select {
	case <-ctx.Done():
		// Expected
	case <-time.After(100 * time.Millisecond):
		t.Fatal("context should be canceled after first signal")
	}

	// Send second signal (within window)
	sigCh <- os.Interrupt

	// Wait for exit to be called
	deadline := time.After(100 * time.Millisecond)
	for exitCode.Load() == -1 {
		select {
		case <-deadline:
			t.Fatal("exitFunc should have been called")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	if got := exitCode.Load(); got != 130 {
		t.Errorf("exitFunc called with %d, want 130", got)
	}

	if !stderr.Contains("Aborted.") {
		t.Errorf("stderr should contain 'Aborted.', got: %q", stderr.String())
	}
}

// ---------------------------------------------------------------------------
// TestHandler_DoubleInterruptOutsideWindow - Does NOT trigger abort
// ---------------------------------------------------------------------------

func TestHandler_DoubleInterruptOutsideWindow(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	var exitCalled atomic.Bool

	// Mock time: first signal at T=0, second at T=3s (outside 2s window)
	callCount := 0
	var mu sync.Mutex
	mockNow := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		callCount++
		if callCount == 1 {
			return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		// 3 seconds later - outside the 2s window
		return time.Date(2024, 1, 1, 0, 0, 3, 0, time.UTC)
	}

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		ExitFunc: func(code int) { exitCalled.Store(true) },
		NowFunc:  mockNow,
		Stderr:   &stderr,
	})
	defer h.Stop()

	// Send first signal
	sigCh <- os.Interrupt

	// Wait for context cancellation
	select {
	case <-ctx.Done():
		// Expected
	case <-time.After(100 * time.Millisecond):
		t.Fatal("context should be canceled after first signal")
	}

	// Send second signal (outside window)
	sigCh <- os.Interrupt

	// Give time for processing
	time.Sleep(50 * time.Millisecond)

	if exitCalled.Load() {
		t.Error("exitFunc should NOT be called when second signal is outside window")
	}

	if !h.WasInterrupted() {
		t.Error("WasInterrupted should be true")
	}
}

// ---------------------------------------------------------------------------
// TestHandler_Stop - Prevents further signal processing
// ---------------------------------------------------------------------------

func TestHandler_Stop(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)

	h, _ := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh: sigCh,
	})

	// Stop the handler
	h.Stop()

	// Send signal after stop
	sigCh <- os.Interrupt

	// Give time for potential processing
	time.Sleep(50 * time.Millisecond)

	// WasInterrupted should be false (signal was ignored)
	if h.WasInterrupted() {
		t.Error("WasInterrupted should be false after Stop")
	}

	// Stop again should not panic (idempotent)
	h.Stop()
}

// ---------------------------------------------------------------------------
// TestHandler_NilSigCh - No listener started
// ---------------------------------------------------------------------------

func TestHandler_NilSigCh(t *testing.T) {
	t.Parallel()

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh: nil, // No signal channel
	})
	defer h.Stop()

	if ctx == nil {
		t.Fatal("context should not be nil")
	}

	if h.WasInterrupted() {
		t.Error("WasInterrupted should be false with nil sigCh")
	}

	// Stop should not panic
	h.Stop()
}

// ---------------------------------------------------------------------------
// TestHandler_ChannelClosed - Listener exits gracefully
// ---------------------------------------------------------------------------

func TestHandler_ChannelClosed(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)

	h, _ := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh: sigCh,
	})
	defer h.Stop()

	// Close the channel (simulates cleanup)
	close(sigCh)

	// Give time for listener to notice
	time.Sleep(50 * time.Millisecond)

	if h.WasInterrupted() {
		t.Error("WasInterrupted should be false when channel closed without signal")
	}
}

// ---------------------------------------------------------------------------
// TestHandler_ParentContextCanceled - Handler respects parent
// ---------------------------------------------------------------------------

func TestHandler_ParentContextCanceled(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	parentCtx, parentCancel := context.WithCancel(context.Background())

	h, ctx := interrupt.NewHandlerWithOptions(parentCtx, interrupt.Options{
		SigCh: sigCh,
	})
	defer h.Stop()

	// Cancel parent context
	parentCancel()

	// Handler's context should also be canceled
	select {
	case <-ctx.Done():
		// Expected - parent cancellation propagates
	case <-time.After(100 * time.Millisecond):
		t.Error("handler context should be canceled when parent is canceled")
	}

	// WasInterrupted should still be false (canceled by parent, not signal)
	if h.WasInterrupted() {
		t.Error("WasInterrupted should be false when canceled by parent")
	}
}

// ---------------------------------------------------------------------------
// TestExitInterrupt - Unix exit code convention
// ---------------------------------------------------------------------------

func TestExitInterrupt(t *testing.T) {
	t.Parallel()

	// 130 = 128 + SIGINT is the Unix convention.
	if interrupt.ExitInterrupt != 130 {
		t.Errorf("ExitInterrupt = %d, want 130", interrupt.ExitInterrupt)
	}
}

// ---------------------------------------------------------------------------
// TestHandler_ConcurrentAccess - Thread safety
// ---------------------------------------------------------------------------

func TestHandler_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 10)
	var stderr syncBuffer

	h, _ := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		ExitFunc: func(code int) {}, // Don't exit
		Stderr:   &stderr,
	})
	defer h.Stop()

	var wg sync.WaitGroup
	const goroutines = 10

	// Multiple goroutines calling WasInterrupted
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = h.WasInterrupted()
			}
		}()
	}

	// Send some signals while goroutines are running
	for i := 0; i < 3; i++ {
		sigCh <- os.Interrupt
		time.Sleep(10 * time.Millisecond)
	}

	wg.Wait()
}
