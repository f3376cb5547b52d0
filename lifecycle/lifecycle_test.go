package lifecycle

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeListener struct {
	mu       sync.Mutex
	started  bool
	shutdown bool
}

func (f *fakeListener) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
}

func (f *fakeListener) Shutdown(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown = true
}

func Test_runDrainsOnSignal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root would trigger a real privilege drop")
	}

	ln := &fakeListener{}

	done := make(chan error, 1)
	go func() {
		done <- Run(ln, "", "", time.Second)
	}()

	time.Sleep(50 * time.Millisecond)

	ln.mu.Lock()
	assert.True(t, ln.started)
	ln.mu.Unlock()

	err := syscall.Kill(os.Getpid(), syscall.SIGINT)
	assert.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after SIGINT")
	}

	ln.mu.Lock()
	assert.True(t, ln.shutdown)
	ln.mu.Unlock()
}
