// Package lifecycle owns DNSSRC's startup and shutdown ordering:
// every listener is bound (by cmd/dnssrc, via an errgroup.Group so a
// bad address fails the whole startup) before Run is ever called, Run
// then drops privileges before letting any listener begin serving,
// and every listener is given a chance to drain before the process
// exits. Grounded on the original_source/src/main.rs ordering:
// register listeners, then check geteuid()==0 and drop privileges,
// then serve, then block until signaled.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/semihalev/zlog/v2"
)

// Listener is anything lifecycle can start and stop together.
type Listener interface {
	Start()
	Shutdown(ctx context.Context)
}

// Run drops privileges to user/group if the process is running as
// root, then starts ln, then blocks until SIGINT/SIGTERM, giving ln
// up to drainTimeout to finish in-flight queries before returning.
// Privileges drop before the first byte is served: ln's listeners
// are already bound by the caller, so dropping first never costs a
// bind that needed root.
func Run(ln Listener, user, group string, drainTimeout time.Duration) error {
	if os.Geteuid() == 0 {
		if err := DropPrivileges(user, group); err != nil {
			return err
		}
	}

	ln.Start()

	zlog.Info("dnssrc: serving")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	zlog.Info("dnssrc: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	ln.Shutdown(ctx)

	return nil
}
