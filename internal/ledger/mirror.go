package ledger

import (
	"context"
	"log"
	"time"
)

// RunMirror snapshots dirty state to the blob store every interval until ctx
// is cancelled, then performs a final flush. Running it on a single goroutine
// keeps at most one snapshot in flight; business operations never wait on it.
func (e *Engine) RunMirror(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := e.Snapshot(flushCtx); err != nil {
				log.Printf("[ledger] WARN: final snapshot failed: %v", err)
			}
			cancel()
			return
		case <-ticker.C:
			if err := e.Snapshot(ctx); err != nil {
				log.Printf("[ledger] WARN: snapshot failed: %v", err)
			}
		}
	}
}
