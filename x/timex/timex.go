package timex

import (
	"context"
	"time"
)

var bootAt = time.Now()

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// UptimeMs returns milliseconds since process start.
func UptimeMs() int64 { return time.Since(bootAt).Milliseconds() }

// Sleep waits for d or until ctx is cancelled. It reports whether the full
// duration elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
