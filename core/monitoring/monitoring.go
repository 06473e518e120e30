// Package monitoring forwards unexpected errors to an error tracker. Until a
// reporter is installed errors are discarded.
package monitoring

import (
	"sync"
	"time"
)

// Reporter sends errors to an error tracker.
type Reporter interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopReporter struct{}

func (NopReporter) CaptureException(error, map[string]string) {}
func (NopReporter) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Reporter = NopReporter{}
)

// SetReporter installs r globally. A nil reporter restores the no-op one.
func SetReporter(r Reporter) {
	mu.Lock()
	defer mu.Unlock()
	if r == nil {
		r = NopReporter{}
	}
	current = r
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	mu.RLock()
	r := current
	mu.RUnlock()
	r.CaptureException(err, tags)
}

// Flush waits for buffered reports to be sent.
func Flush(timeout time.Duration) {
	mu.RLock()
	r := current
	mu.RUnlock()
	r.Flush(timeout)
}
