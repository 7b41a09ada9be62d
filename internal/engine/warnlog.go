package engine

import (
	"log"
	"sync"
)

// warnOnce logs a message at most once per key for the lifetime of the
// warnOnce value, via the standard log package. Each Monte Carlo run
// creates its own, so NumericAnomaly and CovarianceIllConditioned
// events are logged once per event class per run.
type warnOnce struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newWarnOnce() *warnOnce {
	return &warnOnce{seen: make(map[string]bool)}
}

func (w *warnOnce) warn(key, format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	log.Printf(format, args...)
}
