package main

import (
	"fmt"
	"sync"
)

// consoleProgress prints coarse progress lines. Updates arrive from
// multiple install workers at once, so printing is serialized and
// throttled to full ten-percent steps to keep concurrent output readable.
type consoleProgress struct {
	mutex    sync.Mutex
	reported map[string]int64
}

func newConsoleProgress() *consoleProgress {
	return &consoleProgress{reported: make(map[string]int64)}
}

func (p *consoleProgress) update(name string, current, total int64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if total <= 0 {
		// Unknown totals only report completion; a stream of raw counters
		// is just noise.
		return
	}

	percent := current * 100 / total
	step := percent / 10 * 10
	if step <= p.reported[name] && current < total {
		return
	}
	p.reported[name] = step
	fmt.Printf("%s: %d%%\n", name, percent)
}
