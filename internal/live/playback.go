package live

import (
	"sync"
	"time"
)

// PlaybackScheduler assigns start times to inbound audio frames so they play
// back-to-back in arrival order. A frame arriving while earlier audio is
// still playing starts at the cursor; a frame arriving after a gap starts
// now. The cursor never moves backwards.
type PlaybackScheduler struct {
	mu     sync.Mutex
	now    func() time.Time
	cursor time.Time
}

func NewPlaybackScheduler() *PlaybackScheduler {
	return &PlaybackScheduler{now: time.Now}
}

// Schedule returns the start time for a frame of the given duration and
// advances the cursor past it.
func (p *PlaybackScheduler) Schedule(frame time.Duration) time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.now()
	if p.cursor.After(start) {
		start = p.cursor
	}
	p.cursor = start.Add(frame)
	return start
}

// Reset drops any scheduled backlog, e.g. when the model interrupts its own
// audio or the session closes.
func (p *PlaybackScheduler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = time.Time{}
}
