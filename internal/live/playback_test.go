package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleBackToBack(t *testing.T) {
	now := time.Unix(1000, 0)
	sched := NewPlaybackScheduler()
	sched.now = func() time.Time { return now }

	frame := 100 * time.Millisecond

	// frames arriving faster than playback queue at the cursor
	first := sched.Schedule(frame)
	second := sched.Schedule(frame)
	third := sched.Schedule(frame)

	assert.Equal(t, now, first)
	assert.Equal(t, now.Add(frame), second)
	assert.Equal(t, now.Add(2*frame), third)
}

func TestScheduleClampsToNowAfterGap(t *testing.T) {
	now := time.Unix(1000, 0)
	sched := NewPlaybackScheduler()
	sched.now = func() time.Time { return now }

	frame := 50 * time.Millisecond
	sched.Schedule(frame)

	// silence passes; the next frame must not be scheduled in the past
	now = now.Add(10 * time.Second)
	start := sched.Schedule(frame)
	assert.Equal(t, now, start)
}

func TestSchedulerReset(t *testing.T) {
	now := time.Unix(1000, 0)
	sched := NewPlaybackScheduler()
	sched.now = func() time.Time { return now }

	sched.Schedule(time.Second)
	sched.Reset()

	start := sched.Schedule(100 * time.Millisecond)
	assert.Equal(t, now, start)
}
