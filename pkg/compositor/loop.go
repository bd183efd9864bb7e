package compositor

import (
	"sync"
	"time"
)

// DefaultLoopFPS is used when a loop is created with a non-positive rate.
const DefaultLoopFPS = 30

// Loop drives periodic redraws for animated media. It owns a single
// goroutine between Start and Stop; the callback runs on that goroutine,
// never concurrently with itself.
type Loop struct {
	interval time.Duration
	onFrame  func()

	mu     sync.Mutex
	done   chan struct{}
	exited chan struct{}
}

// NewLoop creates a stopped loop that invokes onFrame at the given rate.
func NewLoop(fps int, onFrame func()) *Loop {
	if fps <= 0 {
		fps = DefaultLoopFPS
	}
	return &Loop{
		interval: time.Second / time.Duration(fps),
		onFrame:  onFrame,
	}
}

// Start begins ticking. Calling Start on a running loop is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return
	}
	l.done = make(chan struct{})
	l.exited = make(chan struct{})
	go l.run(l.done, l.exited)
}

// Stop cancels the loop and waits for the in-flight tick, if any, to
// finish. Calling Stop on a stopped loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	done, exited := l.done, l.exited
	l.done, l.exited = nil, nil
	l.mu.Unlock()
	if done == nil {
		return
	}
	close(done)
	<-exited
}

// Running reports whether the loop is ticking.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done != nil
}

func (l *Loop) run(done, exited chan struct{}) {
	defer close(exited)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			l.onFrame()
		}
	}
}
