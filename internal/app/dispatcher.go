package app

import "sync"

// dispatcher runs completion callbacks one at a time on a single goroutine.
type dispatcher struct {
	mu     sync.RWMutex
	closed bool
	queue  chan func()
	done   chan struct{}
}

func newDispatcher(buffer int) *dispatcher {
	d := &dispatcher{
		queue: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer close(d.done)
	for fn := range d.queue {
		fn()
	}
}

// submit queues fn. After close, fn runs on the caller's goroutine so that
// no completion is ever lost.
func (d *dispatcher) submit(fn func()) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		fn()
		return
	}
	d.queue <- fn
	d.mu.RUnlock()
}

// close drains queued callbacks and stops the goroutine.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}
