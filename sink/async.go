package sink

import (
	"errors"
	"sync"

	"github.com/rkarmaka98/streamwatch/monitor"
)

// Async runs a sink on its own goroutine behind a bounded queue. Order is
// preserved. Update blocks only while the queue is full.
type Async struct {
	next monitor.Sink
	ch   chan monitor.Observation
	done chan struct{}

	mu  sync.Mutex
	err error
}

// NewAsync starts the consumer goroutine. buffer is the queue length.
func NewAsync(next monitor.Sink, buffer int) *Async {
	if buffer < 0 {
		buffer = 0
	}
	a := &Async{
		next: next,
		ch:   make(chan monitor.Observation, buffer),
		done: make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for obs := range a.ch {
		if a.failed() != nil {
			continue
		}
		if err := a.next.Update(obs); err != nil {
			a.mu.Lock()
			a.err = err
			a.mu.Unlock()
		}
	}
}

func (a *Async) failed() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Update queues obs. An error from an earlier observation is reported here.
func (a *Async) Update(obs monitor.Observation) error {
	if err := a.failed(); err != nil {
		return err
	}
	a.ch <- obs
	return nil
}

// Finalize drains the queue, then finalizes the wrapped sink. It must be
// called exactly once.
func (a *Async) Finalize() error {
	close(a.ch)
	<-a.done
	return errors.Join(a.failed(), a.next.Finalize())
}
