package services

import (
	"sync"

	"github.com/custodia-labs/gsignin/internal/logger"
)

// Dispatcher is a serial execution context. Work submitted with Async runs
// on a single goroutine in submission order, so at most one provider
// callback executes at a time. Async never blocks the caller.
type Dispatcher struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher and starts its worker goroutine.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		wake: make(chan struct{}, 1),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Async queues fn for execution. Returns false if the dispatcher is closed.
func (d *Dispatcher) Async(fn func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, fn)
	select {
	case d.wake <- struct{}{}:
	default:
	}
	d.mu.Unlock()
	return true
}

// Close stops accepting work and waits for queued work to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.wake)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		fn, ok := d.next()
		if ok {
			d.exec(fn)
			continue
		}
		if _, open := <-d.wake; !open {
			// Drain whatever was queued before Close.
			for {
				fn, ok := d.next()
				if !ok {
					return
				}
				d.exec(fn)
			}
		}
	}
}

func (d *Dispatcher) next() (func(), bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil, false
	}
	fn := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return fn, true
}

func (d *Dispatcher) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("dispatcher: recovered from panic: %v", r)
		}
	}()
	fn()
}
