// Package dispatch runs submitted work on a fixed number of worker goroutines.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrClosed = errors.New("dispatch: pool closed")

// Func is one unit of work. The context is the pool's base context; it is not
// cancelled by the submitter.
type Func func(ctx context.Context)

// Task is the handle for a submitted Func.
type Task struct {
	Name string
	done chan struct{}
}

// Done is closed once the Func has returned (or panicked).
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finished or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type work struct {
	task *Task
	fn   Func
}

// Pool is a fixed set of workers fed by a bounded queue. Submit blocks while
// the queue is full.
type Pool struct {
	size  int
	queue chan work
	log   logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func New(size, queueSize int, log logrus.FieldLogger) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool{
		size:  size,
		queue: make(chan work, queueSize),
		log:   log,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(i)
	}
	p.log.WithFields(logrus.Fields{"workers": size, "queue": queueSize}).Info("worker pool started")
	return p
}

func (p *Pool) Size() int { return p.size }

// Submit queues fn. It only fails when the pool is closed or ctx ends while
// waiting for queue space.
func (p *Pool) Submit(ctx context.Context, name string, fn Func) (*Task, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	t := &Task{Name: name, done: make(chan struct{})}
	select {
	case p.queue <- work{task: t, fn: fn}:
		return t, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("dispatch: submit %s: %w", name, ctx.Err())
	}
}

// Close stops accepting work and waits for queued and running tasks.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

func (p *Pool) worker(n int) {
	defer p.wg.Done()
	log := p.log.WithField("worker", n)
	for w := range p.queue {
		p.run(log, w)
	}
}

func (p *Pool) run(log logrus.FieldLogger, w work) {
	start := time.Now()
	defer close(w.task.done)
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"task":  w.task.Name,
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("task panicked")
		}
	}()
	w.fn(context.Background())
	log.WithFields(logrus.Fields{"task": w.task.Name, "duration": time.Since(start)}).Debug("task finished")
}
