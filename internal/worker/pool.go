// Package worker runs background move tasks for iterator prefetch.
package worker

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var ErrPoolClosed = errors.New("worker: pool is closed")

// Task is a unit of background work. Tasks keep whatever they touch
// alive themselves; the pool only runs them.
type Task interface {
	Execute()
}

// Pool is a fixed set of worker goroutines draining a task queue.
type Pool struct {
	tasks chan Task
	wg    sync.WaitGroup
	mu    sync.Mutex
	close bool
	log   zerolog.Logger
}

func New(workers, queueDepth int, logger zerolog.Logger) *Pool {
	p := &Pool{
		tasks: make(chan Task, queueDepth),
		log:   logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	return p
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for t := range p.tasks {
		t.Execute()
	}
	p.log.Debug().Int("worker", id).Msg("worker stopped")
}

// Submit queues a task. Blocks while the queue is full.
func (p *Pool) Submit(t Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.close {
		return ErrPoolClosed
	}
	p.tasks <- t
	return nil
}

// Close stops accepting tasks, runs everything already queued, and
// joins the workers.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.close {
		p.mu.Unlock()
		return
	}
	p.close = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}
