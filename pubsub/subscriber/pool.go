package subscriber

import (
	"context"
	"sync"
	"sync/atomic"
)

type task func()

// pool runs tasks on a fixed set of workers. Dispatching blocks until a worker
// picks the task up, which together with the consumer prefetch bounds the number
// of in-flight packages.
type pool struct {
	tasks chan task
	busy  int32
	wg    sync.WaitGroup
}

func newPool() *pool {
	return &pool{tasks: make(chan task)}
}

func (p *pool) start(workersCount uint) {
	for i := uint(0); i < workersCount; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for t := range p.tasks {
				atomic.AddInt32(&p.busy, 1)
				t()
				atomic.AddInt32(&p.busy, -1)
			}
		}()
	}
}

func (p *pool) dispatch(ctx context.Context, t task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- t:
		return nil
	}
}

// busyWorkers returns the number of workers currently processing a task
func (p *pool) busyWorkers() int {
	return int(atomic.LoadInt32(&p.busy))
}

// stop closes the task queue and waits for all workers to finish their current task
func (p *pool) stop() {
	close(p.tasks)
	p.wg.Wait()
}
