package utils

import (
	"sync"
)

// WorkerPool runs queued tasks on a fixed set of workers. Export writes go
// through it so disk latency never blocks the caller.
type WorkerPool struct {
	tasks     chan func()
	waitGroup sync.WaitGroup
}

// NewWorkerPool starts the given number of workers.
func NewWorkerPool(workers int) *WorkerPool {
	pool := &WorkerPool{
		tasks: make(chan func(), workers),
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

// worker drains the task queue until it is closed.
func (wp *WorkerPool) worker() {
	defer wp.waitGroup.Done()
	for task := range wp.tasks {
		task()
	}
}

// Submit queues a task for execution. It blocks while the queue is full.
func (wp *WorkerPool) Submit(task func()) {
	wp.tasks <- task
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (wp *WorkerPool) Shutdown() {
	close(wp.tasks)
	wp.waitGroup.Wait()
}
