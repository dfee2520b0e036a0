package services

import "sync"

// workerPool runs submitted jobs on at most n goroutines at a time.
type workerPool struct {
	semaphore chan struct{}
	wg        sync.WaitGroup
}

func newWorkerPool(n int) *workerPool {
	if n <= 0 {
		n = 1
	}
	return &workerPool{semaphore: make(chan struct{}, n)}
}

// Submit blocks while the pool is full.
func (wp *workerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()
		job()
	}()
}

func (wp *workerPool) Wait() { wp.wg.Wait() }
