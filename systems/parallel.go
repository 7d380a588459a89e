package systems

import (
	"runtime"
	"sync"
)

// defaultWorkers is used when the runtime cannot report available parallelism.
const defaultWorkers = 4

// DefaultParallelThreshold is the minimum particle count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const DefaultParallelThreshold = 64

// workChunk is a contiguous particle index range handed to one worker.
type workChunk struct {
	start, end int
	slot       int // index into the per-chunk result slots
}

// workerPool runs one frame's chunks on persistent goroutines.
// A frame is fork-join: dispatch every chunk, then wait for all of them.
type workerPool struct {
	numWorkers int
	fn         func(start, end int, slot int)

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// resolveWorkers returns the worker count for a requested value (0 = auto).
func resolveWorkers(requested int) int {
	if requested > 0 {
		return requested
	}
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = defaultWorkers
	}
	return n
}

func newWorkerPool(numWorkers int, fn func(start, end, slot int)) *workerPool {
	return &workerPool{
		numWorkers: numWorkers,
		fn:         fn,
	}
}

// start launches the worker goroutines if they are not running yet.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker processes chunks until stopped.
func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.fn(chunk.start, chunk.end, chunk.slot)
			p.doneChan <- struct{}{}
		}
	}
}

// run splits [0, n) into one contiguous chunk per worker and blocks until
// every chunk has completed. Returns the number of chunks dispatched.
//
// Everything written before run is visible to the workers (channel send), and
// everything the workers wrote is visible after run returns (channel receive).
func (p *workerPool) run(n int) int {
	p.start()

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, slot: w}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
	return dispatched
}
