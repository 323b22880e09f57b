package worker

import (
	"sync"
	"time"
)

// Job is one unit of background work, typically a story fetch.
type Job func()

type workerMeta struct {
	ch        chan Job
	lastUsed  time.Time
	enqueued  bool // is in the idle queue
	discarded bool // is targeted as delete
}

// Pool keeps a bounded set of reusable goroutines for background jobs. When
// every worker is busy, Submit runs the job on a fresh goroutine instead of
// queueing, so one slow job never delays the others.
type Pool struct {
	mu       sync.Mutex
	idle     []*workerMeta
	metadata map[chan Job]*workerMeta
	min      int
	max      int
	running  int
	expiry   time.Duration
}

const defaultWorkerIdle = 30 * time.Second

func NewPool(minWorkers, maxWorkers int, idle time.Duration) *Pool {
	if minWorkers < 0 {
		minWorkers = 0
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxWorkers < minWorkers {
		maxWorkers = minWorkers
	}
	if idle <= 0 {
		idle = defaultWorkerIdle
	}
	p := &Pool{
		metadata: make(map[chan Job]*workerMeta),
		min:      minWorkers,
		max:      maxWorkers,
		expiry:   idle,
	}
	go p.purgeStaleWorkers()
	return p
}

// Submit hands the job to an idle worker, spawning one if the pool has room.
// At capacity the job runs on its own goroutine.
func (p *Pool) Submit(job Job) {
	if ch := p.tryAcquire(); ch != nil {
		ch <- job
		return
	}
	go job()
}

// tryAcquire returns an idle worker channel, or nil when the pool is full
// and every worker is busy.
func (p *Pool) tryAcquire() chan Job {
	p.mu.Lock()
	if meta := p.popIdleLocked(); meta != nil {
		p.mu.Unlock()
		return meta.ch
	}
	if p.running < p.max {
		ch := make(chan Job)
		p.metadata[ch] = &workerMeta{ch: ch}
		p.running++
		p.mu.Unlock()
		go p.work(ch)
		return ch
	}
	p.mu.Unlock()
	return nil
}

// work runs jobs from ch until the pool retires the worker with a nil job.
func (p *Pool) work(ch chan Job) {
	for job := range ch {
		if job == nil {
			p.retire(ch)
			return
		}
		job()
		p.release(ch)
	}
}

// release puts the worker back on the idle queue.
func (p *Pool) release(ch chan Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	meta, ok := p.metadata[ch]
	if !ok || meta.discarded || meta.enqueued {
		return
	}
	meta.enqueued = true
	meta.lastUsed = time.Now()
	p.idle = append(p.idle, meta)
}

// retire removes a worker the pool told to stop.
func (p *Pool) retire(ch chan Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if meta, ok := p.metadata[ch]; ok {
		delete(p.metadata, ch)
		meta.discarded = true
		if p.running > 0 {
			p.running--
		}
	}
}

func (p *Pool) popIdleLocked() *workerMeta {
	for len(p.idle) > 0 {
		meta := p.idle[0]
		p.idle = p.idle[1:]
		if meta.discarded {
			continue
		}
		meta.enqueued = false
		return meta
	}
	return nil
}

// purgeStaleWorkers call shutdownExpired when expiry time comes
func (p *Pool) purgeStaleWorkers() {
	ticker := time.NewTicker(p.expiry)
	defer ticker.Stop()
	for {
		<-ticker.C
		p.shutdownExpired()
	}
}

// shutdownExpired retires every idle worker past its expiry, keeping min alive.
func (p *Pool) shutdownExpired() {
	var stale []*workerMeta
	now := time.Now()

	p.mu.Lock()
	if len(p.idle) == 0 || p.running <= p.min {
		p.mu.Unlock()
		return
	}
	remaining := p.idle[:0] // keep the original array
	for _, meta := range p.idle {
		if meta.discarded {
			continue
		}
		if now.Sub(meta.lastUsed) >= p.expiry && p.running-len(stale) > p.min {
			meta.discarded = true
			meta.enqueued = false
			stale = append(stale, meta)
			continue
		}
		remaining = append(remaining, meta)
	}
	p.idle = remaining
	p.mu.Unlock()

	for _, meta := range stale {
		meta.ch <- nil
	}
}
