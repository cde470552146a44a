package session

import "sync"

// effectQueue runs side effects one at a time in submission order on its
// own goroutine. Phase bookkeeping never waits for it.
type effectQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	busy   bool
	closed bool
}

func newEffectQueue() *effectQueue {
	q := &effectQueue{}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

func (q *effectQueue) push(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.queue = append(q.queue, fn)
	q.cond.Broadcast()
}

func (q *effectQueue) loop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		for len(q.queue) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.queue) == 0 {
			return
		}
		fn := q.queue[0]
		q.queue[0] = nil
		q.queue = q.queue[1:]
		q.busy = true
		q.mu.Unlock()
		fn()
		q.mu.Lock()
		q.busy = false
		q.cond.Broadcast()
	}
}

// wait blocks until every queued effect has run.
func (q *effectQueue) wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.queue) > 0 || q.busy {
		q.cond.Wait()
	}
}

// close stops accepting effects; queued ones still run.
func (q *effectQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}
