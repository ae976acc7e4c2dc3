package pipeline

import "sync"

// turns serializes a section of per-file work in discovery order. Workers
// may finish OCR in any order; naming and renaming run strictly by index,
// so collision suffixes do not depend on scheduling.
type turns struct {
	mu   sync.Mutex
	cond *sync.Cond
	next int
}

func newTurns() *turns {
	t := &turns{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// wait blocks until every index below i has called done.
func (t *turns) wait(i int) {
	t.mu.Lock()
	for t.next < i {
		t.cond.Wait()
	}
	t.mu.Unlock()
}

// done ends the turn of index i, waiting for it first if it has not come
// yet. Every started index must call done exactly once.
func (t *turns) done(i int) {
	t.wait(i)
	t.mu.Lock()
	if t.next == i {
		t.next = i + 1
	}
	t.mu.Unlock()
	t.cond.Broadcast()
}
