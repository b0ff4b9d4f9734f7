package pipeline

import (
	"container/heap"
	"context"
	"sync"

	"github.com/nao1215/iptvscan/internal/model"
	"github.com/nao1215/iptvscan/internal/probe"
)

// manualHost groups links that never reach the network. It is not a valid
// host name, so it cannot collide with a real one.
const manualHost = " manual"

// hostState is the dispatch state of one destination host.
type hostState struct {
	queue     []int // undispatched entry indexes in input order
	inFlight  int
	unlimited bool
	heapIndex int // position in the ready heap, -1 when absent
}

// hostQueue hands out entry indexes so that no host exceeds the per-host
// limit. An index whose host is saturated waits in that host's queue without
// taking a global slot, so other hosts keep being dispatched.
//
// next is called by a single dispatcher; release may be called from any
// goroutine.
type hostQueue struct {
	limit int

	mu      sync.Mutex
	owner   []*hostState // entry index -> host
	ready   readyHeap    // hosts with queued entries and a free slot
	pending int
	wake    chan struct{}
}

func newHostQueue(entries []*model.Entry, limit int) *hostQueue {
	q := &hostQueue{
		limit:   limit,
		owner:   make([]*hostState, len(entries)),
		pending: len(entries),
		wake:    make(chan struct{}, 1),
	}

	hosts := make(map[string]*hostState)
	for i, e := range entries {
		key := manualHost
		if probe.IsHTTPLink(e.Link) {
			key = probe.HostOf(e.Link)
		}
		h, ok := hosts[key]
		if !ok {
			h = &hostState{unlimited: key == manualHost, heapIndex: -1}
			hosts[key] = h
		}
		h.queue = append(h.queue, i)
		q.owner[i] = h
	}
	for _, h := range hosts {
		heap.Push(&q.ready, h)
	}
	return q
}

func (q *hostQueue) free(h *hostState) bool {
	return h.unlimited || h.inFlight < q.limit
}

// next reserves a host slot for the lowest queued index whose host has room
// and returns it. It blocks while every queued host is saturated. It returns
// false when ctx ends first or nothing is left to dispatch.
func (q *hostQueue) next(ctx context.Context) (int, bool) {
	for {
		q.mu.Lock()
		if q.ready.Len() > 0 {
			h := q.ready[0]
			i := h.queue[0]
			h.queue = h.queue[1:]
			h.inFlight++
			q.pending--
			if len(h.queue) > 0 && q.free(h) {
				heap.Fix(&q.ready, 0)
			} else {
				heap.Pop(&q.ready)
			}
			q.mu.Unlock()
			return i, true
		}
		empty := q.pending == 0
		q.mu.Unlock()

		if empty {
			return -1, false
		}
		select {
		case <-q.wake:
		case <-ctx.Done():
			return -1, false
		}
	}
}

// release frees the host slot reserved for entry i by next.
func (q *hostQueue) release(i int) {
	q.mu.Lock()
	h := q.owner[i]
	h.inFlight--
	if h.heapIndex < 0 && len(h.queue) > 0 && q.free(h) {
		heap.Push(&q.ready, h)
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// drain removes and returns every index not yet dispatched.
func (q *hostQueue) drain() []int {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, h := range q.ready {
		h.heapIndex = -1
	}
	q.ready = nil

	rest := make([]int, 0, q.pending)
	seen := make(map[*hostState]bool)
	for _, h := range q.owner {
		if seen[h] {
			continue
		}
		seen[h] = true
		rest = append(rest, h.queue...)
		h.queue = nil
	}
	q.pending = 0
	return rest
}

// readyHeap orders hosts by the index at the head of their queue, so dispatch
// follows input order as far as the limits allow.
type readyHeap []*hostState

func (r readyHeap) Len() int           { return len(r) }
func (r readyHeap) Less(i, j int) bool { return r[i].queue[0] < r[j].queue[0] }

func (r readyHeap) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
	r[i].heapIndex = i
	r[j].heapIndex = j
}

func (r *readyHeap) Push(x any) {
	h := x.(*hostState)
	h.heapIndex = len(*r)
	*r = append(*r, h)
}

func (r *readyHeap) Pop() any {
	old := *r
	n := len(old)
	h := old[n-1]
	old[n-1] = nil
	h.heapIndex = -1
	*r = old[:n-1]
	return h
}
