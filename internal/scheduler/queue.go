package scheduler

import (
	"container/heap"

	"github.com/swarmguard/judge-engine/internal/model"
)

// taskHeap is the runnable-task priority queue: lowest TaskEntry.Less wins.
// container/heap is the one standard-library-only data structure in this
// module (see DESIGN.md) — no example repo in the retrieved corpus ships a
// third-party priority queue.
type taskHeap []*model.TaskEntry

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].Less(h[j]) }
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*model.TaskEntry))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*taskHeap)(nil)
