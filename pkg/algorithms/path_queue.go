package algorithms

import (
	"container/heap"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

type queueItem struct {
	node storage.NodeID
	dist float64
	seq  uint64
}

// pathQueue is a min-heap ordered by distance, then by push order, so equal
// distances pop first-in first-out.
type pathQueue struct {
	items []queueItem
	next  uint64
}

func (q *pathQueue) Len() int { return len(q.items) }

func (q *pathQueue) Less(i, j int) bool {
	if q.items[i].dist != q.items[j].dist {
		return q.items[i].dist < q.items[j].dist
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *pathQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *pathQueue) Push(x any) { q.items = append(q.items, x.(queueItem)) }

func (q *pathQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

func (q *pathQueue) push(node storage.NodeID, dist float64) {
	q.next++
	heap.Push(q, queueItem{node: node, dist: dist, seq: q.next})
}

func (q *pathQueue) pop() queueItem {
	return heap.Pop(q).(queueItem)
}
