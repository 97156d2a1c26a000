// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package async

import "container/heap"

// queuedTask is one entry in the priority queue: higher Priority pops
// first, ties broken by ascending submit sequence (FIFO), per spec.md
// §4.7's scheduling model.
type queuedTask struct {
	task *Task
	seq  int64
}

// taskHeap implements container/heap.Interface. No third-party
// priority-queue library appears anywhere in the retrieved example pack
// (checked every go.mod under _examples), so container/heap is the
// idiomatic stdlib answer, as SPEC_FULL.md §3 names explicitly.
type taskHeap []*queuedTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].task.Priority != h[j].task.Priority {
		return h[i].task.Priority > h[j].task.Priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*queuedTask))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is the bounded, priority-ordered task queue feeding the worker
// pool. It has no lock of its own: the Pool guards every call with its
// queue mutex.
type Queue struct {
	heap     taskHeap
	capacity int
	nextSeq  int64
}

// newQueue builds a Queue bounded at capacity (Q_max, default 1000).
func newQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1000
	}
	q := &Queue{capacity: capacity}
	heap.Init(&q.heap)
	return q
}

// len returns the current queue depth. Callers must hold the pool's queue
// mutex.
func (q *Queue) len() int { return q.heap.Len() }

// full reports whether the queue is at capacity.
func (q *Queue) full() bool { return q.heap.Len() >= q.capacity }

// push adds task to the queue, assigning it the next FIFO tiebreak
// sequence number.
func (q *Queue) push(task *Task) {
	q.nextSeq++
	heap.Push(&q.heap, &queuedTask{task: task, seq: q.nextSeq})
}

// pop removes and returns the highest-priority (then earliest-submitted)
// task, or nil if the queue is empty.
func (q *Queue) pop() *Task {
	if q.heap.Len() == 0 {
		return nil
	}
	item := heap.Pop(&q.heap).(*queuedTask)
	return item.task
}
