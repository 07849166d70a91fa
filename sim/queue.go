package sim

import (
	"container/heap"
	"fmt"
	"math/rand"
)

const (
	// DefaultPriorityBits trades 56 bits of time for 256 tie-break levels.
	DefaultPriorityBits = 8
	// MinPriorityBits and MaxPriorityBits bound the configurable split.
	MinPriorityBits = 8
	MaxPriorityBits = 48

	defaultQueueCapacity = 1024
)

// PriorityQ is the time-and-priority ordered queue the Simulator draws events
// from. Implementations must extract entries in non-decreasing key order and
// must be deterministic given the same RNG stream and the same Add calls.
type PriorityQ interface {
	// Size returns the number of queued entries.
	Size() int
	// Add queues event at time with a priority drawn uniformly at random.
	Add(time int64, event any, node *Node, pid int) error
	// AddWithPriority queues event at time with an explicit priority.
	AddWithPriority(time int64, event any, node *Node, pid int, priority int64) error
	// RemoveFirst extracts the entry with the smallest key, or nil if empty.
	RemoveFirst() *QueueEntry
	// MaxTime is the largest representable time.
	MaxTime() int64
	// MaxPriority is the largest representable priority.
	MaxPriority() int64
}

// QueueEntry is one scheduled event. Node is nil for control events.
type QueueEntry struct {
	Key      uint64
	Time     int64
	Priority int64
	Event    any
	Node     *Node
	PID      int
}

// entryHeap implements heap.Interface and orders entries by composite key.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type entryHeap []*QueueEntry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].Key < h[j].Key }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

// Push grows storage by doubling; it never shrinks.
func (h *entryHeap) Push(x any) {
	old := *h
	if len(old) == cap(old) {
		grown := make(entryHeap, len(old), max(2*cap(old), defaultQueueCapacity))
		copy(grown, old)
		old = grown
	}
	*h = append(old, x.(*QueueEntry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

// Heap is a binary min-heap over the composite key (time << P) | priority,
// where P is the number of priority bits.
type Heap struct {
	entries entryHeap
	pbits   uint
	rng     *rand.Rand
}

// NewHeap creates a heap with pbits priority bits drawing random priorities
// from rng. Fails if pbits is outside [MinPriorityBits, MaxPriorityBits].
func NewHeap(pbits uint, rng *rand.Rand) (*Heap, error) {
	if pbits < MinPriorityBits || pbits > MaxPriorityBits {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidPriorityBits, pbits, MinPriorityBits, MaxPriorityBits)
	}
	if rng == nil {
		panic("NewHeap: rng must not be nil")
	}
	h := &Heap{
		entries: make(entryHeap, 0, defaultQueueCapacity),
		pbits:   pbits,
		rng:     rng,
	}
	heap.Init(&h.entries)
	return h, nil
}

// Size returns the number of queued entries.
func (h *Heap) Size() int { return h.entries.Len() }

// MaxTime returns 2^(64-P) - 1.
func (h *Heap) MaxTime() int64 {
	return int64((uint64(1) << (64 - h.pbits)) - 1)
}

// MaxPriority returns 2^P - 1.
func (h *Heap) MaxPriority() int64 {
	return int64((uint64(1) << h.pbits) - 1)
}

// Add queues event at time with a priority drawn uniformly from [0, 2^P).
func (h *Heap) Add(time int64, event any, node *Node, pid int) error {
	return h.AddWithPriority(time, event, node, pid, h.rng.Int63n(h.MaxPriority()+1))
}

// AddWithPriority queues event at time with the given priority.
func (h *Heap) AddWithPriority(time int64, event any, node *Node, pid int, priority int64) error {
	if time < 0 || time > h.MaxTime() {
		return fmt.Errorf("%w: time %d outside [0, %d]", ErrTimeOverflow, time, h.MaxTime())
	}
	if priority < 0 || priority > h.MaxPriority() {
		return fmt.Errorf("priority %d outside [0, %d]", priority, h.MaxPriority())
	}
	heap.Push(&h.entries, &QueueEntry{
		Key:      uint64(time)<<h.pbits | uint64(priority),
		Time:     time,
		Priority: priority,
		Event:    event,
		Node:     node,
		PID:      pid,
	})
	return nil
}

// RemoveFirst extracts the entry with the smallest key, or nil if empty.
func (h *Heap) RemoveFirst() *QueueEntry {
	if h.entries.Len() == 0 {
		return nil
	}
	return heap.Pop(&h.entries).(*QueueEntry)
}

// Peek returns the entry with the smallest key without removing it.
func (h *Heap) Peek() *QueueEntry {
	if h.entries.Len() == 0 {
		return nil
	}
	return h.entries[0]
}

// capacity is exposed to tests to check the growth policy.
func (h *Heap) capacity() int { return cap(h.entries) }
