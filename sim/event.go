package sim

import (
	"container/heap"
	"fmt"
	"sort"
	"time"
)

// EventKind identifies one kind of event within an equipment vocabulary.
// Kinds are comparable values and are used as route keys.
type EventKind struct {
	Vocabulary string
	Name       string
	Ordinal    int // declaration position within the vocabulary
	Rank       int // lower rank is applied first at the same instant
}

func (k EventKind) String() string {
	return k.Vocabulary + "." + k.Name
}

// Vocabulary is the closed set of event kinds of one equipment family.
type Vocabulary struct {
	name  string
	kinds []EventKind
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary(name string) *Vocabulary {
	return &Vocabulary{name: name}
}

// Declare adds a kind with the given rank. Declaration order is the
// secondary key between kinds of equal rank.
func (v *Vocabulary) Declare(name string, rank int) EventKind {
	for _, k := range v.kinds {
		if k.Name == name {
			panic(fmt.Sprintf("vocabulary %s: kind %q declared twice", v.name, name))
		}
	}
	k := EventKind{Vocabulary: v.name, Name: name, Ordinal: len(v.kinds), Rank: rank}
	v.kinds = append(v.kinds, k)
	return k
}

// Name returns the vocabulary name.
func (v *Vocabulary) Name() string { return v.name }

// Kinds returns the declared kinds in declaration order.
func (v *Vocabulary) Kinds() []EventKind {
	out := make([]EventKind, len(v.kinds))
	copy(out, v.kinds)
	return out
}

// Lookup finds a kind by name.
func (v *Vocabulary) Lookup(name string) (EventKind, bool) {
	for _, k := range v.kinds {
		if k.Name == name {
			return k, true
		}
	}
	return EventKind{}, false
}

// Event is an immutable occurrence of an event kind at a simulated instant.
// It is consumed by exactly one external transition per destination.
type Event struct {
	Kind    EventKind
	Time    time.Duration
	Payload any
	seq     uint64
}

// NewEvent builds an event of the given kind.
func NewEvent(kind EventKind, at time.Duration, payload any) Event {
	return Event{Kind: kind, Time: at, Payload: payload}
}

// Seq returns the sequence number assigned when the event was scheduled or routed.
func (e Event) Seq() uint64 { return e.seq }

// WithSeq returns a copy of the event carrying the given sequence number.
func (e Event) WithSeq(seq uint64) Event {
	e.seq = seq
	return e
}

// At returns a copy of the event re-timed to t.
func (e Event) At(t time.Duration) Event {
	e.Time = t
	return e
}

func (e Event) String() string {
	if e.Payload == nil {
		return fmt.Sprintf("%s@%s", e.Kind, e.Time)
	}
	return fmt.Sprintf("%s(%v)@%s", e.Kind, e.Payload, e.Time)
}

// HasPriorityOver reports whether e must be applied before other when both
// occur at the same instant.
// Order: rank → declaration ordinal → vocabulary name → sequence number.
func (e Event) HasPriorityOver(other Event) bool {
	if e.Kind.Rank != other.Kind.Rank {
		return e.Kind.Rank < other.Kind.Rank
	}
	if e.Kind.Ordinal != other.Kind.Ordinal {
		return e.Kind.Ordinal < other.Kind.Ordinal
	}
	if e.Kind.Vocabulary != other.Kind.Vocabulary {
		return e.Kind.Vocabulary < other.Kind.Vocabulary
	}
	return e.seq < other.seq
}

// SortByPriority orders simultaneous events for delivery.
func SortByPriority(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].HasPriorityOver(events[j])
	})
}

// PayloadAs extracts a typed payload.
func PayloadAs[T any](e Event) (T, error) {
	p, ok := e.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s carries %T, want %T", ErrPayload, e.Kind, e.Payload, zero)
	}
	return p, nil
}

// EventQueue is a min-heap ordered by (Time, priority). Implements heap.Interface.
// Sequence numbers are assigned on Schedule for deterministic FIFO tie-breaking.
type EventQueue struct {
	events  []Event
	nextSeq uint64
}

func (q *EventQueue) Len() int { return len(q.events) }

func (q *EventQueue) Less(i, j int) bool {
	if q.events[i].Time != q.events[j].Time {
		return q.events[i].Time < q.events[j].Time
	}
	return q.events[i].HasPriorityOver(q.events[j])
}

func (q *EventQueue) Swap(i, j int) { q.events[i], q.events[j] = q.events[j], q.events[i] }

func (q *EventQueue) Push(x any) {
	q.events = append(q.events, x.(Event))
}

func (q *EventQueue) Pop() any {
	old := q.events
	n := len(old)
	item := old[n-1]
	q.events = old[:n-1]
	return item
}

// Schedule adds an event to the queue.
func (q *EventQueue) Schedule(e Event) {
	q.nextSeq++
	heap.Push(q, e.WithSeq(q.nextSeq))
}

// PopNext removes and returns the next event.
func (q *EventQueue) PopNext() (Event, bool) {
	if q.Len() == 0 {
		return Event{}, false
	}
	return heap.Pop(q).(Event), true
}

// Peek returns the next event without removing it.
func (q *EventQueue) Peek() (Event, bool) {
	if q.Len() == 0 {
		return Event{}, false
	}
	return q.events[0], true
}
