package kernel

import "container/list"

// ActionKind tags what a scheduled Action represents (spec.md §4.8).
type ActionKind int

const (
	ActionDiffuseVolume ActionKind = iota
	ActionDiffuseSurface
	ActionUnimolecular
)

// Action is one scheduled event: a molecule due for a diffuse step, or a
// molecule due for its unimolecular reaction (spec.md §4.8).
type Action struct {
	Kind     ActionKind
	Time     float64
	Molecule MoleculeID
}

// bucket holds every action whose floor(time/Δ) maps to the same slot, in
// insertion order (spec.md §4.8: "pop_next returns the earliest action in
// the earliest non-empty bucket").
type bucket struct {
	index int
	items *list.List
}

// Calendar is a deque of time buckets of fixed width, the event queue MCell's
// scheduler.h implements as std::deque<Bucket>; this is a direct translation
// of that structure to a Go slice-backed ring plus container/list buckets
// (spec.md §4.8).
type Calendar struct {
	width   float64
	buckets []*bucket
	// baseIndex is the bucket index buckets[0] corresponds to; buckets below
	// it have already been popped and trimmed.
	baseIndex int
}

// NewCalendar creates an empty calendar with bucket width `width` (one
// whole timestep by default, per spec.md §4.8).
func NewCalendar(width float64) *Calendar {
	return &Calendar{width: width}
}

func (c *Calendar) bucketIndex(t float64) int {
	if c.width <= 0 {
		return 0
	}
	return int(t / c.width)
}

// Insert finds or creates the bucket for floor(time/Δ) and appends action
// to its FIFO list (spec.md §4.8 insert).
func (c *Calendar) Insert(a Action) {
	idx := c.bucketIndex(a.Time)
	if len(c.buckets) == 0 {
		c.baseIndex = idx
	}
	for idx < c.baseIndex {
		c.baseIndex--
		c.buckets = append([]*bucket{{index: c.baseIndex, items: list.New()}}, c.buckets...)
	}
	slot := idx - c.baseIndex
	for slot >= len(c.buckets) {
		c.buckets = append(c.buckets, &bucket{index: c.baseIndex + len(c.buckets), items: list.New()})
	}
	if c.buckets[slot].items == nil {
		c.buckets[slot] = &bucket{index: idx, items: list.New()}
	}
	c.buckets[slot].items.PushBack(a)
}

// PopNext returns the earliest action in the earliest non-empty bucket,
// trimming empty leading buckets as it goes (spec.md §4.8 pop_next).
func (c *Calendar) PopNext() (Action, bool) {
	for len(c.buckets) > 0 {
		front := c.buckets[0]
		if front.items == nil || front.items.Len() == 0 {
			c.buckets = c.buckets[1:]
			c.baseIndex++
			continue
		}
		elem := front.items.Front()
		front.items.Remove(elem)
		return elem.Value.(Action), true
	}
	return Action{}, false
}

// Peek reports the time of the next action without removing it, and
// whether any action is pending.
func (c *Calendar) Peek() (float64, bool) {
	for _, b := range c.buckets {
		if b.items != nil && b.items.Len() > 0 {
			return b.items.Front().Value.(Action).Time, true
		}
	}
	return 0, false
}

// Empty reports whether the calendar currently holds no actions.
func (c *Calendar) Empty() bool {
	_, ok := c.Peek()
	return !ok
}
