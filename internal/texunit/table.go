package texunit

import "github.com/gogpu/glstate/device"

// Table is a fixed-capacity registry of texture unit slots.
//
// Each slot records the texture the table believes is bound to the unit and
// the sequence number of its last use. Sequence numbers come from a single
// table-wide counter, so lastUsed values are strictly increasing across
// assignments and touches.
//
// Table never talks to the device. Indices passed to its methods must be in
// [0, Capacity()); the caller validates them.
//
// Table is not safe for concurrent use.
type Table struct {
	slots []slot
	base  device.TextureUnit
	tick  uint64 // Monotonic use counter
}

// slot holds one unit's cached binding and its use time.
type slot struct {
	texture  device.TextureID
	lastUsed uint64 // Use time (tick value), 0 when never used
}

// New creates a table with the given number of slots, all empty.
// A negative capacity is treated as zero.
func New(capacity int) *Table {
	return NewWithBase(capacity, 0)
}

// NewWithBase creates a table whose slot i maps to device unit base+i.
// Units below base are left to foreign code sharing the device.
func NewWithBase(capacity int, base device.TextureUnit) *Table {
	if capacity < 0 {
		capacity = 0
	}
	return &Table{
		slots: make([]slot, capacity),
		base:  base,
	}
}

// Capacity returns the number of slots.
func (t *Table) Capacity() int {
	return len(t.slots)
}

// Unit converts a slot index into the device texture unit it stands for.
func (t *Table) Unit(i int) device.TextureUnit {
	return t.base + device.TextureUnit(i)
}

// Index converts a device texture unit back into a slot index.
// Returns false if the unit is outside the table.
func (t *Table) Index(unit device.TextureUnit) (int, bool) {
	i := int(unit - t.base)
	if i < 0 || i >= len(t.slots) {
		return 0, false
	}
	return i, true
}

// SlotAt returns the texture recorded in slot i.
// Returns (InvalidID, false) for an empty slot.
func (t *Table) SlotAt(i int) (device.TextureID, bool) {
	tex := t.slots[i].texture
	return tex, tex != device.InvalidID
}

// LastUsed returns the sequence number of the last assignment or touch of
// slot i, or 0 if the slot was never used since the last clear.
func (t *Table) LastUsed(i int) uint64 {
	return t.slots[i].lastUsed
}

// Assign overwrites slot i with tex and bumps its last-used sequence number.
// Returns the new sequence number.
func (t *Table) Assign(i int, tex device.TextureID) uint64 {
	t.tick++
	t.slots[i] = slot{texture: tex, lastUsed: t.tick}
	return t.tick
}

// Touch bumps the last-used sequence number of slot i without changing
// its texture.
func (t *Table) Touch(i int) uint64 {
	t.tick++
	t.slots[i].lastUsed = t.tick
	return t.tick
}

// Clear empties slot i.
func (t *Table) Clear(i int) {
	t.slots[i] = slot{}
}

// ClearAll empties every slot. The sequence counter keeps running so that
// lastUsed stays strictly increasing over the table's lifetime.
func (t *Table) ClearAll() {
	for i := range t.slots {
		t.slots[i] = slot{}
	}
}

// FirstEmpty returns the lowest empty slot index.
func (t *Table) FirstEmpty() (int, bool) {
	for i := range t.slots {
		if t.slots[i].texture == device.InvalidID {
			return i, true
		}
	}
	return 0, false
}

// LeastRecentlyUsed returns the slot with the smallest lastUsed value.
// Ties (only possible between never-used slots) go to the lowest index.
// Returns false if the table has no slots.
func (t *Table) LeastRecentlyUsed() (int, bool) {
	if len(t.slots) == 0 {
		return 0, false
	}
	minIdx := 0
	for i := 1; i < len(t.slots); i++ {
		if t.slots[i].lastUsed < t.slots[minIdx].lastUsed {
			minIdx = i
		}
	}
	return minIdx, true
}

// Len returns the number of occupied slots.
func (t *Table) Len() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].texture != device.InvalidID {
			n++
		}
	}
	return n
}
