package texbind

import "github.com/gogpu/glstate/device"

// reverseIndex maps a texture to the unit the cache assigned it.
// The index is not thread-safe; the Cache owns it.
//
// Every entry must agree with the slot table: if tex -> unit is present,
// the table's slot for unit holds tex. Resolve re-checks this on every hit.
type reverseIndex struct {
	units map[device.TextureID]device.TextureUnit
}

// newReverseIndex creates an empty index.
func newReverseIndex(capacity int) *reverseIndex {
	return &reverseIndex{units: make(map[device.TextureID]device.TextureUnit, capacity)}
}

// Get returns the unit recorded for tex.
func (x *reverseIndex) Get(tex device.TextureID) (device.TextureUnit, bool) {
	unit, ok := x.units[tex]
	return unit, ok
}

// Put records tex -> unit.
func (x *reverseIndex) Put(tex device.TextureID, unit device.TextureUnit) {
	x.units[tex] = unit
}

// Delete removes tex. Deleting an absent texture is a no-op.
func (x *reverseIndex) Delete(tex device.TextureID) {
	delete(x.units, tex)
}

// Len returns the number of recorded textures.
func (x *reverseIndex) Len() int {
	return len(x.units)
}

// Clear removes every entry.
func (x *reverseIndex) Clear() {
	clear(x.units)
}
