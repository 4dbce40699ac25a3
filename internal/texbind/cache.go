package texbind

import (
	"errors"

	"github.com/gogpu/glstate/device"
	"github.com/gogpu/glstate/internal/texunit"
)

// ErrCapacityExhausted is returned by Resolve when no texture unit can be
// chosen, which only happens when the table has zero capacity.
var ErrCapacityExhausted = errors.New("texbind: texture unit capacity exhausted")

// Resolution is the outcome of a Resolve call.
type Resolution struct {
	// Unit is the texture unit the texture must be sampled from.
	Unit device.TextureUnit

	// BindRequired is true when the device must be told to bind the texture
	// to Unit. It is false only for a verified cache hit.
	BindRequired bool

	// Evicted is the texture that previously occupied Unit and lost its
	// assignment, or InvalidID if the unit was empty or this was a hit.
	Evicted device.TextureID

	// Stale is true when the reverse index disagreed with the slot table and
	// the entry was discarded before resolving.
	Stale bool
}

// Cache decides which texture unit each texture is bound to.
//
// It keeps a reverse index (texture -> unit) consistent with a texunit.Table
// and minimizes the number of device binds across a sequence of requests:
// a texture already resident in a unit is reused, an empty unit is
// preferred for a new texture, and when the table is full the least
// recently used unit is evicted.
//
// Cache is a pure decision structure. It never calls the device; the caller
// issues a bind when Resolve reports BindRequired.
//
// Cache is not safe for concurrent use.
type Cache struct {
	table *texunit.Table
	index *reverseIndex
}

// New creates a cache over the given slot table.
// The table must not be shared with another cache.
func New(table *texunit.Table) *Cache {
	return &Cache{
		table: table,
		index: newReverseIndex(table.Capacity()),
	}
}

// Capacity returns the number of units the cache can assign.
func (c *Cache) Capacity() int {
	return c.table.Capacity()
}

// Resolve returns the unit tex should be bound to.
//
// Resolution steps:
//  1. If tex is in the reverse index and the table slot still holds tex,
//     the unit is reused: BindRequired is false and the slot is touched.
//  2. Otherwise the first empty slot is chosen; if none is empty the least
//     recently used slot is evicted.
//  3. The assignment is recorded in the table and the index; the evicted
//     texture's index entry is removed.
//  4. The unit is returned with BindRequired set.
//
// With zero capacity nothing is evicted and ErrCapacityExhausted is
// returned.
func (c *Cache) Resolve(tex device.TextureID) (Resolution, error) {
	var res Resolution

	if unit, ok := c.index.Get(tex); ok {
		if i, inTable := c.table.Index(unit); inTable {
			if bound, _ := c.table.SlotAt(i); bound == tex {
				c.table.Touch(i)
				res.Unit = unit
				return res, nil
			}
		}
		// The index and the table disagree. Trust neither; rebind.
		c.index.Delete(tex)
		res.Stale = true
	}

	i, ok := c.table.FirstEmpty()
	if !ok {
		i, ok = c.table.LeastRecentlyUsed()
		if !ok {
			res.Unit = device.NoUnit
			return res, ErrCapacityExhausted
		}
		if old, occupied := c.table.SlotAt(i); occupied {
			c.index.Delete(old)
			res.Evicted = old
		}
	}

	c.table.Assign(i, tex)
	unit := c.table.Unit(i)
	c.index.Put(tex, unit)

	res.Unit = unit
	res.BindRequired = true
	return res, nil
}

// Lookup returns the unit tex is believed to be bound to, without changing
// any use times. The result is verified against the table.
func (c *Cache) Lookup(tex device.TextureID) (device.TextureUnit, bool) {
	unit, ok := c.index.Get(tex)
	if !ok {
		return device.NoUnit, false
	}
	i, inTable := c.table.Index(unit)
	if !inTable {
		return device.NoUnit, false
	}
	if bound, _ := c.table.SlotAt(i); bound != tex {
		return device.NoUnit, false
	}
	return unit, true
}

// Forget drops tex from the cache and frees its slot. Use it when the
// texture object is destroyed: devices may hand the same name to a new
// texture later. Returns the unit tex occupied.
func (c *Cache) Forget(tex device.TextureID) (device.TextureUnit, bool) {
	unit, ok := c.index.Get(tex)
	if !ok {
		return device.NoUnit, false
	}
	c.index.Delete(tex)
	if i, inTable := c.table.Index(unit); inTable {
		if bound, _ := c.table.SlotAt(i); bound == tex {
			c.table.Clear(i)
		}
	}
	return unit, true
}

// Reset forgets every assignment: all slots are emptied and the reverse
// index is cleared. The next Resolve of any texture reports BindRequired.
func (c *Cache) Reset() {
	c.table.ClearAll()
	c.index.Clear()
}

// Len returns the number of textures with a recorded assignment.
func (c *Cache) Len() int {
	return c.index.Len()
}
