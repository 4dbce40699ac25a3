package texbind

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/glstate/device"
	"github.com/gogpu/glstate/internal/texunit"
)

func newCache(capacity int) *Cache {
	return New(texunit.New(capacity))
}

func TestResolveHitAfterFirstBind(t *testing.T) {
	c := newCache(4)

	first, err := c.Resolve(10)
	require.NoError(t, err)
	assert.True(t, first.BindRequired)
	assert.Equal(t, device.TextureUnit(0), first.Unit)

	again, err := c.Resolve(10)
	require.NoError(t, err)
	assert.False(t, again.BindRequired)
	assert.Equal(t, first.Unit, again.Unit)
	assert.Equal(t, device.TextureID(device.InvalidID), again.Evicted)
}

func TestResolvePrefersEmptyUnits(t *testing.T) {
	c := newCache(3)

	for i, tex := range []device.TextureID{1, 2, 3} {
		res, err := c.Resolve(tex)
		require.NoError(t, err)
		assert.True(t, res.BindRequired)
		assert.Equal(t, device.TextureUnit(i), res.Unit)
		assert.Equal(t, device.TextureID(device.InvalidID), res.Evicted)
	}
	assert.Equal(t, 3, c.Len())
}

// Capacity 2: bind A, bind B, bind A, bind C. A's use was refreshed by the
// third request, so B is the least recently used and must be evicted.
func TestResolveEvictsLeastRecentlyUsed(t *testing.T) {
	const a, b, cc device.TextureID = 1, 2, 3
	c := newCache(2)
	binds := 0

	for _, tex := range []device.TextureID{a, b, a} {
		res, err := c.Resolve(tex)
		require.NoError(t, err)
		if res.BindRequired {
			binds++
		}
	}
	assert.Equal(t, 2, binds, "A, B, A must bind exactly twice")

	unitB, ok := c.Lookup(b)
	require.True(t, ok)

	res, err := c.Resolve(cc)
	require.NoError(t, err)
	assert.True(t, res.BindRequired, "third distinct texture must bind")
	assert.Equal(t, b, res.Evicted)
	assert.Equal(t, unitB, res.Unit)

	_, ok = c.Lookup(a)
	assert.True(t, ok, "A must stay resident")
	_, ok = c.Lookup(b)
	assert.False(t, ok, "B must be evicted")
}

func TestResolveZeroCapacity(t *testing.T) {
	c := newCache(0)

	res, err := c.Resolve(1)
	require.ErrorIs(t, err, ErrCapacityExhausted)
	assert.Equal(t, device.NoUnit, res.Unit)
	assert.False(t, res.BindRequired)
	assert.Equal(t, 0, c.Len())

	// A second call must not loop or change behavior.
	_, err = c.Resolve(1)
	require.ErrorIs(t, err, ErrCapacityExhausted)
}

func TestResolveDetectsStaleIndex(t *testing.T) {
	c := newCache(2)

	res, err := c.Resolve(5)
	require.NoError(t, err)
	slotIdx, ok := c.table.Index(res.Unit)
	require.True(t, ok)

	// Something overwrote the slot behind the index's back.
	c.table.Assign(slotIdx, 9)

	again, err := c.Resolve(5)
	require.NoError(t, err)
	assert.True(t, again.Stale)
	assert.True(t, again.BindRequired)
	got, _ := c.table.SlotAt(mustIndex(t, c, again.Unit))
	assert.Equal(t, device.TextureID(5), got)
}

func TestWithinCapacityBindsOncePerTexture(t *testing.T) {
	const capacity = 8
	rng := rand.New(rand.NewPCG(1, 2))

	for round := 0; round < 50; round++ {
		c := newCache(capacity)
		distinct := 1 + rng.IntN(capacity)
		binds := make(map[device.TextureID]int)

		for n := 0; n < 200; n++ {
			tex := device.TextureID(1 + rng.IntN(distinct))
			res, err := c.Resolve(tex)
			require.NoError(t, err)
			if res.BindRequired {
				binds[tex]++
			}
		}
		for tex, count := range binds {
			assert.Equal(t, 1, count, "round %d: texture %d bound %d times", round, tex, count)
		}
	}
}

// lruModel is a reference LRU over texture IDs.
type lruModel struct {
	capacity int
	order    []device.TextureID // least recent first
}

func (m *lruModel) access(tex device.TextureID) (miss bool, evicted device.TextureID) {
	if i := slices.Index(m.order, tex); i >= 0 {
		m.order = append(m.order[:i], m.order[i+1:]...)
		m.order = append(m.order, tex)
		return false, device.InvalidID
	}
	if len(m.order) == m.capacity {
		evicted = m.order[0]
		m.order = m.order[1:]
	}
	m.order = append(m.order, tex)
	return true, evicted
}

func TestBeyondCapacityMatchesLRU(t *testing.T) {
	const capacity = 4
	rng := rand.New(rand.NewPCG(7, 11))

	c := newCache(capacity)
	model := &lruModel{capacity: capacity}

	for n := 0; n < 2000; n++ {
		tex := device.TextureID(1 + rng.IntN(3*capacity))
		res, err := c.Resolve(tex)
		require.NoError(t, err)

		miss, evicted := model.access(tex)
		require.Equal(t, miss, res.BindRequired, "request %d (texture %d)", n, tex)
		require.Equal(t, evicted, res.Evicted, "request %d (texture %d)", n, tex)
	}
}

func TestDistinctStreamBindsEachTextureOnce(t *testing.T) {
	c := newCache(3)
	binds := 0

	// Each texture is used twice in a row; ten distinct textures overflow
	// the table, and each still costs exactly one bind.
	for tex := device.TextureID(1); tex <= 10; tex++ {
		for rep := 0; rep < 2; rep++ {
			res, err := c.Resolve(tex)
			require.NoError(t, err)
			if res.BindRequired {
				binds++
			}
		}
	}
	assert.Equal(t, 10, binds)
}

func TestForget(t *testing.T) {
	c := newCache(2)
	_, _ = c.Resolve(1)
	res2, _ := c.Resolve(2)

	unit, ok := c.Forget(2)
	require.True(t, ok)
	assert.Equal(t, res2.Unit, unit)

	_, ok = c.Lookup(2)
	assert.False(t, ok)

	// The freed slot is reused before evicting texture 1.
	res3, err := c.Resolve(3)
	require.NoError(t, err)
	assert.Equal(t, res2.Unit, res3.Unit)
	assert.Equal(t, device.TextureID(device.InvalidID), res3.Evicted)

	_, ok = c.Forget(42)
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	c := newCache(2)
	for _, tex := range []device.TextureID{1, 2} {
		_, err := c.Resolve(tex)
		require.NoError(t, err)
	}

	c.Reset()
	assert.Equal(t, 0, c.Len())

	for _, tex := range []device.TextureID{1, 2} {
		res, err := c.Resolve(tex)
		require.NoError(t, err)
		assert.True(t, res.BindRequired, "texture %d must rebind after Reset", tex)
	}
}

func TestReservedBase(t *testing.T) {
	c := New(texunit.NewWithBase(2, 3))

	res, err := c.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, device.TextureUnit(3), res.Unit)

	res, err = c.Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, device.TextureUnit(4), res.Unit)

	res, err = c.Resolve(3)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int(res.Unit), 3, "reserved units must never be assigned")
}

func mustIndex(t *testing.T, c *Cache, unit device.TextureUnit) int {
	t.Helper()
	i, ok := c.table.Index(unit)
	require.True(t, ok)
	return i
}
