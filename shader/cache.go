package shader

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/hashicorp/golang-lru/simplelru"

	"github.com/gogpu/glstate/device"
)

// Source is the source text of one stage.
type Source struct {
	Kind device.StageKind
	Code string
}

// CacheStats holds program cache counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// Cache keeps linked programs keyed by their stage sources and releases
// programs as they fall out of the LRU window.
//
// Programs returned by the cache are owned by it. Callers must not release
// them; use Remove or Purge instead.
type Cache struct {
	dev     device.Device
	lru     *simplelru.LRU
	onEvict func(*Program)

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewCache creates a program cache holding at most size programs.
func NewCache(dev device.Device, size int) (*Cache, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	c := &Cache{dev: dev}
	lru, err := simplelru.NewLRU(size, c.evicted)
	if err != nil {
		return nil, fmt.Errorf("shader: program cache: %w", err)
	}
	c.lru = lru
	return c, nil
}

// SetOnEvict registers fn to be called with each program just before the
// cache releases it. glstate.Context uses it to scrub its current-program
// shadow.
func (c *Cache) SetOnEvict(fn func(*Program)) {
	c.onEvict = fn
}

// Program returns the program linked from sources, building it on a miss.
//
// Build failures are not cached: the same sources are compiled again on the
// next call.
func (c *Cache) Program(sources ...Source) (*Program, error) {
	if len(sources) == 0 {
		return nil, ErrNoStages
	}
	key := HashSources(sources)

	if v, ok := c.lru.Get(key); ok {
		p := v.(*Program)
		if !p.Released() {
			c.hits++
			return p, nil
		}
		c.lru.Remove(key)
	}
	c.misses++

	l, err := NewLinker(c.dev)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	for _, src := range sources {
		if _, err := l.AttachStage(src.Code, src.Kind); err != nil {
			return nil, err
		}
	}
	p, err := l.Link()
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, p)
	return p, nil
}

// Remove evicts and releases the program built from sources.
func (c *Cache) Remove(sources ...Source) bool {
	return c.lru.Remove(HashSources(sources))
}

// Purge evicts and releases every cached program.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Stats returns the cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.lru.Len(),
	}
}

// evicted is the simplelru eviction callback.
func (c *Cache) evicted(_, value interface{}) {
	p, ok := value.(*Program)
	if !ok {
		return
	}
	if !p.Released() {
		c.evictions++
		if c.onEvict != nil {
			c.onEvict(p)
		}
	}
	p.Release()
}

// HashSources computes a cache key for a list of stage sources.
// The order of the sources is significant.
func HashSources(sources []Source) uint64 {
	h := fnv.New64a()
	var buf [9]byte
	for _, src := range sources {
		buf[0] = byte(src.Kind)
		binary.LittleEndian.PutUint64(buf[1:], uint64(len(src.Code)))
		h.Write(buf[:])
		h.Write([]byte(src.Code))
	}
	return h.Sum64()
}
