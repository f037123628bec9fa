// Package blockhash provides the minimal spatial hash map the kernel
// package needs to exercise the Touch kernel's external Activate(keys) ->
// (addresses, masks) contract (spec.md §1 declares hash-map construction
// and insertion out of scope for the core; something still has to satisfy
// the contract end to end). It is an in-process, mutex-guarded map from
// block key to pool address — no persistence, no multi-process sharing.
package blockhash

import "sync"

// Key is a block coordinate (xb, yb, zb) in block units.
type Key [3]int64

// Map assigns pool addresses to block keys on first activation, up to a
// fixed capacity mirroring a real GPU hash map's fixed bucket/slot count.
type Map struct {
	mu       sync.Mutex
	addrOf   map[Key]int32
	keys     []Key
	capacity int32
}

// New creates a Map that can hold up to capacity distinct blocks.
func New(capacity int32) *Map {
	return &Map{
		addrOf:   make(map[Key]int32, capacity),
		keys:     make([]Key, 0, capacity),
		capacity: capacity,
	}
}

// Activate assigns (or looks up) a pool address for each key, in order.
// masks[i] is true iff keys[i] now has a valid address — either it already
// existed, or capacity allowed a fresh slot. Duplicate keys within the
// same call resolve to the same address.
func (m *Map) Activate(keys []Key) (addresses []int32, masks []bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	addresses = make([]int32, len(keys))
	masks = make([]bool, len(keys))
	for i, k := range keys {
		if addr, ok := m.addrOf[k]; ok {
			addresses[i] = addr
			masks[i] = true
			continue
		}
		if int32(len(m.keys)) >= m.capacity {
			addresses[i] = -1
			masks[i] = false
			continue
		}
		addr := int32(len(m.keys))
		m.addrOf[k] = addr
		m.keys = append(m.keys, k)
		addresses[i] = addr
		masks[i] = true
	}
	return addresses, masks
}

// Find looks up addresses without allocating new slots for missing keys.
func (m *Map) Find(keys []Key) (addresses []int32, masks []bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	addresses = make([]int32, len(keys))
	masks = make([]bool, len(keys))
	for i, k := range keys {
		if addr, ok := m.addrOf[k]; ok {
			addresses[i] = addr
			masks[i] = true
		} else {
			addresses[i] = -1
		}
	}
	return addresses, masks
}

// BlockKeys returns the block-key pool in address order, i.e. the B×3
// block_keys tensor backing array (spec.md §3).
func (m *Map) BlockKeys() []Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Key(nil), m.keys...)
}

// Len returns the number of currently allocated blocks.
func (m *Map) Len() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int32(len(m.keys))
}

// NeighborKey returns the block key offset by (dx,dy,dz) from base.
func NeighborKey(base Key, dx, dy, dz int64) Key {
	return Key{base[0] + dx, base[1] + dy, base[2] + dz}
}

// NeighborFlatIndex flattens a (dx,dy,dz) offset in {-1,0,1}^3 to the
// [0,27) index used by nb_indices/nb_masks (spec.md §3): nb = (dx+1) +
// 3(dy+1) + 9(dz+1), so the center (0,0,0) maps to 13.
func NeighborFlatIndex(dx, dy, dz int) int {
	return (dx + 1) + 3*(dy+1) + 9*(dz+1)
}
