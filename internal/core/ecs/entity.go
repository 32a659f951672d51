package ecs

import "fmt"

// ObjectID encodes a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. The generation increments on destroy so that component
// back-references to a destroyed object stop resolving.
type ObjectID uint64

func NewObjectID(index uint32, generation uint32) ObjectID {
	return ObjectID(uint64(generation)<<32 | uint64(index))
}

func (id ObjectID) Index() uint32      { return uint32(id) }
func (id ObjectID) Generation() uint32 { return uint32(id >> 32) }
func (id ObjectID) IsZero() bool       { return id == 0 }

func (id ObjectID) String() string {
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}

// ObjectPool allocates object ids with generational indices and a free list.
// Index 0 generation 0 is never handed out so the zero ObjectID means "unbound".
type ObjectPool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewObjectPool() *ObjectPool {
	return &ObjectPool{
		generations: []uint32{1},
		freeList:    make([]uint32, 0, 64),
		nextIndex:   1,
	}
}

func (p *ObjectPool) Create() ObjectID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewObjectID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewObjectID(idx, p.generations[idx])
}

func (p *ObjectPool) Alive(id ObjectID) bool {
	idx := id.Index()
	if id.IsZero() || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

func (p *ObjectPool) Destroy(id ObjectID) {
	if !p.Alive(id) {
		return // already destroyed (stale reference)
	}
	idx := id.Index()
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}
