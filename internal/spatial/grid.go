// Package spatial indexes live objects by position so proximity queries do
// not scan every object in a scene.
package spatial

import (
	"math"
	"sort"

	"github.com/enginert/runtime/internal/core/ecs"
)

// DefaultCellSize is used when NewGrid is given a non-positive size.
const DefaultCellSize = 16.0

type cellKey struct {
	scene  string
	cx, cz int64
}

type entry struct {
	key cellKey
	pos ecs.Vec3
}

// Grid buckets objects into square cells on the X/Z plane, one layer per
// scene. Accessed only from the update goroutine; no locks.
type Grid struct {
	size  float64
	cells map[cellKey]map[ecs.ObjectID]struct{}
	where map[ecs.ObjectID]entry
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		size:  cellSize,
		cells: make(map[cellKey]map[ecs.ObjectID]struct{}),
		where: make(map[ecs.ObjectID]entry),
	}
}

func (g *Grid) cell(v float64) int64 {
	return int64(math.Floor(v / g.size))
}

func (g *Grid) key(scene string, p ecs.Vec3) cellKey {
	return cellKey{scene: scene, cx: g.cell(p.X), cz: g.cell(p.Z)}
}

// Set places id at pos, moving it between cells when needed.
func (g *Grid) Set(id ecs.ObjectID, scene string, pos ecs.Vec3) {
	k := g.key(scene, pos)
	if old, ok := g.where[id]; ok {
		if old.key == k {
			g.where[id] = entry{key: k, pos: pos}
			return
		}
		g.unlink(id, old.key)
	}
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.ObjectID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
	g.where[id] = entry{key: k, pos: pos}
}

// Remove takes id out of the grid. Unknown ids are ignored.
func (g *Grid) Remove(id ecs.ObjectID) {
	if old, ok := g.where[id]; ok {
		g.unlink(id, old.key)
		delete(g.where, id)
	}
}

func (g *Grid) unlink(id ecs.ObjectID, k cellKey) {
	cell := g.cells[k]
	if cell == nil {
		return
	}
	delete(cell, id)
	if len(cell) == 0 {
		delete(g.cells, k)
	}
}

// Retain removes every id for which keep returns false.
func (g *Grid) Retain(keep func(ecs.ObjectID) bool) {
	for id := range g.where {
		if !keep(id) {
			g.Remove(id)
		}
	}
}

func (g *Grid) Len() int { return len(g.where) }

// Near returns the ids in scene within radius of pos (X/Z distance), sorted.
func (g *Grid) Near(scene string, pos ecs.Vec3, radius float64) []ecs.ObjectID {
	if radius < 0 {
		return nil
	}
	minX, maxX := g.cell(pos.X-radius), g.cell(pos.X+radius)
	minZ, maxZ := g.cell(pos.Z-radius), g.cell(pos.Z+radius)
	r2 := radius * radius

	var out []ecs.ObjectID
	for cx := minX; cx <= maxX; cx++ {
		for cz := minZ; cz <= maxZ; cz++ {
			for id := range g.cells[cellKey{scene: scene, cx: cx, cz: cz}] {
				p := g.where[id].pos
				dx, dz := p.X-pos.X, p.Z-pos.Z
				if dx*dx+dz*dz <= r2 {
					out = append(out, id)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
