package voxel

import "voxelcore/internal/profiling"

// Grid is a dense, row-major voxel array for one chunk. Reads outside the
// grid's bounds return Air rather than panicking (Invariant 1).
type Grid struct {
	size   Size
	voxels []Voxel
	dirty  bool
}

// NewGrid allocates a grid of the given size, all voxels Air.
func NewGrid(size Size) *Grid {
	return &Grid{
		size:   size,
		voxels: make([]Voxel, size.Volume()),
	}
}

// Size returns the grid's immutable dimensions.
func (g *Grid) Size() Size { return g.size }

// Len returns N, the total voxel count.
func (g *Grid) Len() int { return len(g.voxels) }

// Dirty reports whether the voxel array changed since the last ClearDirty.
func (g *Grid) Dirty() bool { return g.dirty }

// ClearDirty resets the dirty flag, typically called once a mesh job has
// consumed a snapshot of the grid.
func (g *Grid) ClearDirty() { g.dirty = false }

// Get returns the voxel at (x,y,z), or Air if out of range.
func (g *Grid) Get(x, y, z int) Voxel {
	if !g.size.InBounds(x, y, z) {
		return Air
	}
	return g.voxels[g.size.Index(x, y, z)]
}

// Set writes the voxel at (x,y,z) if in range. Out-of-range writes are
// silent no-ops. Sets dirty=true only if the value actually changes.
func (g *Grid) Set(x, y, z int, v Voxel) {
	if !g.size.InBounds(x, y, z) {
		return
	}
	idx := g.size.Index(x, y, z)
	if g.voxels[idx] != v {
		g.voxels[idx] = v
		g.dirty = true
	}
}

// Clear sets every voxel to Air and marks the grid dirty.
func (g *Grid) Clear() {
	for i := range g.voxels {
		g.voxels[i] = Air
	}
	g.dirty = true
}

// FillWith bulk-sets voxels via a callback invoked once per voxel in
// row-major order. A single dirty flip is applied at the end regardless of
// how many voxels the callback touches.
func (g *Grid) FillWith(f func(x, y, z int) Voxel) {
	defer profiling.Track("voxel.Grid.FillWith")()
	sx, sy, sz := g.size.X, g.size.Y, g.size.Z
	for z := 0; z < sz; z++ {
		for y := 0; y < sy; y++ {
			for x := 0; x < sx; x++ {
				g.voxels[g.size.Index(x, y, z)] = f(x, y, z)
			}
		}
	}
	g.dirty = true
}

// Snapshot returns an independent copy of the voxel array, used to hand a
// stable view of the grid to a mesh job running on another goroutine (§5).
func (g *Grid) Snapshot() *Grid {
	cp := make([]Voxel, len(g.voxels))
	copy(cp, g.voxels)
	return &Grid{size: g.size, voxels: cp}
}

// IsAir is a convenience wrapper around Get for neighbor-visibility checks.
func (g *Grid) IsAir(x, y, z int) bool { return g.Get(x, y, z).IsAir() }
