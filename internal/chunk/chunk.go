// Package chunk implements the chunk state machine (C5): a chunk owns a
// voxel grid and its most recently published mesh, and walks a small state
// machine between generation, meshing and ready-to-render.
package chunk

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"voxelcore/internal/mesh"
	"voxelcore/internal/voxel"
)

// State is a point in the chunk lifecycle.
type State int

const (
	Uninitialized State = iota
	Generating
	Generated
	Meshing
	Ready
	Unloading
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Generating:
		return "Generating"
	case Generated:
		return "Generated"
	case Meshing:
		return "Meshing"
	case Ready:
		return "Ready"
	case Unloading:
		return "Unloading"
	default:
		return "Unknown"
	}
}

// LOD is a level-of-detail tier; Unloaded means "no mesh, not rendered".
type LOD int

const (
	Unloaded LOD = iota
	LOD0
	LOD1
	LOD2
	LOD3
)

// ErrBusy is returned by GenerateMesh when a mesh job is already in flight.
var ErrBusy = errors.New("chunk: mesh generation already in progress")

// ErrLengthMismatch is returned by SetVoxelBatch on a points/materials
// length mismatch.
var ErrLengthMismatch = errors.New("chunk: point and material slice lengths differ")

// Pos addresses a chunk in chunk-space (not voxel/world space).
type Pos struct {
	X, Y, Z int
}

// Mesher produces mesh data from a voxel grid snapshot. The world manager's
// mesherFor composes mesh.BuildGreedy or mesh.BuildBasic with
// mesh.ConvertQuads to satisfy this.
type Mesher func(g *voxel.Grid) (*mesh.Data, error)

// Chunk owns one chunk's voxel data and its current mesh. All mutating
// operations take the internal lock; snapshots handed to mesh jobs are
// deep copies so worker goroutines never touch the live grid (§5).
type Chunk struct {
	mu sync.Mutex

	id   uuid.UUID
	pos  Pos
	grid *voxel.Grid

	state    State
	lod      LOD
	authored bool

	data       *mesh.Data
	generation uint64
}

// New returns an uninitialized chunk ready for Init.
func New() *Chunk {
	return &Chunk{state: Uninitialized}
}

// Init allocates a fresh voxel grid, mints a new identity and transitions
// to Generating. Callers fill voxels (template or procedural) and then
// call MarkGenerated.
func (c *Chunk) Init(pos Pos, size voxel.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.id = uuid.New()
	c.pos = pos
	c.grid = voxel.NewGrid(size)
	c.state = Generating
	c.lod = Unloaded
	c.authored = false
	c.data = nil
	c.generation++
}

// ID returns the chunk's stable identity, valid until ReturnToPool.
func (c *Chunk) ID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Pos returns the chunk-space coordinate this chunk was last Init'd with.
func (c *Chunk) Pos() Pos {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// State returns the current lifecycle state.
func (c *Chunk) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LOD returns the chunk's current level of detail.
func (c *Chunk) LOD() LOD {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lod
}

// Grid returns the live voxel grid. Callers on the main sequence may read
// and write it directly; mesh jobs must use a Snapshot taken via
// BeginMeshing, never this pointer.
func (c *Chunk) Grid() *voxel.Grid {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grid
}

// Mesh returns the most recently published mesh, or nil if none has been
// generated yet.
func (c *Chunk) Mesh() *mesh.Data {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Generation returns the chunk's current dispatch generation counter,
// bumped on every Init and every BeginMeshing call.
func (c *Chunk) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// MarkGenerated transitions Generating -> Generated once initial voxel
// fill (template or procedural) has completed.
func (c *Chunk) MarkGenerated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Generating {
		c.state = Generated
	}
}

// SetVoxel sets one voxel in range and marks the chunk dirty if the value
// changed. If remeshNow is true and the chunk is Ready, it transitions to
// Meshing immediately. It does not start a mesh job itself, and while the
// chunk is in Meshing, BeginMeshing and GenerateMesh report ErrBusy.
func (c *Chunk) SetVoxel(x, y, z int, m voxel.Voxel, remeshNow bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grid.Set(x, y, z, m)
	if remeshNow && c.state == Ready {
		c.state = Meshing
	}
}

// SetVoxelBatch applies a parallel points/materials update. Fails fast on
// a length mismatch without applying any of the batch.
func (c *Chunk) SetVoxelBatch(points []Pos, mats []voxel.Voxel) error {
	if len(points) != len(mats) {
		return ErrLengthMismatch
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range points {
		c.grid.Set(p.X, p.Y, p.Z, mats[i])
	}
	return nil
}

// FillRegion bulk-sets a clamped sub-box of the chunk to a single material.
func (c *Chunk) FillRegion(min, max Pos, m voxel.Voxel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := c.grid.Size()

	minX, maxX := clamp(min.X, 0, size.X-1), clamp(max.X, 0, size.X-1)
	minY, maxY := clamp(min.Y, 0, size.Y-1), clamp(max.Y, 0, size.Y-1)
	minZ, maxZ := clamp(min.Z, 0, size.Z-1), clamp(max.Z, 0, size.Z-1)

	for z := minZ; z <= maxZ; z++ {
		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				c.grid.Set(x, y, z, m)
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetLOD applies a level-of-detail change. Unloaded clears the mesh and
// returns the chunk to Uninitialized; any other level is recorded, and the
// caller (world manager) must separately enqueue a mesh job if NeedsMesh
// reports true afterward.
func (c *Chunk) SetLOD(l LOD) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l == Unloaded {
		c.data = nil
		c.lod = Unloaded
		c.state = Uninitialized
		return
	}
	c.lod = l
}

// NeedsMesh reports whether the chunk's grid has unmeshed edits or the
// chunk has never reached Ready.
func (c *Chunk) NeedsMesh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grid.Dirty() || c.state != Ready
}

// MarkAuthored flags the chunk as manually authored, protecting it from
// procedural overwrite (preserve_editor_chunks, §6).
func (c *Chunk) MarkAuthored() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authored = true
}

// IsAuthored reports the authored flag.
func (c *Chunk) IsAuthored() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authored
}

// BeginMeshing snapshots the grid for a mesh job and transitions to
// Meshing. It returns ErrBusy if a job is already in flight. The returned
// generation token must be passed to ApplyMesh; a result carrying a stale
// generation (because the chunk was re-initialized or re-meshed again in
// the meantime) is silently discarded there.
func (c *Chunk) BeginMeshing() (snapshot *voxel.Grid, generation uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Meshing {
		return nil, 0, ErrBusy
	}
	c.state = Meshing
	c.generation++
	return c.grid.Snapshot(), c.generation, nil
}

// ApplyMesh publishes a completed mesh if its generation still matches the
// chunk's current one, transitioning to Ready and clearing the dirty flag.
// It reports whether the mesh was applied (false means the result was
// stale and was discarded).
func (c *Chunk) ApplyMesh(generation uint64, data *mesh.Data) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation || c.state != Meshing {
		c.finishUnloading()
		return false
	}
	c.data = data
	c.state = Ready
	c.grid.ClearDirty()
	return true
}

// finishUnloading completes a pool return that arrived while a mesh job was
// still in flight (§5): ReturnToPool left the chunk in Unloading rather than
// resetting it immediately, since the job's own snapshot was still in use;
// the stale job's eventual ApplyMesh/FailMeshing handoff is what finally
// drops it to Uninitialized.
func (c *Chunk) finishUnloading() {
	if c.state == Unloading {
		c.state = Uninitialized
	}
}

// FailMeshing reverts a Meshing chunk to Generated after a job fails
// validation or errors internally (§7, MeshValidationFailed). It does not
// re-enqueue the chunk; the next GenerateMesh call (for example one queued
// by a later edit) meshes it again.
func (c *Chunk) FailMeshing(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation || c.state != Meshing {
		c.finishUnloading()
		return
	}
	c.state = Generated
}

// GenerateMesh runs the state machine's generate_mesh operation. If async
// is false it runs the mesher synchronously on the main sequence. If async
// is true, it calls submit with a closure the caller is expected to hand
// to a worker pool; the closure itself calls ApplyMesh/FailMeshing.
func (c *Chunk) GenerateMesh(async bool, mesher Mesher, submit func(job func())) error {
	snapshot, generation, err := c.BeginMeshing()
	if err != nil {
		return err
	}

	job := func() {
		data, err := mesher(snapshot)
		if err != nil {
			c.FailMeshing(generation)
			return
		}
		c.ApplyMesh(generation, data)
	}

	if !async {
		job()
		return nil
	}
	submit(job)
	return nil
}

// ReturnToPool releases the chunk's mesh and voxel grid for reuse from any
// state. If a mesh job is currently in flight (state == Meshing), the
// mesher is already working from its own grid Snapshot and is unaffected,
// but its eventual result must still be discarded rather than published
// against the pooled chunk's next occupant; the chunk is left in Unloading
// for that job's ApplyMesh/FailMeshing to finalize to Uninitialized (§5).
// Any other state resets straight to Uninitialized. The identity is
// cleared; a subsequent Init mints a new one.
func (c *Chunk) ReturnToPool() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Meshing {
		c.state = Unloading
	} else {
		c.state = Uninitialized
	}
	c.lod = Unloaded
	c.authored = false
	c.data = nil
	c.grid = nil
	c.id = uuid.UUID{}
}
