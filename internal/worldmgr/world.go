// Package worldmgr implements the world manager (C6): the active chunk map,
// free chunk pool, viewer-centric streaming tick, priority work queue,
// memory budget enforcement, and the set-voxel/bulk-edit entry points that
// drive chunk (re)generation.
package worldmgr

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/chunk"
	"voxelcore/internal/engine"
	"voxelcore/internal/lod"
	"voxelcore/internal/mesh"
	"voxelcore/internal/profiling"
	"voxelcore/internal/template"
	"voxelcore/internal/voxel"
	"voxelcore/internal/workerpool"
)

// chunkPos is chunk.Pos under a shorter local name; the two are freely
// interchangeable (the exported surface uses chunk.Pos directly).
type chunkPos = chunk.Pos

// World owns the active chunk map, the free pool, and the priority work
// queue, and drives streaming, meshing dispatch, and budget enforcement.
type World struct {
	mu sync.Mutex

	cfg  engine.Config
	size voxel.Size

	active map[chunkPos]*chunk.Chunk
	pool   []*chunk.Chunk
	total  int // chunks ever allocated (active + pooled), capped at cfg.ChunkPoolSize

	// colIndex groups active chunks by (x,z) column for XZ-radius queries,
	// independent of the full active map scan a distance sort would need.
	colIndex map[[2]int][]*chunk.Chunk

	queue *taskQueue

	inFlight int64 // atomic

	workers *workerpool.Pool

	tpl        *template.Template
	procedural *template.ProceduralGenerator
	seed       int64

	viewerPos      mgl32.Vec3
	modCount       uint64
	budgetExceeded bool
}

// New builds a world manager from an engine context. tpl may be nil (no
// hand-authored content; every chunk falls back to the procedural
// generator). seed drives both the procedural fallback and
// apply_seed_variation.
func New(ctx *engine.Context, tpl *template.Template, seed int64) *World {
	cfg := ctx.Config
	w := &World{
		cfg:        cfg,
		size:       voxel.Cube(cfg.ChunkSize),
		active:     make(map[chunkPos]*chunk.Chunk),
		colIndex:   make(map[[2]int][]*chunk.Chunk),
		queue:      newTaskQueue(),
		tpl:        tpl,
		procedural: &template.ProceduralGenerator{Seed: seed},
		seed:       seed,
	}
	if cfg.UseMultithreading {
		workers := cfg.MaxConcurrentChunkGenerations
		if workers < 1 {
			workers = 1
		}
		w.workers = workerpool.New(workers, cfg.ChunkPoolSize)
	}
	return w
}

// Shutdown stops the backing worker pool, if one was created.
func (w *World) Shutdown() {
	if w.workers != nil {
		w.workers.Shutdown()
	}
}

// ActiveCount returns the number of chunks currently in the active map.
func (w *World) ActiveCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.active)
}

// Chunk returns the active chunk at pos, if any.
func (w *World) Chunk(pos chunkPos) (*chunk.Chunk, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.active[pos]
	return c, ok
}

// ModCount returns the current modification counter (§4.6's "generation
// counter" on the world, bumped by streaming, set_voxel, and bulk edits).
func (w *World) ModCount() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.modCount
}

// BudgetExceeded reports whether the world is currently over its memory
// budget (the one-shot signal stays set until usage returns under budget).
func (w *World) BudgetExceeded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.budgetExceeded
}

// QueueLength returns the number of tasks currently pending dispatch.
func (w *World) QueueLength() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.Len()
}

// InFlight returns the number of mesh jobs currently dispatched but not yet
// completed.
func (w *World) InFlight() int {
	return int(atomic.LoadInt64(&w.inFlight))
}

// --- coordinate conventions (§6.4) ---

func (w *World) cellSize() mgl32.Vec3 {
	e := w.cfg.VoxelEdgeLength
	return mgl32.Vec3{float32(w.size.X) * e, float32(w.size.Y) * e, float32(w.size.Z) * e}
}

// worldToChunk floors p / (size*E) componentwise.
func (w *World) worldToChunk(p mgl32.Vec3) chunkPos {
	cell := w.cellSize()
	return chunkPos{
		X: int(math.Floor(float64(p.X() / cell.X()))),
		Y: int(math.Floor(float64(p.Y() / cell.Y()))),
		Z: int(math.Floor(float64(p.Z() / cell.Z()))),
	}
}

// worldToLocal floors (p - cp*size*E) / E componentwise.
func (w *World) worldToLocal(p mgl32.Vec3, cp chunkPos) chunkPos {
	e := w.cfg.VoxelEdgeLength
	cell := w.cellSize()
	origin := mgl32.Vec3{float32(cp.X) * cell.X(), float32(cp.Y) * cell.Y(), float32(cp.Z) * cell.Z()}
	rel := p.Sub(origin)
	return chunkPos{
		X: int(math.Floor(float64(rel.X() / e))),
		Y: int(math.Floor(float64(rel.Y() / e))),
		Z: int(math.Floor(float64(rel.Z() / e))),
	}
}

// chunkWorldCenter returns the world-space center of the chunk at pos.
func (w *World) chunkWorldCenter(p chunkPos) mgl32.Vec3 {
	cell := w.cellSize()
	half := cell.Mul(0.5)
	return mgl32.Vec3{float32(p.X) * cell.X(), float32(p.Y) * cell.Y(), float32(p.Z) * cell.Z()}.Add(half)
}

// --- allocation ---

// --- column index ---

func columnKey(p chunkPos) [2]int { return [2]int{p.X, p.Z} }

func (w *World) indexInsertLocked(p chunkPos, c *chunk.Chunk) {
	key := columnKey(p)
	w.colIndex[key] = append(w.colIndex[key], c)
}

func (w *World) indexRemoveLocked(p chunkPos, c *chunk.Chunk) {
	key := columnKey(p)
	col := w.colIndex[key]
	for i, cc := range col {
		if cc == c {
			col[i] = col[len(col)-1]
			col = col[:len(col)-1]
			break
		}
	}
	if len(col) == 0 {
		delete(w.colIndex, key)
	} else {
		w.colIndex[key] = col
	}
}

// ChunksInColumn returns every active chunk sharing column (x,z), in no
// particular order.
func (w *World) ChunksInColumn(x, z int) []*chunk.Chunk {
	w.mu.Lock()
	defer w.mu.Unlock()
	col := w.colIndex[[2]int{x, z}]
	out := make([]*chunk.Chunk, len(col))
	copy(out, col)
	return out
}

// ChunksInRadiusXZ returns every active chunk whose column lies within
// radius (chunk units) of (cx,cz), ignoring Y — the column-index analogue
// of AppendChunksInRadiusXZ, useful for host height/biome queries that
// don't want to scan the whole active map.
func (w *World) ChunksInRadiusXZ(cx, cz, radius int) []*chunk.Chunk {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*chunk.Chunk
	r2 := radius * radius
	for key, col := range w.colIndex {
		dx, dz := key[0]-cx, key[1]-cz
		if dx*dx+dz*dz > r2 {
			continue
		}
		out = append(out, col...)
	}
	return out
}

func (w *World) allocateLocked() (*chunk.Chunk, error) {
	if n := len(w.pool); n > 0 {
		c := w.pool[n-1]
		w.pool = w.pool[:n-1]
		return c, nil
	}
	if w.total >= w.cfg.ChunkPoolSize {
		return nil, ErrPoolExhausted
	}
	w.total++
	return chunk.New(), nil
}

// AdoptChunk registers a pre-existing, already-populated chunk as authored
// (preserve_editor_chunks: "on startup adopt pre-existing chunks in the
// scene as authored").
func (w *World) AdoptChunk(pos chunkPos, c *chunk.Chunk) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.cfg.PreserveEditorChunks {
		return ErrPreserveDisabled
	}
	c.MarkAuthored()
	w.active[pos] = c
	w.indexInsertLocked(pos, c)
	w.total++
	w.modCount++
	return nil
}

// populate fills a freshly initialized chunk's voxels: template content
// (plus seed variation overlay) if mapped, else the procedural fallback.
// An authored chunk is never refilled (Testable property 11), even if its
// voxels happen to be all Air.
func (w *World) populate(c *chunk.Chunk, pos chunkPos) {
	defer profiling.Track("worldmgr.populate")()
	if c.IsAuthored() {
		return
	}
	if w.tpl != nil {
		if ok, err := template.LoadChunk(w.tpl, pos, c); err == nil && ok {
			if w.tpl.AllowSeedVariations {
				template.ApplySeedVariation(w.tpl, c, w.seed, pos)
			}
			return
		}
	}
	w.procedural.Fill(c, pos)
}

// getOrCreateChunkLocked returns the active chunk at pos, creating and
// populating it if absent. In flat_world_mode it returns (nil, nil) for any
// z != 0 position without creating anything (§4.6, §7 flat-world rejection;
// E6).
func (w *World) getOrCreateChunkLocked(pos chunkPos) (*chunk.Chunk, error) {
	if c, ok := w.active[pos]; ok {
		return c, nil
	}
	if w.cfg.FlatWorldMode && pos.Z != 0 {
		return nil, nil
	}
	c, err := w.allocateLocked()
	if err != nil {
		return nil, err
	}
	c.Init(pos, w.size)
	w.populate(c, pos)
	c.MarkGenerated()
	c.SetLOD(lod.LOD0)
	w.active[pos] = c
	w.indexInsertLocked(pos, c)
	w.modCount++
	w.enqueueLocked(pos, w.priorityForLocked(pos), false)
	return c, nil
}

// GetOrCreateChunk is the public get-or-create entry point (E6's direct
// call site); it takes the world lock itself.
func (w *World) GetOrCreateChunk(pos chunkPos) (*chunk.Chunk, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.getOrCreateChunkLocked(pos)
}

func (w *World) priorityForLocked(pos chunkPos) int {
	d := w.chunkWorldCenter(pos).Sub(w.viewerPos).Len()
	return int(math.Floor(float64(d) / 1000))
}

func (w *World) enqueueLocked(pos chunkPos, priority int, isRegenerate bool) {
	w.queue.push(pos, priority, isRegenerate)
}

// --- streaming tick (§4.6) ---

// requiredSetLocked computes R = { v + (dx,dy,dz) | |dx|,|dy| <= view_distance,
// dz in Z-range }, with Z-range = {0} under flat_world_mode else [-2,+2].
func (w *World) requiredSetLocked(v chunkPos) map[chunkPos]struct{} {
	vd := w.cfg.ViewDistanceChunks
	zRange := []int{-2, -1, 0, 1, 2}
	if w.cfg.FlatWorldMode {
		zRange = []int{0}
	}
	r := make(map[chunkPos]struct{}, (2*vd+1)*(2*vd+1)*len(zRange))
	for _, dz := range zRange {
		for dx := -vd; dx <= vd; dx++ {
			for dy := -vd; dy <= vd; dy++ {
				r[chunkPos{X: v.X + dx, Y: v.Y + dy, Z: v.Z + dz}] = struct{}{}
			}
		}
	}
	return r
}

// Tick runs one streaming iteration: load chunks newly within the required
// set, unload chunks that fell out of it, then drains the dispatcher.
func (w *World) Tick(viewerWorldPos mgl32.Vec3) {
	defer profiling.Track("worldmgr.Tick")()
	w.mu.Lock()
	defer w.mu.Unlock()

	w.viewerPos = viewerWorldPos
	v := w.worldToChunk(viewerWorldPos)
	required := w.requiredSetLocked(v)

	for p := range required {
		if _, ok := w.active[p]; ok {
			continue
		}
		if w.cfg.DisableDynamicGeneration {
			continue
		}
		// getOrCreateChunkLocked already honors flat_world_mode and pool
		// exhaustion; a PoolExhausted error here leaves p unloaded and
		// streaming continues (§7).
		_, _ = w.getOrCreateChunkLocked(p)
	}

	for p, c := range w.active {
		if _, ok := required[p]; ok {
			continue
		}
		delete(w.active, p)
		w.indexRemoveLocked(p, c)
		c.ReturnToPool()
		w.pool = append(w.pool, c)
		w.modCount++
	}

	w.dispatchLocked()
}

// Dispatch runs one dispatcher pass over the pending task queue, bounded by
// max_per_frame and max_concurrent_chunk_generations. §4.7 notes the
// dispatcher may run at a higher frequency than the streaming tick; hosts
// that want finer-grained mesh turnaround call this directly instead of
// waiting for the next Tick.
func (w *World) Dispatch() {
	defer profiling.Track("worldmgr.Dispatch")()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dispatchLocked()
}

// --- dispatcher (§4.6, §4.7) ---

func (w *World) mesherFor(l lod.Level) chunk.Mesher {
	scale := lod.VoxelScale(l)
	edge := w.cfg.VoxelEdgeLength * scale
	maxExtent := w.size.X
	if w.size.Y > maxExtent {
		maxExtent = w.size.Y
	}
	if w.size.Z > maxExtent {
		maxExtent = w.size.Z
	}
	if lod.UsesBasicMesher(l) {
		return func(g *voxel.Grid) (*mesh.Data, error) {
			return mesh.ConvertQuads(mesh.BuildBasic(g), edge, maxExtent)
		}
	}
	return func(g *voxel.Grid) (*mesh.Data, error) {
		return mesh.ConvertQuads(mesh.BuildGreedy(g), edge, maxExtent)
	}
}

// dispatchLocked pops tasks while under the concurrency and per-tick caps,
// dispatching any whose chunk still needs meshing.
func (w *World) dispatchLocked() {
	processed := 0
	for processed < w.cfg.MaxPerFrame && atomic.LoadInt64(&w.inFlight) < int64(w.cfg.MaxConcurrentChunkGenerations) {
		t, ok := w.queue.pop()
		if !ok {
			break
		}
		c, exists := w.active[t.pos]
		if !exists {
			continue
		}
		if c.State() != chunk.Ready || t.isRegenerate {
			w.dispatchChunk(c)
			processed++
		}
	}
}

func (w *World) dispatchChunk(c *chunk.Chunk) {
	mesher := w.mesherFor(c.LOD())
	async := w.cfg.UseMultithreading && w.workers != nil
	if !async {
		_ = c.GenerateMesh(false, mesher, nil)
		return
	}
	atomic.AddInt64(&w.inFlight, 1)
	err := c.GenerateMesh(true, mesher, func(job func()) {
		wrapped := func() {
			job()
			atomic.AddInt64(&w.inFlight, -1)
		}
		if !w.workers.SubmitJob(wrapped) {
			// Queue full: run inline rather than dropping the job — the
			// dispatcher already bounded how many jobs it hands out per
			// tick, so this is a rare saturation case, not the norm.
			wrapped()
		}
	})
	if err != nil {
		atomic.AddInt64(&w.inFlight, -1)
	}
}

// --- UpdateLOD (C9 wiring) ---

// UpdateLOD recomputes each active chunk's LOD tier from its distance to
// the viewer (§4.9, run at ~500ms by the host) and enqueues a regeneration
// for any chunk whose tier changed and which still needs meshing (LOD3 and
// Unloaded never mesh; Unloaded additionally clears any existing mesh).
func (w *World) UpdateLOD(viewerWorldPos mgl32.Vec3) {
	defer profiling.Track("worldmgr.UpdateLOD")()
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, c := range w.active {
		d := float64(w.chunkWorldCenter(p).Sub(viewerWorldPos).Len())
		next := lod.Select(d)
		current := c.LOD()
		if !lod.ShouldRegenerate(current, next) {
			continue
		}
		c.SetLOD(next)
		if lod.UsesGreedyMesher(next) || lod.UsesBasicMesher(next) {
			w.enqueueLocked(p, w.priorityForLocked(p), true)
		}
	}
}

// --- set_voxel / bulk edits (§4.6) ---

// SetVoxel translates a world position to (chunk, local), gets-or-creates
// the owning chunk, sets the voxel, and (if the edit touched a chunk face)
// enqueues the 26 existing neighboring chunks for regeneration at priority
// 1.
func (w *World) SetVoxel(worldPos mgl32.Vec3, m voxel.Voxel) error {
	defer profiling.Track("worldmgr.SetVoxel")()
	w.mu.Lock()
	defer w.mu.Unlock()

	cp := w.worldToChunk(worldPos)
	local := w.worldToLocal(worldPos, cp)
	c, err := w.getOrCreateChunkLocked(cp)
	if err != nil {
		return err
	}
	if c == nil {
		return nil // flat-world rejection
	}
	c.SetVoxel(local.X, local.Y, local.Z, m, false)
	w.enqueueLocked(cp, w.priorityForLocked(cp), true)
	if w.onChunkFace(local) {
		w.enqueueNeighborsLocked(cp)
	}
	w.modCount++
	return nil
}

func (w *World) onChunkFace(local chunkPos) bool {
	return local.X == 0 || local.X == w.size.X-1 ||
		local.Y == 0 || local.Y == w.size.Y-1 ||
		local.Z == 0 || local.Z == w.size.Z-1
}

func (w *World) enqueueNeighborsLocked(cp chunkPos) {
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				np := chunkPos{X: cp.X + dx, Y: cp.Y + dy, Z: cp.Z + dz}
				if _, ok := w.active[np]; ok {
					w.enqueueLocked(np, 1, true)
				}
			}
		}
	}
}

// SetSphere applies m to every voxel whose center lies within radius of
// center (world units), deduplicating touched chunks and enqueueing each
// once as a priority-0 regeneration.
func (w *World) SetSphere(center mgl32.Vec3, radius float32, m voxel.Voxel) {
	defer profiling.Track("worldmgr.SetSphere")()
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.cfg.VoxelEdgeLength
	rVox := int(math.Ceil(float64(radius / e)))
	cx := int(math.Round(float64(center.X() / e)))
	cy := int(math.Round(float64(center.Y() / e)))
	cz := int(math.Round(float64(center.Z() / e)))
	r2 := radius * radius

	touched := make(map[chunkPos]struct{})
	for dz := -rVox; dz <= rVox; dz++ {
		for dy := -rVox; dy <= rVox; dy++ {
			for dx := -rVox; dx <= rVox; dx++ {
				vx, vy, vz := cx+dx, cy+dy, cz+dz
				wp := mgl32.Vec3{(float32(vx) + 0.5) * e, (float32(vy) + 0.5) * e, (float32(vz) + 0.5) * e}
				if wp.Sub(center).LenSqr() > r2 {
					continue
				}
				cp := w.worldToChunk(wp)
				local := w.worldToLocal(wp, cp)
				c, err := w.getOrCreateChunkLocked(cp)
				if err != nil || c == nil {
					continue
				}
				c.SetVoxel(local.X, local.Y, local.Z, m, false)
				touched[cp] = struct{}{}
			}
		}
	}
	for cp := range touched {
		w.enqueueLocked(cp, 0, true)
	}
	if len(touched) > 0 {
		w.modCount++
	}
}

// SetBox applies m to every voxel whose index on each axis lies between
// floor(min/E) and ceil(max/E) inclusive (min and max in world units), with
// the same dedup/enqueue policy as SetSphere.
func (w *World) SetBox(min, max mgl32.Vec3, m voxel.Voxel) {
	defer profiling.Track("worldmgr.SetBox")()
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.cfg.VoxelEdgeLength
	minVox := [3]int{
		int(math.Floor(float64(min.X() / e))),
		int(math.Floor(float64(min.Y() / e))),
		int(math.Floor(float64(min.Z() / e))),
	}
	maxVox := [3]int{
		int(math.Ceil(float64(max.X() / e))),
		int(math.Ceil(float64(max.Y() / e))),
		int(math.Ceil(float64(max.Z() / e))),
	}

	touched := make(map[chunkPos]struct{})
	for vz := minVox[2]; vz <= maxVox[2]; vz++ {
		for vy := minVox[1]; vy <= maxVox[1]; vy++ {
			for vx := minVox[0]; vx <= maxVox[0]; vx++ {
				wp := mgl32.Vec3{(float32(vx) + 0.5) * e, (float32(vy) + 0.5) * e, (float32(vz) + 0.5) * e}
				cp := w.worldToChunk(wp)
				local := w.worldToLocal(wp, cp)
				c, err := w.getOrCreateChunkLocked(cp)
				if err != nil || c == nil {
					continue
				}
				c.SetVoxel(local.X, local.Y, local.Z, m, false)
				touched[cp] = struct{}{}
			}
		}
	}
	for cp := range touched {
		w.enqueueLocked(cp, 0, true)
	}
	if len(touched) > 0 {
		w.modCount++
	}
}

// --- memory budget enforcement (§4.6) ---

func (w *World) estimateMemoryMBLocked() float64 {
	var vertices, triangles int
	for _, c := range w.active {
		if d := c.Mesh(); d != nil {
			vertices += d.VertexCount()
			triangles += d.TriangleCount()
		}
	}
	return float64(len(w.active))*0.1 +
		float64(vertices)*32.0/(1024*1024) +
		float64(triangles)*12.0/(1024*1024)
}

// EnforceBudget estimates current memory use and, if over the configured
// cap, unloads the farthest max(1, active/10) chunks back to the pool,
// arming the one-shot BudgetExceeded signal. It rearms (clears the signal)
// once usage is back under budget.
func (w *World) EnforceBudget() {
	defer profiling.Track("worldmgr.EnforceBudget")()
	w.mu.Lock()
	defer w.mu.Unlock()

	used := w.estimateMemoryMBLocked()
	budgetCap := w.cfg.MemoryBudgetMB()
	if used <= budgetCap {
		w.budgetExceeded = false
		return
	}
	w.budgetExceeded = true

	type distChunk struct {
		pos  chunkPos
		c    *chunk.Chunk
		dist float32
	}
	list := make([]distChunk, 0, len(w.active))
	for p, c := range w.active {
		list = append(list, distChunk{pos: p, c: c, dist: w.chunkWorldCenter(p).Sub(w.viewerPos).Len()})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].dist > list[j].dist })

	n := len(list) / 10
	if n < 1 {
		n = 1
	}
	if n > len(list) {
		n = len(list)
	}
	for i := 0; i < n; i++ {
		p := list[i].pos
		c := list[i].c
		delete(w.active, p)
		w.indexRemoveLocked(p, c)
		c.ReturnToPool()
		w.pool = append(w.pool, c)
		w.modCount++
	}
}
