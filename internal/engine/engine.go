// Package engine bundles the world's configuration into a single immutable
// value passed into world construction (worldmgr.New), replacing a
// package-level mutable settings singleton with an explicit dependency.
package engine

// Config is the full set of recognized world-manager options (§4.6), plus
// the voxel edge length and chunk edge size shared by every component.
type Config struct {
	// VoxelEdgeLength is E, in host world units (§6.4). Default 25.
	VoxelEdgeLength float32

	// ChunkSize is the cube edge length in voxels: 16 for mobile, 32 for
	// desktop (voxel.SizeMobile / voxel.SizeDesktop).
	ChunkSize int

	ViewDistanceChunks            int
	ChunkPoolSize                 int
	UseMultithreading             bool
	MaxConcurrentChunkGenerations int
	MobileMemoryBudgetMB          float64
	PCMemoryBudgetMB              float64
	PreserveEditorChunks          bool
	DisableDynamicGeneration      bool
	FlatWorldMode                 bool

	// ChunkUpdateIntervalMS is the streaming tick period, default ~100ms.
	ChunkUpdateIntervalMS int
	// MemoryCheckIntervalMS is the budget-enforcement period, default ~1s.
	MemoryCheckIntervalMS int
	// MaxPerFrame bounds dispatcher pops per tick, default 5.
	MaxPerFrame int
}

// DefaultConfig returns the reference configuration for a desktop target.
func DefaultConfig() Config {
	return Config{
		VoxelEdgeLength:               25,
		ChunkSize:                     32,
		ViewDistanceChunks:            4,
		ChunkPoolSize:                 256,
		UseMultithreading:             true,
		MaxConcurrentChunkGenerations: 4,
		PCMemoryBudgetMB:              512,
		MobileMemoryBudgetMB:          128,
		ChunkUpdateIntervalMS:         100,
		MemoryCheckIntervalMS:         1000,
		MaxPerFrame:                   5,
	}
}

// MemoryBudgetMB returns the budget that applies, preferring the PC budget
// unless it is zero and a mobile budget was set.
func (c Config) MemoryBudgetMB() float64 {
	if c.PCMemoryBudgetMB > 0 {
		return c.PCMemoryBudgetMB
	}
	return c.MobileMemoryBudgetMB
}

// Context is the immutable bundle passed into world construction
// (worldmgr.New) in place of a package-level mutable settings singleton
// (§9's "global mutable state" design note). Instrumentation stays on the
// existing package-level profiling.Track API — the smell §9 flags is a
// mutable world-generation settings struct with RWMutex getters/setters,
// not the profiling accumulator, so only configuration moves into this
// explicit, immutable bundle.
type Context struct {
	Config Config
}

// New builds a Context from a config.
func New(cfg Config) *Context {
	return &Context{Config: cfg}
}
