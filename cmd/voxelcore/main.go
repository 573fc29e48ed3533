// Command voxelcore runs a headless demo of the world manager: a scripted
// viewer walks a straight line while the streaming tick, LOD update, and
// budget enforcement each run once per iteration, with iterations spaced by
// the configured chunk update interval, logging per-tick stats.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/engine"
	"voxelcore/internal/profiling"
	"voxelcore/internal/worldmgr"
)

func main() {
	var (
		viewDistance = flag.Int("view-distance", 4, "view distance, in chunks")
		chunkSize    = flag.Int("chunk-size", 32, "chunk edge length, in voxels")
		flatWorld    = flag.Bool("flat-world", false, "restrict generation to the z=0 chunk layer")
		ticks        = flag.Int("ticks", 20, "number of streaming ticks to run")
		speed        = flag.Float64("speed", 25, "viewer speed, world units per tick")
		seed         = flag.Int64("seed", 1, "procedural generation seed")
	)
	flag.Parse()

	cfg := engine.DefaultConfig()
	cfg.ViewDistanceChunks = *viewDistance
	cfg.ChunkSize = *chunkSize
	cfg.FlatWorldMode = *flatWorld

	ctx := engine.New(cfg)
	w := worldmgr.New(ctx, nil, *seed)
	defer w.Shutdown()

	viewer := mgl32.Vec3{0, 0, 0}
	stride := mgl32.Vec3{float32(*speed), 0, 0}

	for i := 0; i < *ticks; i++ {
		profiling.ResetFrame()

		w.Tick(viewer)
		w.UpdateLOD(viewer)
		w.EnforceBudget()

		log.Printf("tick %3d: viewer=%v active=%d queued=%d in_flight=%d budget_exceeded=%v top=%s",
			i, viewer, w.ActiveCount(), w.QueueLength(), w.InFlight(), w.BudgetExceeded(), profiling.TopN(3))

		viewer = viewer.Add(stride)
		time.Sleep(time.Duration(cfg.ChunkUpdateIntervalMS) * time.Millisecond)
	}
}
