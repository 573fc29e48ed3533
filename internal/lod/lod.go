// Package lod implements the distance-band level-of-detail selector (C9).
package lod

import "voxelcore/internal/chunk"

// Level mirrors chunk.LOD's tiers so callers outside the chunk package can
// reason about selection without importing chunk for the enum alone.
type Level = chunk.LOD

const (
	Unloaded = chunk.Unloaded
	LOD0     = chunk.LOD0
	LOD1     = chunk.LOD1
	LOD2     = chunk.LOD2
	LOD3     = chunk.LOD3
)

// Distance-band thresholds in world units (§4.9).
const (
	BandLOD1     = 5000.0
	BandLOD2     = 10000.0
	BandLOD3     = 20000.0
	BandUnloaded = 30000.0
)

// Select maps a viewer-to-chunk-center distance to a LOD tier.
func Select(distance float64) Level {
	switch {
	case distance < BandLOD1:
		return LOD0
	case distance < BandLOD2:
		return LOD1
	case distance < BandLOD3:
		return LOD2
	case distance < BandUnloaded:
		return LOD3
	default:
		return Unloaded
	}
}

// UsesGreedyMesher reports whether a level should drive the full greedy
// mesher (LOD0) versus the basic fallback mesher at a coarser voxel scale
// (LOD1/LOD2). LOD3 and Unloaded never mesh.
func UsesGreedyMesher(l Level) bool {
	return l == LOD0
}

// UsesBasicMesher reports whether a level falls back to the basic mesher
// at doubled voxel scale (§4.9).
func UsesBasicMesher(l Level) bool {
	return l == LOD1 || l == LOD2
}

// VoxelScale returns the voxel-edge scale multiplier a level should mesh
// at: 1 for full detail, 2 for the basic-mesher fallback tiers.
func VoxelScale(l Level) float32 {
	if UsesBasicMesher(l) {
		return 2
	}
	return 1
}

// ShouldRegenerate reports whether a freshly selected level differs enough
// from the chunk's current level to warrant a remesh: any change between
// meshed tiers (LOD0/LOD1/LOD2), or a transition into/out of Unloaded/LOD3.
func ShouldRegenerate(current, next Level) bool {
	return current != next
}
