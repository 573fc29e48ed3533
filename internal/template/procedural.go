package template

import (
	"math"

	"voxelcore/internal/chunk"
	"voxelcore/internal/voxel"
)

// ProceduralGenerator fills a chunk with a deterministic 2D value-noise
// terrain column when no template entry covers its position (§4.8
// fallback).
type ProceduralGenerator struct {
	Seed int64
}

const (
	noiseScale = 0.03
	heightBase = 10.0
	heightScale = 10.0
	minHeight   = 5
	maxHeight   = 15
)

// Fill writes a Stone/Dirt/Grass column per (x,y) into target's grid, with
// the column height driven by value noise seeded from g.Seed and the
// chunk's world-space column origin.
func (g *ProceduralGenerator) Fill(target *chunk.Chunk, pos chunk.Pos) {
	grid := target.Grid()
	size := grid.Size()

	grid.FillWith(func(x, y, z int) voxel.Voxel {
		wx := float64(pos.X*size.X + x)
		wy := float64(pos.Y*size.Y + y)
		h := columnHeight(g.Seed, wx, wy)
		switch {
		case z >= h:
			return voxel.Air
		case z == h-1:
			return voxel.Grass
		case z >= h-4:
			return voxel.Dirt
		default:
			return voxel.Stone
		}
	})
}

func columnHeight(seed int64, wx, wy float64) int {
	// valueNoise2D is in [-1,1); remap to n in [0,1) before scaling.
	n := (valueNoise2D(seed, wx*noiseScale, wy*noiseScale) + 1) / 2
	h := heightBase + n*heightScale
	hi := int(math.Floor(h))
	if hi < minHeight {
		hi = minHeight
	}
	if hi > maxHeight {
		hi = maxHeight
	}
	return hi
}

// valueNoise2D is a deterministic lattice value-noise function: integer
// lattice points get a hashed pseudo-random value in [-1,1], and the
// sample point bilinearly interpolates between its four surrounding
// lattice corners with a smoothstep easing curve.
func valueNoise2D(seed int64, x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	x1 := x0 + 1
	y1 := y0 + 1

	tx := smoothstep(x - x0)
	ty := smoothstep(y - y0)

	v00 := latticeValue(seed, int64(x0), int64(y0))
	v10 := latticeValue(seed, int64(x1), int64(y0))
	v01 := latticeValue(seed, int64(x0), int64(y1))
	v11 := latticeValue(seed, int64(x1), int64(y1))

	a := lerp(v00, v10, tx)
	b := lerp(v01, v11, tx)
	return lerp(a, b, ty)
}

func smoothstep(t float64) float64 { return t * t * (3 - 2*t) }
func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// latticeValue hashes an integer lattice point to a deterministic value in
// [-1, 1] using the same SplitMix64-style mix as seedRNG.
func latticeValue(seed int64, x, y int64) float64 {
	h := uint64(seed)
	h ^= uint64(x) + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= uint64(y) + (h >> 27)
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	// top 53 bits as a [0,1) double, then remap to [-1,1).
	frac := float64(h>>11) / float64(1<<53)
	return frac*2 - 1
}
