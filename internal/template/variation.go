package template

import (
	"math/rand"

	"voxelcore/internal/chunk"
	"voxelcore/internal/voxel"
)

// seedRNG derives a per-chunk deterministic generator from (seed, pos).
// The mix follows the SplitMix64 finalizer (fixed constants, no external
// dependency), applied to seed and each chunk coordinate in turn so that
// distinct chunk positions under the same seed never collide on the same
// stream.
func seedRNG(seed int64, pos chunk.Pos) *rand.Rand {
	h := uint64(seed)
	mix := func(h uint64, v int64) uint64 {
		h ^= uint64(v) + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
		h ^= h >> 30
		h *= 0xbf58476d1ce4e5b9
		h ^= h >> 27
		h *= 0x94d049bb133111eb
		h ^= h >> 31
		return h
	}
	h = mix(h, int64(pos.X))
	h = mix(h, int64(pos.Y))
	h = mix(h, int64(pos.Z))
	return rand.New(rand.NewSource(int64(h)))
}

// ApplySeedVariation applies, in order, a (currently no-op) terrain-noise
// pass, the flower overlay and the tree overlay, driven by a deterministic
// per-chunk RNG. Repeated calls with identical (t, seed, pos) on identical
// starting voxel content produce byte-identical results.
func ApplySeedVariation(t *Template, target *chunk.Chunk, seed int64, pos chunk.Pos) {
	if !t.AllowSeedVariations {
		return
	}
	rng := seedRNG(seed, pos)
	g := target.Grid()

	applyTerrainNoise(g, t.Variation, rng)
	applyFlowerOverlay(g, t.Variation, rng)
	applyTreeOverlay(g, t.Variation, t.Landmarks, rng)
}

// applyTerrainNoise is a documented no-op: the reference this core is
// modelled on never perturbs template-authored heightmaps with noise, to
// avoid disturbing hand-placed plateaus and landmarks. The field exists on
// VariationParams so a host can opt a future implementation in without an
// interface change.
func applyTerrainNoise(g *voxel.Grid, params VariationParams, rng *rand.Rand) {
	_ = g
	_ = params
	_ = rng
}

func applyFlowerOverlay(g *voxel.Grid, params VariationParams, rng *rand.Rand) {
	size := g.Size()
	for z := 0; z < size.Z; z++ {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				if g.Get(x, y, z) != voxel.Grass {
					continue
				}
				if !g.Get(x, y, z+1).IsAir() {
					continue
				}
				if rng.Float64() < float64(params.FlowerDensity) {
					g.Set(x, y, z+1, voxel.Leaves)
				}
			}
		}
	}
}

func applyTreeOverlay(g *voxel.Grid, params VariationParams, landmarks []Landmark, rng *rand.Rand) {
	size := g.Size()
	attempts := int(params.TreeVariation * 5)
	for i := 0; i < attempts; i++ {
		if size.X < 8 || size.Y < 8 {
			return
		}
		x := 3 + rng.Intn(size.X-7)
		y := 3 + rng.Intn(size.Y-7)

		if withinAnyLandmark(landmarks, x, y) {
			continue
		}

		top := topmostGrassOrDirt(g, x, y)
		if top < 0 {
			continue
		}
		headroom := size.Z - (top + 1)
		if headroom < 8 {
			continue
		}

		trunkHeight := 4 + rng.Intn(3) // [4,6]
		for h := 1; h <= trunkHeight; h++ {
			g.Set(x, y, top+h, voxel.Wood)
		}

		capCenter := top + trunkHeight
		const radius = 2
		for dz := -radius; dz <= radius; dz++ {
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					if dx*dx+dy*dy+dz*dz > radius*radius {
						continue
					}
					cx, cy, cz := x+dx, y+dy, capCenter+dz
					if g.Get(cx, cy, cz).IsAir() {
						g.Set(cx, cy, cz, voxel.Leaves)
					}
				}
			}
		}
	}
}

func withinAnyLandmark(landmarks []Landmark, x, y int) bool {
	for _, l := range landmarks {
		dx := float32(x) - l.WorldPos[0]
		dy := float32(y) - l.WorldPos[1]
		if dx*dx+dy*dy <= l.ProtectionRadius*l.ProtectionRadius {
			return true
		}
	}
	return false
}

// topmostGrassOrDirt scans down from the top of the column, returning the
// highest z holding Grass or Dirt, or -1 if none.
func topmostGrassOrDirt(g *voxel.Grid, x, y int) int {
	size := g.Size()
	for z := size.Z - 1; z >= 0; z-- {
		v := g.Get(x, y, z)
		if v == voxel.Grass || v == voxel.Dirt {
			return z
		}
	}
	return -1
}
