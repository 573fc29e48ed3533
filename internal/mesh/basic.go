package mesh

import (
	"voxelcore/internal/profiling"
	"voxelcore/internal/voxel"
)

// BuildBasic is the reference mesher (C2): for every solid voxel and each
// of its six faces, emit one 1x1 quad iff the face is visible. Used as the
// test oracle and as the LOD1/LOD2 fallback mesher (at a doubled voxel
// scale, selected by the caller).
func BuildBasic(g *voxel.Grid) []Quad {
	defer profiling.Track("mesh.BuildBasic")()
	size := g.Size()
	quads := make([]Quad, 0, size.Volume())

	for z := 0; z < size.Z; z++ {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				v := g.Get(x, y, z)
				if v.IsAir() {
					continue
				}
				for _, face := range AllFaces {
					d := faceDirs[face]
					if visible(g, x, y, z, d[0], d[1], d[2]) {
						quads = append(quads, Quad{
							Base:     faceBase(face, x, y, z),
							SizeU:    1,
							SizeV:    1,
							Face:     face,
							Material: Material(v),
						})
					}
				}
			}
		}
	}
	return quads
}
