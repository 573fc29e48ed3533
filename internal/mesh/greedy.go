package mesh

import (
	"voxelcore/internal/profiling"
	"voxelcore/internal/voxel"
)

// maskCell is one cell of the 2D visibility mask built per slice (§4.3
// step 1).
type maskCell struct {
	material Material
	visible  bool
}

// BuildGreedy is the greedy mesher (C3): for each of the six face
// directions independently, it slices the grid along the face's primary
// axis, builds a (material, visible) mask over the in-plane axes, and
// coalesces same-material visible cells into maximal rectangles (growing
// along u to its maximum extent before growing along v, which makes the
// output deterministic for a fixed voxel input).
func BuildGreedy(g *voxel.Grid) []Quad {
	defer profiling.Track("mesh.BuildGreedy")()
	var quads []Quad
	for _, face := range AllFaces {
		quads = append(quads, greedyFace(g, face)...)
	}
	return quads
}

func greedyFace(g *voxel.Grid, face Face) []Quad {
	size := g.Size()
	primary, uAx, vAx := face.Axis()
	dims := [3]int{size.X, size.Y, size.Z}
	sizePrimary, sizeU, sizeV := dims[primary], dims[uAx], dims[vAx]
	d := faceDirs[face]
	sign := face.Sign()

	var quads []Quad
	mask := make([]maskCell, sizeU*sizeV)

	for s := 0; s < sizePrimary; s++ {
		for v := 0; v < sizeV; v++ {
			for u := 0; u < sizeU; u++ {
				x, y, z := axesToCoord(primary, uAx, vAx, s, u, v)
				vox := g.Get(x, y, z)
				idx := v*sizeU + u
				if vox.IsAir() {
					mask[idx] = maskCell{}
					continue
				}
				nx, ny, nz := x+d[0], y+d[1], z+d[2]
				n := g.Get(nx, ny, nz)
				vis := n.IsAir() || (n.IsTransparent() && n != vox)
				mask[idx] = maskCell{material: Material(vox), visible: vis}
			}
		}

		for v := 0; v < sizeV; v++ {
			for u := 0; u < sizeU; {
				cell := mask[v*sizeU+u]
				if !cell.visible {
					u++
					continue
				}
				m := cell.material

				w := 1
				for u+w < sizeU {
					c := mask[v*sizeU+u+w]
					if !c.visible || c.material != m {
						break
					}
					w++
				}

				h := 1
			growV:
				for v+h < sizeV {
					for uu := u; uu < u+w; uu++ {
						c := mask[(v+h)*sizeU+uu]
						if !c.visible || c.material != m {
							break growV
						}
					}
					h++
				}

				baseS := s
				if sign > 0 {
					baseS = s + 1
				}
				bx, by, bz := axesToCoord(primary, uAx, vAx, baseS, u, v)
				quads = append(quads, Quad{
					Base:     [3]int{bx, by, bz},
					SizeU:    w,
					SizeV:    h,
					Face:     face,
					Material: m,
				})

				for vv := v; vv < v+h; vv++ {
					for uu := u; uu < u+w; uu++ {
						mask[vv*sizeU+uu] = maskCell{}
					}
				}
				u += w
			}
		}
	}
	return quads
}

// axesToCoord maps a (primary=s, u, v) triple back to (x,y,z) given which
// grid axis plays each role, per the fixed face-to-axis table in §4.3.
func axesToCoord(primary, uAx, vAx, s, u, v int) (x, y, z int) {
	var c [3]int
	c[primary] = s
	c[uAx] = u
	c[vAx] = v
	return c[0], c[1], c[2]
}
