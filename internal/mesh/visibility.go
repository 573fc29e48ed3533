package mesh

import "voxelcore/internal/voxel"

// visible reports whether the face of the voxel at (x,y,z) facing in the
// direction (dx,dy,dz) should be emitted: the voxel itself must be solid,
// and the neighbour (possibly outside the grid, which reads as Air) must be
// Air or transparent with a different material id (§4.2).
func visible(g *voxel.Grid, x, y, z, dx, dy, dz int) bool {
	v := g.Get(x, y, z)
	if v.IsAir() {
		return false
	}
	n := g.Get(x+dx, y+dy, z+dz)
	if n.IsAir() {
		return true
	}
	if n.IsTransparent() && n != v {
		return true
	}
	return false
}

var faceDirs = [6][3]int{
	PosX: {1, 0, 0},
	NegX: {-1, 0, 0},
	PosY: {0, 1, 0},
	NegY: {0, -1, 0},
	PosZ: {0, 0, 1},
	NegZ: {0, 0, -1},
}

// AllFaces lists the six face directions in a fixed, deterministic order.
var AllFaces = [6]Face{PosX, NegX, PosY, NegY, PosZ, NegZ}
