package mesh

// Face identifies one of the six axis-aligned quad orientations.
type Face int

const (
	PosX Face = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ
)

// Axis returns the primary axis index (0=X, 1=Y, 2=Z) a face is
// perpendicular to, and the in-plane (u, v) axis indices, per the fixed
// face-to-axis mapping in §4.3.
func (f Face) Axis() (primary, u, v int) {
	switch f {
	case PosX, NegX:
		return 0, 1, 2
	case PosY, NegY:
		return 1, 0, 2
	default: // PosZ, NegZ
		return 2, 0, 1
	}
}

// Sign returns +1 for the positive-direction faces and -1 for the
// negative-direction faces.
func (f Face) Sign() int {
	switch f {
	case PosX, PosY, PosZ:
		return 1
	default:
		return -1
	}
}

// Normal returns the unit outward normal for the face.
func (f Face) Normal() (nx, ny, nz float32) {
	primary, _, _ := f.Axis()
	s := float32(f.Sign())
	switch primary {
	case 0:
		return s, 0, 0
	case 1:
		return 0, s, 0
	default:
		return 0, 0, s
	}
}

// faceBase returns a voxel's quad anchor for face: the voxel's own
// coordinate for a negative-facing quad, or that coordinate advanced one
// voxel-edge along the primary axis for a positive-facing quad, since the
// exterior plane of a positive-facing face sits one edge further out than
// the voxel's own lattice coordinate (mirrors the offset BuildGreedy
// applies via its baseS computation, §4.3).
func faceBase(face Face, x, y, z int) [3]int {
	primary, _, _ := face.Axis()
	base := [3]int{x, y, z}
	if face.Sign() > 0 {
		base[primary]++
	}
	return base
}

// facePlaneInverted reports whether a quad's corner winding (built in the
// fixed base, base+u*w, base+u*w+v*h, base+v*h order) needs its two
// triangles flipped to an alternate diagonal to match Face.Normal(). The
// natural winding's implied normal is cross(uAxis, vAxis), which works out
// to +X for the X pair, -Y for the Y pair and +Z for the Z pair; a face
// whose Sign() disagrees with that natural sign needs the flip.
func facePlaneInverted(f Face) bool {
	primary, _, _ := f.Axis()
	natural := 1
	if primary == 1 {
		natural = -1
	}
	return f.Sign() != natural
}

// Quad is a rectangular, single-material, single-face-direction surface
// patch produced by the greedy mesher (or, degenerately, 1x1 by the basic
// mesher).
type Quad struct {
	// Base is the quad's anchor voxel coordinate in chunk-local space, as
	// reconstructed from (slice, u, v, face) by the mesher.
	Base [3]int
	// SizeU, SizeV are the quad's extents along the face's in-plane axes,
	// in voxel units.
	SizeU, SizeV int
	Face         Face
	Material     Material
}
