package voxel

// Size is a chunk's extent in voxels along each axis. Immutable after a
// chunk's init.
type Size struct {
	X, Y, Z int
}

// Volume returns the total voxel count N = X*Y*Z.
func (s Size) Volume() int { return s.X * s.Y * s.Z }

// InBounds reports whether the local coordinate falls within [0,X)x[0,Y)x[0,Z).
func (s Size) InBounds(x, y, z int) bool {
	return x >= 0 && x < s.X && y >= 0 && y < s.Y && z >= 0 && z < s.Z
}

// Index converts a local coordinate to a row-major flat index (x fastest,
// then y, then z). Callers must check InBounds first.
func (s Size) Index(x, y, z int) int {
	return x + y*s.X + z*s.X*s.Y
}

// Common chunk sizes used by the reference configurations.
const (
	SizeMobile  = 16
	SizeDesktop = 32
)

// Cube returns a cubic Size of the given edge length.
func Cube(edge int) Size {
	return Size{X: edge, Y: edge, Z: edge}
}
