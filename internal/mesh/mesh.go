// Package mesh implements the basic mesher (C2), greedy mesher (C3), and
// quad-to-mesh converter (C4).
package mesh

import "github.com/go-gl/mathgl/mgl32"

// Material is the identifier carried by a quad, matching voxel.Voxel's
// underlying representation without importing the voxel package (keeps
// mesh decoupled from storage).
type Material uint8

// Color is an opaque RGBA8 vertex colour, a passthrough slot for the host.
type Color [4]uint8

// White is the default vertex colour emitted by the converter (§4.4).
var White = Color{255, 255, 255, 255}

// Data holds the five parallel per-vertex streams plus the triangle index
// list and material sectioning produced by the quad-to-mesh converter.
type Data struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Tangents  []mgl32.Vec3
	Colors    []Color
	Indices   []uint32

	// MaterialSections maps each distinct material to a contiguous
	// section id assigned in first-seen order.
	MaterialSections map[Material]int
	// SectionOrder preserves first-seen insertion order of the keys in
	// MaterialSections, since Go maps have no stable iteration order.
	SectionOrder []Material

	// WeldEfficiency is the fraction of emitted quad corners that were
	// reused from an existing vertex record rather than appended fresh.
	WeldEfficiency float64
}

// VertexCount returns the number of vertex records in the mesh.
func (d *Data) VertexCount() int { return len(d.Positions) }

// TriangleCount returns indices.len / 3.
func (d *Data) TriangleCount() int { return len(d.Indices) / 3 }
