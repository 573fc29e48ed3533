package mesh

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/profiling"
)

// ErrMeshValidation is returned when a converted mesh fails the validation
// pass in §4.4. The job that produced it must discard the mesh (§7,
// MeshValidationFailed).
var ErrMeshValidation = errors.New("mesh: validation failed")

// axisVec returns the unit world-space vector for in-plane axis index
// 0=X, 1=Y, 2=Z.
func axisVec(axis int) mgl32.Vec3 {
	switch axis {
	case 0:
		return mgl32.Vec3{1, 0, 0}
	case 1:
		return mgl32.Vec3{0, 1, 0}
	default:
		return mgl32.Vec3{0, 0, 1}
	}
}

// weldKey is the vertex-dedup key: quantized position (0.01 world-unit
// granularity) plus the face id, so that vertices at the same position but
// belonging to different face directions are never merged (§4.4).
type weldKey struct {
	qx, qy, qz int64
	face       Face
}

func quantize(v float32) int64 {
	return int64(math.Round(float64(v) * 100))
}

// ConvertQuads is the quad-to-mesh converter (C4). edgeLength is the voxel
// edge length E in host world units; maxChunkExtent is the largest chunk
// dimension, used only to bound the validation range check.
func ConvertQuads(quads []Quad, edgeLength float32, maxChunkExtent int) (*Data, error) {
	defer profiling.Track("mesh.ConvertQuads")()

	data := &Data{
		MaterialSections: make(map[Material]int),
	}
	weld := make(map[weldKey]uint32)
	var corners, reused int

	appendVertex := func(pos, normal, tangent mgl32.Vec3, uv mgl32.Vec2, face Face) uint32 {
		corners++
		key := weldKey{quantize(pos[0]), quantize(pos[1]), quantize(pos[2]), face}
		if idx, ok := weld[key]; ok {
			reused++
			return idx
		}
		idx := uint32(len(data.Positions))
		data.Positions = append(data.Positions, pos)
		data.Normals = append(data.Normals, normal)
		data.UVs = append(data.UVs, uv)
		data.Tangents = append(data.Tangents, tangent)
		data.Colors = append(data.Colors, White)
		weld[key] = idx
		return idx
	}

	for _, q := range quads {
		if _, ok := data.MaterialSections[q.Material]; !ok {
			data.MaterialSections[q.Material] = len(data.SectionOrder)
			data.SectionOrder = append(data.SectionOrder, q.Material)
		}

		_, uAx, vAx := q.Face.Axis()
		uVec := axisVec(uAx)
		vVec := axisVec(vAx)
		baseWorld := mgl32.Vec3{
			float32(q.Base[0]) * edgeLength,
			float32(q.Base[1]) * edgeLength,
			float32(q.Base[2]) * edgeLength,
		}
		w := float32(q.SizeU) * edgeLength
		h := float32(q.SizeV) * edgeLength

		corner := func(cu, cv float32) mgl32.Vec3 {
			return baseWorld.Add(uVec.Mul(cu)).Add(vVec.Mul(cv))
		}
		uvOf := func(p mgl32.Vec3) mgl32.Vec2 {
			u := p.Dot(uVec) / edgeLength
			v := p.Dot(vVec) / edgeLength
			return mgl32.Vec2{u - float32(math.Floor(float64(u))), v - float32(math.Floor(float64(v)))}
		}

		nx, ny, nz := q.Face.Normal()
		normal := mgl32.Vec3{nx, ny, nz}
		tangent := uVec.Normalize()

		c0 := corner(0, 0)
		c1 := corner(w, 0)
		c2 := corner(w, h)
		c3 := corner(0, h)

		i0 := appendVertex(c0, normal, tangent, uvOf(c0), q.Face)
		i1 := appendVertex(c1, normal, tangent, uvOf(c1), q.Face)
		i2 := appendVertex(c2, normal, tangent, uvOf(c2), q.Face)
		i3 := appendVertex(c3, normal, tangent, uvOf(c3), q.Face)

		if facePlaneInverted(q.Face) {
			data.Indices = append(data.Indices, i0, i3, i1, i1, i3, i2)
		} else {
			data.Indices = append(data.Indices, i0, i1, i2, i0, i2, i3)
		}
	}

	if corners > 0 {
		data.WeldEfficiency = float64(reused) / float64(corners)
	}

	if err := validate(data, edgeLength, maxChunkExtent); err != nil {
		return nil, err
	}
	return data, nil
}

func validate(data *Data, edgeLength float32, maxChunkExtent int) error {
	n := len(data.Positions)
	if len(data.Normals) != n || len(data.UVs) != n || len(data.Tangents) != n || len(data.Colors) != n {
		return ErrMeshValidation
	}
	for _, idx := range data.Indices {
		if int(idx) >= n {
			return ErrMeshValidation
		}
	}
	r := 2 * float32(maxChunkExtent) * edgeLength
	for _, p := range data.Positions {
		for _, c := range p {
			if c < -r || c > r {
				return ErrMeshValidation
			}
		}
	}
	for _, nrm := range data.Normals {
		if nrm.Len() == 0 {
			return ErrMeshValidation
		}
	}
	return nil
}
