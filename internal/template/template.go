// Package template implements the template loader and seed-variation
// overlay (C8): packaged hand-authored chunk content, plus a deterministic
// procedural fallback for positions the template does not cover.
package template

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"time"

	"voxelcore/internal/chunk"
	"voxelcore/internal/voxel"
)

// ErrSizeMismatch is returned by LoadChunk when a record's declared
// uncompressed size does not match the target chunk's volume.
var ErrSizeMismatch = errors.New("template: uncompressed size does not match chunk volume")

// ChunkRecord is one packaged chunk's voxel payload.
type ChunkRecord struct {
	ChunkPos         chunk.Pos
	UncompressedSize uint32
	CompressedBytes  []byte
}

// Landmark is a named point of interest with a protection radius that
// seed-variation overlays must not build inside.
type Landmark struct {
	Name             string
	WorldPos         [3]float32
	ProtectionRadius float32
	Description      string
	Spawnable        string // empty means "none"
}

// VariationParams tunes the seed-driven overlays applied after a template
// chunk (or procedural fallback) is loaded.
type VariationParams struct {
	GrassVariation      float32
	FlowerDensity       float32
	TreeVariation       float32
	TerrainNoiseScale   float32
	TerrainNoiseHeight  float32
	AllowPathVariation  bool
	AllowWaterVariation bool
}

// Template is a packaged world: header metadata, mapped chunks, landmarks
// and the variation parameters controlling seed overlays.
type Template struct {
	Name        string
	Description string
	CreatedAt   time.Time
	Creator     string
	ChunkSize   int
	MinChunk    chunk.Pos
	MaxChunk    chunk.Pos

	Chunks              map[chunk.Pos]ChunkRecord
	Landmarks           []Landmark
	Variation           VariationParams
	AllowSeedVariations bool
}

// New returns an empty template with the given chunk edge length.
func New(name string, chunkSize int) *Template {
	return &Template{
		Name:      name,
		ChunkSize: chunkSize,
		Chunks:    make(map[chunk.Pos]ChunkRecord),
	}
}

// PackChunk compresses a chunk's worth of voxel bytes and stores it as a
// ChunkRecord, for templates authored/produced at runtime (e.g. saving an
// editor session).
func (t *Template) PackChunk(pos chunk.Pos, voxels []voxel.Voxel) error {
	raw := make([]byte, len(voxels))
	for i, v := range voxels {
		raw[i] = byte(v)
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	t.Chunks[pos] = ChunkRecord{
		ChunkPos:         pos,
		UncompressedSize: uint32(len(voxels)),
		CompressedBytes:  buf.Bytes(),
	}
	return nil
}

// LoadChunk decompresses the template's record for chunk_pos into the
// target chunk's grid and marks it dirty. It reports false (and leaves the
// grid untouched) when chunk_pos has no mapped entry — callers fall back
// to the procedural generator (§7, TemplateChunkMissing).
func LoadChunk(t *Template, pos chunk.Pos, target *chunk.Chunk) (bool, error) {
	rec, ok := t.Chunks[pos]
	if !ok {
		return false, nil
	}

	g := target.Grid()
	size := g.Size()
	if int(rec.UncompressedSize) != size.Volume() {
		return false, ErrSizeMismatch
	}

	r, err := gzip.NewReader(bytes.NewReader(rec.CompressedBytes))
	if err != nil {
		return false, err
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return false, err
	}
	if len(raw) != size.Volume() {
		return false, ErrSizeMismatch
	}

	g.FillWith(func(x, y, z int) voxel.Voxel {
		return voxel.Voxel(raw[size.Index(x, y, z)])
	})
	return true, nil
}
