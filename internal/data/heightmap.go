package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HeightMap is the walkable-surface lookup used to ground raw drop positions.
// A death position arrives with whatever Y the combat system last knew; loot
// must sit on the terrain surface, so the loot system snaps Y through this
// table before placing a stack.
//
// The grid is row-major over quantized (x, z) tiles, one float per tile.
// Loaded once at boot; read-only afterwards.
type HeightMap struct {
	originX int32
	originZ int32
	width   int32
	depth   int32
	heights []float64 // len = width*depth
}

type heightMapFile struct {
	OriginX int32       `yaml:"origin_x"`
	OriginZ int32       `yaml:"origin_z"`
	Width   int32       `yaml:"width"`
	Depth   int32       `yaml:"depth"`
	Rows    [][]float64 `yaml:"rows"` // depth rows of width heights
}

// LoadHeightMap loads surface heights from a YAML file.
func LoadHeightMap(path string) (*HeightMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read heightmap: %w", err)
	}
	var f heightMapFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse heightmap: %w", err)
	}
	if f.Width <= 0 || f.Depth <= 0 {
		return nil, fmt.Errorf("heightmap %s: bad dimensions %dx%d", path, f.Width, f.Depth)
	}
	if int32(len(f.Rows)) != f.Depth {
		return nil, fmt.Errorf("heightmap %s: want %d rows, got %d", path, f.Depth, len(f.Rows))
	}
	hm := &HeightMap{
		originX: f.OriginX,
		originZ: f.OriginZ,
		width:   f.Width,
		depth:   f.Depth,
		heights: make([]float64, f.Width*f.Depth),
	}
	for zi, row := range f.Rows {
		if int32(len(row)) != f.Width {
			return nil, fmt.Errorf("heightmap %s: row %d want %d cols, got %d", path, zi, f.Width, len(row))
		}
		copy(hm.heights[int32(zi)*f.Width:], row)
	}
	return hm, nil
}

// SurfaceHeight returns the walkable surface height at the tile containing
// (x, z). Positions outside the grid clamp to the nearest edge tile, so a
// slightly out-of-bounds death still produces a sane drop height.
func (h *HeightMap) SurfaceHeight(x, z float64) float64 {
	tx := int32(x) - h.originX
	tz := int32(z) - h.originZ
	if tx < 0 {
		tx = 0
	}
	if tx >= h.width {
		tx = h.width - 1
	}
	if tz < 0 {
		tz = 0
	}
	if tz >= h.depth {
		tz = h.depth - 1
	}
	return h.heights[tz*h.width+tx]
}

// Count returns the number of tiles in the grid.
func (h *HeightMap) Count() int {
	return len(h.heights)
}
