package world

import "math"

// TileKey identifies one quantized world tile on the walkable surface.
// Ground items pile per tile: at most one stack object per occupied tile.
type TileKey struct {
	X int32
	Z int32
}

// TileOf quantizes a world position to its tile.
func TileOf(x, z float64) TileKey {
	return TileKey{X: int32(math.Floor(x)), Z: int32(math.Floor(z))}
}

// Offset returns the tile shifted by (dx, dz).
func (t TileKey) Offset(dx, dz int32) TileKey {
	return TileKey{X: t.X + dx, Z: t.Z + dz}
}

// Chebyshev returns the chessboard distance between two tiles.
func (t TileKey) Chebyshev(o TileKey) int32 {
	dx := t.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dz := t.Z - o.Z
	if dz < 0 {
		dz = -dz
	}
	if dz > dx {
		return dz
	}
	return dx
}
