package mipblur

import "math/bits"

// Size is a width/height pair in pixels.
type Size struct {
	Width, Height int
}

// Pyramid is the level table for one screen size. Level 0 is full
// resolution; levels 1..LevelCount halve each axis, clamped to 1.
type Pyramid struct {
	// LevelCount is the index of the coarsest level.
	LevelCount int
	levels     []Size
}

// Level returns the dimensions of level i. Out-of-range indices are clamped.
func (p Pyramid) Level(i int) Size {
	if len(p.levels) == 0 {
		return Size{1, 1}
	}
	if i < 0 {
		i = 0
	}
	if i >= len(p.levels) {
		i = len(p.levels) - 1
	}
	return p.levels[i]
}

// Levels returns the level table, indices 0..LevelCount. The slice is shared
// with the planner and must not be modified.
func (p Pyramid) Levels() []Size {
	return p.levels
}

// LevelCount returns floor(log2(max(w, h))). Non-positive sizes count as 1.
func LevelCount(w, h int) int {
	m := max(w, h, 1)
	return bits.Len(uint(m)) - 1
}

// LevelSize returns the dimensions of level i for a w x h screen:
// max(floor(d / 2^i), 1) per axis.
func LevelSize(w, h, i int) Size {
	return Size{Width: halve(w, i), Height: halve(h, i)}
}

func halve(d, i int) int {
	if d < 1 {
		d = 1
	}
	if i >= bits.UintSize-1 {
		return 1
	}
	return max(d>>uint(i), 1)
}

// Planner caches the level table for the last screen size it saw and
// rebuilds it only when the size changes.
type Planner struct {
	width, height int
	pyramid       Pyramid
	rebuilds      int
}

// Plan returns the level table for a w x h screen. changed reports whether
// the table was rebuilt; for an unchanged size the cached table (same backing
// slice) is returned.
func (p *Planner) Plan(w, h int) (pyr Pyramid, changed bool) {
	w, h = max(w, 1), max(h, 1)
	if p.pyramid.levels != nil && w == p.width && h == p.height {
		return p.pyramid, false
	}
	p.width, p.height = w, h

	n := LevelCount(w, h)
	levels := make([]Size, n+1)
	for i := range levels {
		levels[i] = LevelSize(w, h, i)
	}
	p.pyramid = Pyramid{LevelCount: n, levels: levels}
	p.rebuilds++
	return p.pyramid, true
}

// Pyramid returns the cached table without checking for a resize.
func (p *Planner) Pyramid() Pyramid {
	return p.pyramid
}

// Screen returns the size the cached table was built for.
func (p *Planner) Screen() Size {
	return Size{p.width, p.height}
}

// Rebuilds returns how many times the table has been rebuilt.
func (p *Planner) Rebuilds() int {
	return p.rebuilds
}
