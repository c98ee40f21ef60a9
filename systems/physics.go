package systems

import (
	"math"
	"math/rand"
)

// Arena is the circular world boundary.
type Arena struct {
	CenterX, CenterY float64
	Radius           float64
}

// NewArena returns an arena of the given radius centred at (radius, radius),
// so that every point inside has non-negative coordinates.
func NewArena(radius float64) Arena {
	return Arena{CenterX: radius, CenterY: radius, Radius: radius}
}

// Distance returns the distance of (x, y) from the arena centre.
func (a Arena) Distance(x, y float64) float64 {
	return distance(a.CenterX, a.CenterY, x, y)
}

// Contains reports whether (x, y) lies inside the arena circle (boundary included).
func (a Arena) Contains(x, y float64) bool {
	return a.Distance(x, y) <= a.Radius
}

// RandomPoint returns a point uniformly distributed over the arena disk.
func (a Arena) RandomPoint(rng *rand.Rand) (x, y float64) {
	r := a.Radius * math.Sqrt(rng.Float64())
	theta := rng.Float64() * 2 * math.Pi
	return a.CenterX + r*math.Cos(theta), a.CenterY + r*math.Sin(theta)
}

// Width returns the side of the arena's bounding square.
func (a Arena) Width() float64 {
	return 2 * a.Radius
}

// ResolveBoundary projects a cell whose body pokes out of the arena back
// onto the circle of radius (Radius - size/2), along the line from the centre.
// Returns true if the cell was moved.
func ResolveBoundary(c Cell, a Arena) bool {
	limit := a.Radius - c.Size()/2
	d := a.Distance(c.Pos.X, c.Pos.Y)
	if d <= limit {
		return false
	}
	if limit <= 0 || d == 0 {
		// Body wider than the arena: the centre is the best we can do.
		c.Pos.X, c.Pos.Y = a.CenterX, a.CenterY
		return true
	}
	scale := limit / d
	c.Pos.X = a.CenterX + (c.Pos.X-a.CenterX)*scale
	c.Pos.Y = a.CenterY + (c.Pos.Y-a.CenterY)*scale
	return true
}

// Overlaps reports whether two bodies intersect: centre distance below the
// mean of the two sizes.
func Overlaps(a, b Cell) bool {
	return distance(a.Pos.X, a.Pos.Y, b.Pos.X, b.Pos.Y) < (a.Size()+b.Size())/2
}

// Separate pushes two overlapping cells apart along the line between their
// centres, each by half the overlap. Size does not weight the push.
// Coincident centres are pushed along the x axis. Returns false if they did not overlap.
func Separate(a, b Cell) bool {
	dx := b.Pos.X - a.Pos.X
	dy := b.Pos.Y - a.Pos.Y
	d := math.Hypot(dx, dy)
	overlap := (a.Size()+b.Size())/2 - d
	if overlap <= 0 {
		return false
	}

	nx, ny := 1.0, 0.0
	if d > 0 {
		nx, ny = dx/d, dy/d
	}
	half := overlap / 2
	a.Pos.X -= nx * half
	a.Pos.Y -= ny * half
	b.Pos.X += nx * half
	b.Pos.Y += ny * half
	return true
}
