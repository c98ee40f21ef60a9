package components

// Position represents a cell's centre in arena coordinates.
type Position struct {
	X, Y float64
}

// Heading is the direction of travel in radians. Only cells with a tail follow it.
type Heading struct {
	Angle float64
}
