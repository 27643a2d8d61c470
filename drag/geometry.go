package drag

import "math"

// Point is a pointer position in board coordinates.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned drop-target rectangle.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Corners returns the rectangle's four corners.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{r.X, r.Y},
		{r.X + r.Width, r.Y},
		{r.X, r.Y + r.Height},
		{r.X + r.Width, r.Y + r.Height},
	}
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// cornerDistance is the distance from the pointer to the rectangle's nearest
// corner, the collision measure used to rank drop-target candidates.
func cornerDistance(p Point, r Rect) float64 {
	best := math.Inf(1)
	for _, c := range r.Corners() {
		if d := distance(p, c); d < best {
			best = d
		}
	}
	return best
}
