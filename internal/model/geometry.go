package model

import (
	"fmt"
	"math"
)

// Point is a location in global screen coordinates.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Rect is a screen rectangle in points. The accessibility layer reports
// fractional frames, so coordinates are floating point.
type Rect struct {
	X      float64 `yaml:"x"      json:"x"`
	Y      float64 `yaml:"y"      json:"y"`
	Width  float64 `yaml:"width"  json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rectangle containing both r and o.
// An empty rectangle is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// CenterDistance returns the distance between the centers of two rectangles.
func CenterDistance(a, b Rect) float64 {
	return Distance(a.Center(), b.Center())
}
