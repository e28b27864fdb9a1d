package annotation

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
)

// Point represents a 2D point in image pixel coordinates
type Point struct {
	X, Y float64
}

// Box is an axis-aligned region of the page image.
// X and Y locate the top-left corner (image coordinates, Y grows downward).
// It serializes as the array [x, y, width, height].
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewBox creates a box from its top-left corner and size
func NewBox(x, y, width, height float64) Box {
	return Box{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate
func (b Box) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate
func (b Box) Right() float64 {
	return b.X + b.Width
}

// Top returns the top edge Y coordinate
func (b Box) Top() float64 {
	return b.Y
}

// Bottom returns the bottom edge Y coordinate
func (b Box) Bottom() float64 {
	return b.Y + b.Height
}

// Contains checks if a point is inside the box
func (b Box) Contains(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Top() && p.Y <= b.Bottom()
}

// Offset returns a copy of the box moved by dx, dy
func (b Box) Offset(dx, dy float64) Box {
	return Box{X: b.X + dx, Y: b.Y + dy, Width: b.Width, Height: b.Height}
}

// Corners returns the box as [x1, y1, x2, y2], the form the OCR service expects
func (b Box) Corners() [4]float64 {
	return [4]float64{b.X, b.Y, b.X + b.Width, b.Y + b.Height}
}

// Array returns the box as [x, y, width, height]
func (b Box) Array() [4]float64 {
	return [4]float64{b.X, b.Y, b.Width, b.Height}
}

// Rect returns the pixel rectangle covered by the box.
// Fractional edges are widened outward so no covered pixel is lost.
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(b.Left())),
		int(math.Floor(b.Top())),
		int(math.Ceil(b.Right())),
		int(math.Ceil(b.Bottom())),
	)
}

// IsValid returns true if width and height are non-negative
func (b Box) IsValid() bool {
	return b.Width >= 0 && b.Height >= 0
}

// IsEmpty returns true if the box has zero area
func (b Box) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// MarshalJSON encodes the box as [x, y, width, height]
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Array())
}

// UnmarshalJSON decodes a box from an array of at least four numbers
func (b *Box) UnmarshalJSON(data []byte) error {
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	if len(values) < 4 {
		return fmt.Errorf("box needs 4 values, got %d", len(values))
	}
	*b = NewBox(values[0], values[1], values[2], values[3])
	return nil
}
