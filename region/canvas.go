package region

import "github.com/tsawler/annotator/annotation"

// Canvas is the drawing backend.
//
// The synchronizer calls it while holding its own lock; implementations
// must not call back into the synchronizer from these methods.
type Canvas interface {
	// Clear removes every shape and the background
	Clear()
	// SetSize sets the canvas size in image pixels
	SetSize(width, height int)
	// SetBackground draws the page image behind the shapes
	SetBackground(bg Background)
	// Add and Remove insert and delete one shape
	Add(s *Shape)
	Remove(s *Shape)
	// SetRenderOnAddRemove controls whether Add and Remove repaint
	SetRenderOnAddRemove(enabled bool)
	// RenderAll repaints synchronously
	RenderAll()
	// RequestRenderAll schedules one repaint
	RequestRenderAll()
	// SetZoom scales the view
	SetZoom(zoom float64)
}

// Default shape style
const (
	DefaultStroke      = "blue"
	DefaultStrokeWidth = 2
)

// Shape is the rectangle drawn for one annotation.
// Width and Height are the unscaled size; resizing a shape changes its
// scale factors.
type Shape struct {
	ID string // id of the annotation it represents

	Left   float64
	Top    float64
	Width  float64
	Height float64
	ScaleX float64
	ScaleY float64

	Visible  bool
	Selected bool

	Stroke      string
	StrokeWidth float64
}

func newShape(a *annotation.Annotation) *Shape {
	return &Shape{
		ID:          a.ID(),
		Left:        a.Box.X,
		Top:         a.Box.Y,
		Width:       a.Box.Width,
		Height:      a.Box.Height,
		ScaleX:      1,
		ScaleY:      1,
		Visible:     true,
		Stroke:      DefaultStroke,
		StrokeWidth: DefaultStrokeWidth,
	}
}

// ScaledWidth returns the displayed width
func (s *Shape) ScaledWidth() float64 {
	return s.Width * s.ScaleX
}

// ScaledHeight returns the displayed height
func (s *Shape) ScaledHeight() float64 {
	return s.Height * s.ScaleY
}

// Box returns the committed geometry of the shape
func (s *Shape) Box() annotation.Box {
	return annotation.NewBox(s.Left, s.Top, s.ScaledWidth(), s.ScaledHeight())
}

// Geometry is the transform applied to a shape by a drag or resize gesture
type Geometry struct {
	Left   float64
	Top    float64
	ScaleX float64
	ScaleY float64
}

func (s *Shape) apply(g Geometry) {
	s.Left = g.Left
	s.Top = g.Top
	if g.ScaleX > 0 {
		s.ScaleX = g.ScaleX
	}
	if g.ScaleY > 0 {
		s.ScaleY = g.ScaleY
	}
}
