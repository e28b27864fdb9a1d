// Package view holds the zoom and visibility state of the page canvas.
//
// [Reduce] is a pure function: the canvas owner keeps a [State], feeds it
// actions and applies the resulting zoom and visibility predicate.
package view

import (
	"math"

	"github.com/tsawler/annotator/annotation"
)

// Zoom limits and step
const (
	MinZoom  = 0.2
	MaxZoom  = 3.0
	ZoomStep = 0.2
)

// Predicate decides whether an annotation is shown
type Predicate func(a *annotation.Annotation) bool

// ShowAll is the predicate accepting every annotation
func ShowAll(*annotation.Annotation) bool { return true }

// AcceptTypes returns a predicate accepting annotations of the given types
func AcceptTypes(types ...string) Predicate {
	accepted := make(map[string]bool, len(types))
	for _, t := range types {
		accepted[t] = true
	}
	return func(a *annotation.Annotation) bool {
		return accepted[a.Type]
	}
}

// State is the view state of one canvas session
type State struct {
	Zoom      float64
	IsVisible Predicate
}

// NewState returns a state at zoom with every annotation visible
func NewState(zoom float64) State {
	return State{Zoom: zoom, IsVisible: ShowAll}
}

// Visible applies the state's predicate; a nil predicate shows everything
func (s State) Visible(a *annotation.Annotation) bool {
	if s.IsVisible == nil {
		return true
	}
	return s.IsVisible(a)
}

// ActionType identifies a view action
type ActionType int

const (
	ZoomIn ActionType = iota
	ZoomOut
	FitToView
	ZoomToOriginalSize
	Filter
)

func (t ActionType) String() string {
	switch t {
	case ZoomIn:
		return "zoomIn"
	case ZoomOut:
		return "zoomOut"
	case FitToView:
		return "fitToView"
	case ZoomToOriginalSize:
		return "zoomToOriginalSize"
	case Filter:
		return "filter"
	default:
		return "unknown"
	}
}

// Action is one input of the reducer.
// Predicate is only read by Filter; nil means show everything.
type Action struct {
	Type      ActionType
	Predicate Predicate
}

// Size is a width and height in pixels. A zero dimension means unknown.
type Size struct {
	Width  float64
	Height float64
}

// Known reports whether both dimensions are set
func (s Size) Known() bool {
	return s.Width > 0 && s.Height > 0
}

// Dimensions are the sizes FitToView depends on
type Dimensions struct {
	Container Size
	Image     Size
}

// Reduce returns the state following action
func Reduce(s State, action Action, dims Dimensions) State {
	switch action.Type {
	case ZoomIn:
		s.Zoom = math.Min(MaxZoom, s.Zoom+ZoomStep)
	case ZoomOut:
		s.Zoom = math.Max(MinZoom, s.Zoom-ZoomStep)
	case ZoomToOriginalSize:
		s.Zoom = 1
	case FitToView:
		if !dims.Container.Known() || !dims.Image.Known() {
			return s
		}
		s.Zoom = math.Min(
			dims.Container.Width/dims.Image.Width,
			dims.Container.Height/dims.Image.Height,
		)
	case Filter:
		s.IsVisible = action.Predicate
		if s.IsVisible == nil {
			s.IsVisible = ShowAll
		}
	}
	return s
}
