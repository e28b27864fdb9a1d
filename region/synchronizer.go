package region

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tsawler/annotator/annotation"
	"github.com/tsawler/annotator/view"
)

// ErrSuperseded is delivered by Redraw when a newer redraw was requested
// before the image finished decoding. The result was discarded.
var ErrSuperseded = errors.New("redraw superseded")

// Config configures a Synchronizer
type Config struct {
	// Listener receives add, delete, selected and updated events
	Listener Listener

	// Decode reads page images. Defaults to DecodeImage.
	Decode DecodeFunc

	// Zoom is the initial zoom factor. Defaults to 1.
	Zoom float64

	// IsVisible is the initial visibility predicate. Defaults to view.ShowAll.
	IsVisible view.Predicate

	// Logger for debug messages
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Decode == nil {
		c.Decode = DecodeImage
	}
	if c.Zoom <= 0 {
		c.Zoom = 1
	}
	if c.IsVisible == nil {
		c.IsVisible = view.ShowAll
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Synchronizer keeps a canvas and a set of annotations consistent.
//
// Host events are expected one at a time. The lock only orders them with
// the completion of a background image decode.
type Synchronizer struct {
	mu sync.Mutex

	canvas   Canvas
	store    *annotation.Store
	listener Listener
	decode   DecodeFunc
	logger   *slog.Logger

	state     view.State
	container view.Size
	image     view.Size

	entities  map[string]*annotation.Annotation
	shapes    map[string]*Shape
	order     []string
	selection []string

	generation uint64
}

// New creates a synchronizer drawing on canvas.
// Duplicates get their ids from store, which must be the store the
// displayed annotations were loaded with.
func New(canvas Canvas, store *annotation.Store, cfg Config) *Synchronizer {
	cfg.defaults()
	return &Synchronizer{
		canvas:   canvas,
		store:    store,
		listener: cfg.Listener,
		decode:   cfg.Decode,
		logger:   cfg.Logger,
		state:    view.State{Zoom: cfg.Zoom, IsVisible: cfg.IsVisible},
		entities: make(map[string]*annotation.Annotation),
		shapes:   make(map[string]*Shape),
	}
}

// ============================================================================
// Rebuild
// ============================================================================

// Redraw rebuilds the canvas for a new page image or annotation set.
//
// The image is decoded in the background. Once decoded, the canvas is
// cleared, sized to the image, and one shape per annotation is added
// without intermediate repaints; the view is then fit to the container and
// painted once.
//
// The returned channel receives exactly one value: nil once the canvas was
// rebuilt, ErrSuperseded if a later Redraw made this one stale, or the
// decode error. The set is read before Redraw returns.
func (s *Synchronizer) Redraw(ctx context.Context, background []byte, set *annotation.Set) <-chan error {
	var items []*annotation.Annotation
	if set != nil {
		items = set.All()
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	done := make(chan error, 1)

	go func() {
		bg, err := s.decode(ctx, background)
		if err == nil {
			err = ctx.Err()
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if gen != s.generation {
			s.logger.Debug("discarding stale background image", "generation", gen, "current", s.generation)
			done <- ErrSuperseded
			return
		}
		if err != nil {
			done <- err
			return
		}

		s.rebuild(bg, items)
		done <- nil
	}()

	return done
}

func (s *Synchronizer) rebuild(bg Background, items []*annotation.Annotation) {
	s.logger.Debug("redrawing annotations", "count", len(items), "width", bg.Width, "height", bg.Height)

	s.canvas.Clear()
	s.canvas.SetSize(bg.Width, bg.Height)
	s.canvas.SetBackground(bg)
	s.image = view.Size{Width: float64(bg.Width), Height: float64(bg.Height)}

	s.entities = make(map[string]*annotation.Annotation, len(items))
	s.shapes = make(map[string]*Shape, len(items))
	s.order = s.order[:0]
	s.selection = nil

	s.canvas.SetRenderOnAddRemove(false)
	for _, a := range items {
		shape := newShape(a)
		shape.Visible = s.state.Visible(a)
		s.insert(a, shape)
	}
	s.canvas.SetRenderOnAddRemove(true)

	s.reduce(view.Action{Type: view.FitToView})
	s.canvas.RenderAll()
}

func (s *Synchronizer) insert(a *annotation.Annotation, shape *Shape) {
	s.entities[a.ID()] = a
	s.shapes[a.ID()] = shape
	s.order = append(s.order, a.ID())
	s.canvas.Add(shape)
}

func (s *Synchronizer) remove(id string) {
	shape, ok := s.shapes[id]
	if !ok {
		return
	}
	s.canvas.Remove(shape)
	delete(s.shapes, id)
	delete(s.entities, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ============================================================================
// View
// ============================================================================

// SetContainer records the size of the viewport the canvas is shown in
func (s *Synchronizer) SetContainer(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.container = view.Size{Width: width, Height: height}
}

// Dispatch applies a view action and returns the new view state.
// Zoom changes are forwarded to the canvas; a filter toggles the
// visibility of the existing shapes and requests a single repaint.
func (s *Synchronizer) Dispatch(action view.Action) view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reduce(action)
}

func (s *Synchronizer) reduce(action view.Action) view.State {
	prev := s.state
	s.state = view.Reduce(prev, action, view.Dimensions{Container: s.container, Image: s.image})

	if s.state.Zoom != prev.Zoom {
		s.canvas.SetZoom(s.state.Zoom)
	}
	if action.Type == view.Filter {
		s.applyVisibility()
	}
	return s.state
}

func (s *Synchronizer) applyVisibility() {
	for _, id := range s.order {
		s.shapes[id].Visible = s.state.Visible(s.entities[id])
	}
	s.canvas.RequestRenderAll()
}

// State returns the current view state
func (s *Synchronizer) State() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ============================================================================
// Gestures
// ============================================================================

// Select makes the given shapes the active selection.
// A selected event is emitted for each shape that was not already selected.
// Unknown ids are ignored.
func (s *Synchronizer) Select(ids ...string) {
	s.mu.Lock()
	var events []Event

	prev := make(map[string]bool, len(s.selection))
	for _, id := range s.selection {
		prev[id] = true
		if shape, ok := s.shapes[id]; ok {
			shape.Selected = false
		}
	}

	s.selection = nil
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		shape, ok := s.shapes[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		shape.Selected = true
		s.selection = append(s.selection, id)
		if !prev[id] {
			events = append(events, Event{Type: Selected, Target: s.entities[id]})
		}
	}
	s.mu.Unlock()

	s.emit(events)
}

// ClearSelection empties the active selection
func (s *Synchronizer) ClearSelection() {
	s.Select()
}

// Selection returns the ids of the selected shapes
func (s *Synchronizer) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.selection))
	copy(out, s.selection)
	return out
}

// Drag moves or resizes a shape during a gesture.
// The annotation is left untouched until Release.
func (s *Synchronizer) Drag(id string, g Geometry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	shape, ok := s.shapes[id]
	if !ok {
		return false
	}
	shape.apply(g)
	return true
}

// Release ends a gesture: the annotation box is overwritten with the
// shape's geometry and an updated event is emitted.
func (s *Synchronizer) Release(id string) bool {
	s.mu.Lock()
	shape, ok := s.shapes[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	a := s.entities[id]
	a.Box = shape.Box()
	s.mu.Unlock()

	s.emit([]Event{{Type: Updated, Target: a}})
	return true
}

// Modify applies a complete gesture: Drag followed by Release
func (s *Synchronizer) Modify(id string, g Geometry) bool {
	if !s.Drag(id, g) {
		return false
	}
	return s.Release(id)
}

// ============================================================================
// Commands
// ============================================================================

// DeleteSelected removes the shape of every selected annotation and emits
// one delete event for each. The selection is emptied, so a repeated
// command emits nothing.
func (s *Synchronizer) DeleteSelected() int {
	s.mu.Lock()
	events := make([]Event, 0, len(s.selection))
	for _, id := range s.selection {
		a, ok := s.entities[id]
		if !ok {
			continue
		}
		s.remove(id)
		events = append(events, Event{Type: Delete, Target: a})
	}
	s.selection = nil
	s.mu.Unlock()

	s.emit(events)
	return len(events)
}

// DuplicateSelected clones every selected annotation, draws the clones and
// emits one add event for each. The selection is unchanged.
func (s *Synchronizer) DuplicateSelected() int {
	s.mu.Lock()
	events := make([]Event, 0, len(s.selection))
	for _, id := range s.selection {
		a, ok := s.entities[id]
		if !ok {
			continue
		}
		c := s.store.Clone(a)
		shape := newShape(c)
		shape.Visible = s.state.Visible(c)
		s.insert(c, shape)
		events = append(events, Event{Type: Add, Target: c})
	}
	s.mu.Unlock()

	s.emit(events)
	return len(events)
}

func (s *Synchronizer) emit(events []Event) {
	if s.listener == nil {
		return
	}
	for _, ev := range events {
		s.listener(ev)
	}
}

// ============================================================================
// Lookups
// ============================================================================

// Shape returns a copy of the shape drawn for id
func (s *Synchronizer) Shape(id string) (Shape, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shape, ok := s.shapes[id]
	if !ok {
		return Shape{}, false
	}
	return *shape, true
}

// Annotation returns the annotation drawn with id
func (s *Synchronizer) Annotation(id string) *annotation.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entities[id]
}

// Len returns the number of shapes on the canvas
func (s *Synchronizer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// ImageSize returns the natural size of the current page image,
// zero before the first rebuild
func (s *Synchronizer) ImageSize() view.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}
