package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/annotator/annotation"
	"github.com/tsawler/annotator/markup"
	"github.com/tsawler/annotator/region"
)

var (
	// ErrNotTextual is returned for text operations on a geometric annotation.
	ErrNotTextual = errors.New("annotation has no textual fields")
	// ErrNotMember is returned for annotations outside the session's set.
	ErrNotMember = errors.New("annotation does not belong to the session")
	// ErrNoRepository is returned by Open and Save without a repository.
	ErrNoRepository = errors.New("no annotation repository configured")
	// ErrNoRecognizer is returned by ReOCR without a recognizer.
	ErrNoRecognizer = errors.New("no text recognizer configured")
	// ErrNoTagger is returned by ReNER without a tagger.
	ErrNoTagger = errors.New("no entity tagger configured")
)

// Repository loads and stores the annotations and image of a page
type Repository interface {
	Annotations(ctx context.Context, document string, view int) ([]annotation.Record, error)
	SaveAnnotations(ctx context.Context, document string, view int, records []annotation.Record) error
	Image(ctx context.Context, document string, view int) ([]byte, error)
}

// Recognizer transcribes regions of a page image.
// It returns one text per box, in order.
type Recognizer interface {
	RecognizeRegions(ctx context.Context, document string, view int, image []byte, boxes []annotation.Box) ([]string, error)
}

// Tagger computes entity markup for a plain text
type Tagger interface {
	NER(ctx context.Context, text string) (string, error)
}

// Observer is notified after the session applied a change.
// Text edits are reported as updated events.
type Observer func(ev region.Event)

// Options configures a Session
type Options struct {
	Repository Repository
	Recognizer Recognizer
	Tagger     Tagger

	// Codec decodes entity markup. Defaults to the markup package codec.
	Codec *markup.Codec

	// Logger for debug messages
	Logger *slog.Logger
}

// Session is the owning collection of one page
type Session struct {
	repo       Repository
	recognizer Recognizer
	tagger     Tagger
	codec      *markup.Codec
	logger     *slog.Logger

	document string
	view     int
	image    []byte

	store    *annotation.Store
	set      *annotation.Set
	selected *annotation.Annotation
	focused  *annotation.Annotation
	dirty    bool

	observers []Observer
}

// New creates an empty session
func New(opts Options) *Session {
	if opts.Codec == nil {
		opts.Codec = &markup.Codec{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		repo:       opts.Repository,
		recognizer: opts.Recognizer,
		tagger:     opts.Tagger,
		codec:      opts.Codec,
		logger:     opts.Logger,
		store:      annotation.NewStore(),
		set:        annotation.NewSet(),
	}
}

// Subscribe registers an observer
func (s *Session) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Session) notify(ev region.Event) {
	for _, o := range s.observers {
		o(ev)
	}
}

// ============================================================================
// Loading
// ============================================================================

// Open loads the annotations and the image of a page from the repository
// and replaces the session contents with them.
func (s *Session) Open(ctx context.Context, document string, view int) error {
	if s.repo == nil {
		return ErrNoRepository
	}

	records, err := s.repo.Annotations(ctx, document, view)
	if err != nil {
		return fmt.Errorf("failed to load annotations of %s/%d: %w", document, view, err)
	}

	image, err := s.repo.Image(ctx, document, view)
	if err != nil {
		return fmt.Errorf("failed to load image of %s/%d: %w", document, view, err)
	}

	if err := s.Reset(records); err != nil {
		return err
	}
	s.document = document
	s.view = view
	s.image = image
	return nil
}

// Reset replaces the session contents with annotations built from records.
// The session keeps one id store for its lifetime; its counter is raised
// past the largest id of the new page, so a synchronizer built on Store()
// keeps issuing fresh ids across pages. On error the session is left
// unchanged.
func (s *Session) Reset(records []annotation.Record) error {
	loaded := annotation.NewStore()
	set, err := loaded.Load(records)
	if err != nil {
		return err
	}

	s.logger.Debug("resetting annotations", "count", set.Len())

	s.store.Raise(loaded.Last())
	s.set = set
	s.selected = nil
	s.focused = nil
	s.dirty = false
	return nil
}

// Save writes the annotations back to the repository
func (s *Session) Save(ctx context.Context) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	if err := s.repo.SaveAnnotations(ctx, s.document, s.view, s.set.Records()); err != nil {
		return fmt.Errorf("failed to save annotations of %s/%d: %w", s.document, s.view, err)
	}
	s.dirty = false
	return nil
}

// ============================================================================
// Events
// ============================================================================

// Handle applies an event emitted by a region synchronizer.
//
// An added annotation joins the set and a deleted one leaves it; deleting
// also clears the selection and the focus. Updated annotations were already
// modified in place and are only recorded. A selected annotation becomes
// the session's selection.
func (s *Session) Handle(ev region.Event) {
	a := ev.Target
	if a == nil {
		return
	}

	s.logger.Debug("applying annotation event", "event", ev.Type.String(), "id", a.ID(), "type", a.Type, "box", a.Box.Array())

	switch ev.Type {
	case region.Add:
		if !s.set.Add(a) {
			s.logger.Debug("annotation already present", "id", a.ID())
			return
		}
		s.dirty = true
	case region.Delete:
		if s.set.Delete(a) {
			s.dirty = true
		}
		s.selected = nil
		s.focused = nil
	case region.Updated:
		if !s.set.Has(a) {
			return
		}
		s.dirty = true
	case region.Selected:
		if !s.set.Has(a) {
			return
		}
		s.selected = a
	}

	s.notify(ev)
}

// Select makes a the selected annotation. A nil a clears the selection.
func (s *Session) Select(a *annotation.Annotation) error {
	if a == nil {
		s.selected = nil
		return nil
	}
	if !s.set.Has(a) {
		return ErrNotMember
	}
	s.selected = a
	s.notify(region.Event{Type: region.Selected, Target: a})
	return nil
}

// Focus marks a as the annotation being edited in the text editor
func (s *Session) Focus(a *annotation.Annotation) error {
	if a != nil && !s.set.Has(a) {
		return ErrNotMember
	}
	s.focused = a
	return nil
}

// Next selects the annotation after the selected one among those of the
// same type, wrapping around. It returns the new selection.
func (s *Session) Next() *annotation.Annotation {
	return s.step(s.set.Next)
}

// Prev selects the annotation before the selected one among those of the
// same type, wrapping around. It returns the new selection.
func (s *Session) Prev() *annotation.Annotation {
	return s.step(s.set.Prev)
}

func (s *Session) step(move func(*annotation.Annotation) *annotation.Annotation) *annotation.Annotation {
	if s.selected == nil {
		return nil
	}
	next := move(s.selected)
	if next == nil || next == s.selected {
		return s.selected
	}
	s.selected = next
	s.notify(region.Event{Type: region.Selected, Target: next})
	return next
}

// ============================================================================
// Text edits
// ============================================================================

// TextEdit holds the textual fields to change. Nil fields are left as they
// are.
type TextEdit struct {
	// Text replaces the transcription. When it differs from the current
	// one, the entity markup is reset to the plain text.
	Text *string
	// Markup replaces the entity markup; it is applied after Text.
	Markup  *string
	Comment *string
	Tags    []string
	Checked *bool
}

// ApplyText applies edit to a textual annotation and notifies observers.
// Every change of the textual fields goes through here, so the set is
// marked modified exactly when a field changed.
func (s *Session) ApplyText(a *annotation.Annotation, edit TextEdit) error {
	if !s.set.Has(a) {
		return ErrNotMember
	}
	if !a.IsTextual() {
		return ErrNotTextual
	}

	t := a.Text
	changed := false

	if edit.Text != nil && *edit.Text != t.OCR {
		t.OCR = *edit.Text
		t.NER = *edit.Text
		changed = true
	}
	if edit.Markup != nil && *edit.Markup != t.NER {
		t.NER = *edit.Markup
		changed = true
	}
	if edit.Comment != nil && *edit.Comment != t.Comment {
		t.Comment = *edit.Comment
		changed = true
	}
	if edit.Tags != nil && !equalStrings(edit.Tags, t.Tags) {
		t.Tags = append([]string(nil), edit.Tags...)
		changed = true
	}
	if edit.Checked != nil && *edit.Checked != t.Checked {
		t.Checked = *edit.Checked
		changed = true
	}

	if !changed {
		return nil
	}

	s.logger.Debug("text fields updated", "id", a.ID(), "checked", t.Checked)
	s.dirty = true
	s.notify(region.Event{Type: region.Updated, Target: a})
	return nil
}

// Editor returns a span editor over the markup of a textual annotation.
// Span edits are written back through ApplyText. When the markup was changed
// elsewhere since the editor last saw it, the next edit is dropped and the
// editor reloads the current markup.
func (s *Session) Editor(a *annotation.Annotation) (*markup.Editor, error) {
	if !s.set.Has(a) {
		return nil, ErrNotMember
	}
	if !a.IsTextual() {
		return nil, ErrNotTextual
	}

	e := markup.NewEditor(s.codec, a.Text.NER)
	e.Source = func() string { return a.Text.NER }
	e.OnChange = func(m string) {
		if err := s.ApplyText(a, TextEdit{Markup: &m}); err != nil {
			s.logger.Warn("markup edit dropped", "id", a.ID(), "error", err)
		}
	}
	return e, nil
}

// Document decodes the entity markup of a textual annotation
func (s *Session) Document(a *annotation.Annotation) (markup.Document, error) {
	if !a.IsTextual() {
		return markup.Document{}, ErrNotTextual
	}
	return s.codec.Decode(a.Text.NER), nil
}

// ReOCR transcribes the box of a again and resets its text and markup to
// the transcription.
func (s *Session) ReOCR(ctx context.Context, a *annotation.Annotation) error {
	if s.recognizer == nil {
		return ErrNoRecognizer
	}
	if !s.set.Has(a) {
		return ErrNotMember
	}
	if !a.IsTextual() {
		return ErrNotTextual
	}

	texts, err := s.recognizer.RecognizeRegions(ctx, s.document, s.view, s.image, []annotation.Box{a.Box})
	if err != nil {
		return fmt.Errorf("failed to recognize annotation %s: %w", a.ID(), err)
	}
	if len(texts) == 0 {
		return fmt.Errorf("failed to recognize annotation %s: no transcription returned", a.ID())
	}

	text := norm.NFC.String(texts[0])
	return s.ApplyText(a, TextEdit{Text: &text, Markup: &text})
}

// ReNER recomputes the entity markup of a from its transcription
func (s *Session) ReNER(ctx context.Context, a *annotation.Annotation) error {
	if s.tagger == nil {
		return ErrNoTagger
	}
	if !s.set.Has(a) {
		return ErrNotMember
	}
	if !a.IsTextual() {
		return ErrNotTextual
	}

	m, err := s.tagger.NER(ctx, a.Text.OCR)
	if err != nil {
		return fmt.Errorf("failed to tag annotation %s: %w", a.ID(), err)
	}
	return s.ApplyText(a, TextEdit{Markup: &m})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ============================================================================
// Accessors
// ============================================================================

// Store returns the id store of the current page
func (s *Session) Store() *annotation.Store { return s.store }

// Set returns the annotations of the current page
func (s *Session) Set() *annotation.Set { return s.set }

// Image returns the page image loaded by Open
func (s *Session) Image() []byte { return s.image }

// Page returns the document and view loaded by Open
func (s *Session) Page() (string, int) { return s.document, s.view }

// Selected returns the selected annotation or nil
func (s *Session) Selected() *annotation.Annotation { return s.selected }

// Focused returns the annotation being edited or nil
func (s *Session) Focused() *annotation.Annotation { return s.focused }

// Dirty reports whether the annotations changed since they were loaded or
// saved
func (s *Session) Dirty() bool { return s.dirty }
