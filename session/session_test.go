package session

import (
	"context"
	"errors"
	"testing"

	"github.com/tsawler/annotator/annotation"
	"github.com/tsawler/annotator/region"
)

type fakeRepository struct {
	records []annotation.Record
	image   []byte
	err     error

	saved     []annotation.Record
	savedPage string
	savedView int
}

func (r *fakeRepository) Annotations(ctx context.Context, document string, view int) ([]annotation.Record, error) {
	return r.records, r.err
}

func (r *fakeRepository) Image(ctx context.Context, document string, view int) ([]byte, error) {
	return r.image, nil
}

func (r *fakeRepository) SaveAnnotations(ctx context.Context, document string, view int, records []annotation.Record) error {
	r.saved = records
	r.savedPage = document
	r.savedView = view
	return r.err
}

type fakeRecognizer struct {
	texts []string
	boxes []annotation.Box
	image []byte
}

func (r *fakeRecognizer) RecognizeRegions(ctx context.Context, document string, view int, image []byte, boxes []annotation.Box) ([]string, error) {
	r.boxes = boxes
	r.image = image
	return r.texts, nil
}

type fakeTagger struct {
	markup string
	input  string
}

func (t *fakeTagger) NER(ctx context.Context, text string) (string, error) {
	t.input = text
	return t.markup, nil
}

func pageRecords() []annotation.Record {
	return []annotation.Record{
		{"id": "1", "type": annotation.TypeColumnLevel1, "box": []float64{0, 0, 500, 900}},
		{"id": "2", "type": annotation.TypeEntry, "box": []float64{10, 10, 100, 20}, "text_ocr": "John Smith is tall", "ner_xml": "<PER>John Smith</PER> is tall"},
		{"id": "3", "type": annotation.TypeEntry, "box": []float64{10, 40, 100, 20}, "text_ocr": "Paris", "ner_xml": "<LOC>Paris</LOC>"},
		{"id": "4", "type": annotation.TypeLine, "box": []float64{10, 70, 100, 20}, "text_ocr": "x", "ner_xml": "x"},
		{"id": "5", "type": annotation.TypeEntry, "box": []float64{10, 100, 100, 20}, "text_ocr": "Lyon", "ner_xml": "Lyon"},
	}
}

func newTestSession(t *testing.T) (*Session, *[]region.Event) {
	t.Helper()
	s := New(Options{})
	if err := s.Reset(pageRecords()); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	var events []region.Event
	s.Subscribe(func(ev region.Event) { events = append(events, ev) })
	return s, &events
}

func strPtr(s string) *string { return &s }

// ============================================================================
// Loading Tests
// ============================================================================

func TestOpen(t *testing.T) {
	repo := &fakeRepository{records: pageRecords(), image: []byte("img")}
	s := New(Options{Repository: repo})

	if err := s.Open(context.Background(), "register", 3); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.Set().Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Set().Len())
	}
	if string(s.Image()) != "img" {
		t.Error("image not kept")
	}
	if doc, view := s.Page(); doc != "register" || view != 3 {
		t.Errorf("Page() = %s, %d", doc, view)
	}
	if s.Store().Last() != 5 {
		t.Errorf("store seeded to %d, want 5", s.Store().Last())
	}
	if s.Dirty() {
		t.Error("freshly opened session is dirty")
	}
}

func TestOpenErrors(t *testing.T) {
	if err := New(Options{}).Open(context.Background(), "d", 1); !errors.Is(err, ErrNoRepository) {
		t.Errorf("got %v, want ErrNoRepository", err)
	}

	boom := errors.New("boom")
	s := New(Options{Repository: &fakeRepository{err: boom}})
	if err := s.Open(context.Background(), "d", 1); !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped repository error", err)
	}
}

func TestResetMalformedKeepsState(t *testing.T) {
	s, _ := newTestSession(t)

	err := s.Reset([]annotation.Record{{"id": "x", "box": []float64{0, 0, 1, 1}}})
	var malformed *annotation.MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedInputError", err)
	}
	if s.Set().Len() != 5 {
		t.Error("failed reset replaced the set")
	}
}

func TestSave(t *testing.T) {
	repo := &fakeRepository{records: pageRecords(), image: []byte("img")}
	s := New(Options{Repository: repo})
	if err := s.Open(context.Background(), "register", 3); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	a := s.Set().Get("2")
	if err := s.ApplyText(a, TextEdit{Comment: strPtr("checked twice")}); err != nil {
		t.Fatalf("ApplyText failed: %v", err)
	}
	if !s.Dirty() {
		t.Fatal("edit did not mark the session dirty")
	}

	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if repo.savedPage != "register" || repo.savedView != 3 || len(repo.saved) != 5 {
		t.Errorf("saved %d records to %s/%d", len(repo.saved), repo.savedPage, repo.savedView)
	}
	if repo.saved[1]["comment"] != "checked twice" {
		t.Errorf("saved record = %v", repo.saved[1])
	}
	if s.Dirty() {
		t.Error("session still dirty after save")
	}
}

// ============================================================================
// Event Tests
// ============================================================================

func TestHandle(t *testing.T) {
	s, events := newTestSession(t)
	a := s.Set().Get("2")

	s.Handle(region.Event{Type: region.Selected, Target: a})
	if s.Selected() != a {
		t.Fatal("selected event did not select")
	}
	if err := s.Focus(a); err != nil {
		t.Fatalf("Focus failed: %v", err)
	}

	dup := s.Store().Clone(a)
	s.Handle(region.Event{Type: region.Add, Target: dup})
	if !s.Set().Has(dup) || s.Set().Len() != 6 {
		t.Error("added annotation not in set")
	}

	// the same entity is never added twice
	s.Handle(region.Event{Type: region.Add, Target: dup})
	if s.Set().Len() != 6 {
		t.Error("duplicate add changed the set")
	}

	s.Handle(region.Event{Type: region.Delete, Target: a})
	if s.Set().Has(a) {
		t.Error("deleted annotation still in set")
	}
	if s.Selected() != nil || s.Focused() != nil {
		t.Error("delete must clear selection and focus")
	}

	if len(*events) != 3 {
		t.Errorf("observers saw %d events, want 3", len(*events))
	}
	if !s.Dirty() {
		t.Error("session not dirty")
	}
}

func TestHandleUpdated(t *testing.T) {
	s, events := newTestSession(t)
	a := s.Set().Get("3")
	a.Box = annotation.NewBox(1, 2, 3, 4)

	s.Handle(region.Event{Type: region.Updated, Target: a})
	if !s.Dirty() || len(*events) != 1 {
		t.Error("update not recorded")
	}

	stranger, err := annotation.NewStore().Create(annotation.Record{"id": "99", "box": []float64{0, 0, 1, 1}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	s.Handle(region.Event{Type: region.Updated, Target: stranger})
	s.Handle(region.Event{Type: region.Selected, Target: stranger})
	if len(*events) != 1 || s.Selected() == stranger {
		t.Error("events for foreign annotations were applied")
	}
}

func TestSynchronizerDrivesSession(t *testing.T) {
	s, _ := newTestSession(t)
	sync := region.New(nopCanvas{}, s.Store(), region.Config{
		Listener: s.Handle,
		Decode: func(ctx context.Context, data []byte) (region.Background, error) {
			return region.Background{Width: 100, Height: 100}, nil
		},
	})
	if err := <-sync.Redraw(context.Background(), []byte("x"), s.Set()); err != nil {
		t.Fatalf("Redraw failed: %v", err)
	}

	sync.Select("3")
	if s.Selected() != s.Set().Get("3") {
		t.Fatal("selection not propagated")
	}
	sync.DuplicateSelected()
	if s.Set().Len() != 6 || s.Set().Get("6") == nil {
		t.Error("duplicate not added to the session")
	}
	sync.DeleteSelected()
	if s.Set().Get("3") != nil || s.Selected() != nil {
		t.Error("delete not propagated")
	}
}

func TestPageSwitchKeepsIDsUnique(t *testing.T) {
	s := New(Options{})
	if err := s.Reset(pageRecords()[:2]); err != nil {
		t.Fatal(err)
	}
	sync := region.New(nopCanvas{}, s.Store(), region.Config{
		Listener: s.Handle,
		Decode: func(ctx context.Context, data []byte) (region.Background, error) {
			return region.Background{Width: 100, Height: 100}, nil
		},
	})
	if err := <-sync.Redraw(context.Background(), []byte("a"), s.Set()); err != nil {
		t.Fatalf("Redraw failed: %v", err)
	}

	if err := s.Reset(pageRecords()); err != nil {
		t.Fatal(err)
	}
	if err := <-sync.Redraw(context.Background(), []byte("b"), s.Set()); err != nil {
		t.Fatalf("Redraw failed: %v", err)
	}

	original := s.Set().Get("2")
	sync.Select("2")
	if n := sync.DuplicateSelected(); n != 1 {
		t.Fatalf("DuplicateSelected() = %d, want 1", n)
	}

	if s.Set().Len() != 6 || sync.Len() != 6 {
		t.Fatalf("session has %d annotations, synchronizer %d, want 6", s.Set().Len(), sync.Len())
	}
	clone := s.Set().Get("6")
	if clone == nil || clone == original {
		t.Fatal("duplicate did not get a fresh id")
	}
	for _, id := range []string{"2", "3", "5"} {
		if sync.Annotation(id) != s.Set().Get(id) {
			t.Errorf("annotation %s differs between synchronizer and session", id)
		}
	}
}

type nopCanvas struct{}

func (nopCanvas) Clear()                          {}
func (nopCanvas) SetSize(int, int)                {}
func (nopCanvas) SetBackground(region.Background) {}
func (nopCanvas) Add(*region.Shape)               {}
func (nopCanvas) Remove(*region.Shape)            {}
func (nopCanvas) SetRenderOnAddRemove(bool)       {}
func (nopCanvas) RenderAll()                      {}
func (nopCanvas) RequestRenderAll()               {}
func (nopCanvas) SetZoom(float64)                 {}

// ============================================================================
// Navigation Tests
// ============================================================================

func TestNavigation(t *testing.T) {
	s, events := newTestSession(t)

	if s.Next() != nil {
		t.Error("Next without selection should be nil")
	}

	if err := s.Select(s.Set().Get("2")); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	// entries are 2, 3 and 5; the line in between is skipped
	steps := []struct {
		move func() *annotation.Annotation
		want string
	}{
		{s.Next, "3"},
		{s.Next, "5"},
		{s.Next, "2"},
		{s.Prev, "5"},
	}
	for _, st := range steps {
		if got := st.move(); got == nil || got.ID() != st.want {
			t.Fatalf("got %v, want %s", got, st.want)
		}
	}
	if s.Selected().ID() != "5" {
		t.Errorf("selection = %s", s.Selected())
	}
	if len(*events) != 5 {
		t.Errorf("selected events = %d, want 5", len(*events))
	}

	// a lone annotation of its type stays selected
	if err := s.Select(s.Set().Get("4")); err != nil {
		t.Fatal(err)
	}
	if got := s.Next(); got.ID() != "4" {
		t.Errorf("Next() = %s, want 4", got)
	}
}

// ============================================================================
// Text Edit Tests
// ============================================================================

func TestApplyText(t *testing.T) {
	tests := []struct {
		name    string
		edit    TextEdit
		ocr     string
		ner     string
		changed bool
	}{
		{"no change", TextEdit{}, "John Smith is tall", "<PER>John Smith</PER> is tall", false},
		{"same text", TextEdit{Text: strPtr("John Smith is tall")}, "John Smith is tall", "<PER>John Smith</PER> is tall", false},
		{"new text resets markup", TextEdit{Text: strPtr("John Smyth is tall")}, "John Smyth is tall", "John Smyth is tall", true},
		{"markup", TextEdit{Markup: strPtr("John Smith is <ACT>tall</ACT>")}, "John Smith is tall", "John Smith is <ACT>tall</ACT>", true},
		{"text then markup", TextEdit{Text: strPtr("Jo"), Markup: strPtr("<PER>Jo</PER>")}, "Jo", "<PER>Jo</PER>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, events := newTestSession(t)
			a := s.Set().Get("2")

			if err := s.ApplyText(a, tt.edit); err != nil {
				t.Fatalf("ApplyText failed: %v", err)
			}
			if a.Text.OCR != tt.ocr || a.Text.NER != tt.ner {
				t.Errorf("got %q / %q, want %q / %q", a.Text.OCR, a.Text.NER, tt.ocr, tt.ner)
			}
			if s.Dirty() != tt.changed || (len(*events) == 1) != tt.changed {
				t.Errorf("dirty = %v, events = %d, want changed = %v", s.Dirty(), len(*events), tt.changed)
			}
		})
	}
}

func TestApplyTextMetadata(t *testing.T) {
	s, events := newTestSession(t)
	a := s.Set().Get("3")
	checked := true

	err := s.ApplyText(a, TextEdit{Comment: strPtr("ok"), Tags: []string{"verified"}, Checked: &checked})
	if err != nil {
		t.Fatalf("ApplyText failed: %v", err)
	}
	if a.Text.Comment != "ok" || !a.Text.Checked || len(a.Text.Tags) != 1 {
		t.Errorf("text = %+v", a.Text)
	}
	ev := (*events)[0]
	if ev.Type != region.Updated || ev.Target != a {
		t.Errorf("event = %+v", ev)
	}
}

func TestApplyTextRejects(t *testing.T) {
	s, _ := newTestSession(t)

	if err := s.ApplyText(s.Set().Get("1"), TextEdit{Text: strPtr("x")}); !errors.Is(err, ErrNotTextual) {
		t.Errorf("geometric: got %v, want ErrNotTextual", err)
	}

	other, _ := annotation.NewStore().Create(pageRecords()[1])
	if err := s.ApplyText(other, TextEdit{Text: strPtr("x")}); !errors.Is(err, ErrNotMember) {
		t.Errorf("foreign: got %v, want ErrNotMember", err)
	}
	if s.Dirty() {
		t.Error("rejected edit marked the session dirty")
	}
}

func TestEditorWritesBack(t *testing.T) {
	s, events := newTestSession(t)
	a := s.Set().Get("3")

	e, err := s.Editor(a)
	if err != nil {
		t.Fatalf("Editor failed: %v", err)
	}
	if !e.Unmark(0) {
		t.Fatal("Unmark rejected")
	}
	if a.Text.NER != "Paris" {
		t.Errorf("NER = %q, want Paris", a.Text.NER)
	}
	if len(*events) != 1 {
		t.Errorf("events = %d, want 1", len(*events))
	}

	if _, err := s.Editor(s.Set().Get("1")); !errors.Is(err, ErrNotTextual) {
		t.Errorf("got %v, want ErrNotTextual", err)
	}
}

func TestEditorKeepsNewerMarkup(t *testing.T) {
	tagger := &fakeTagger{markup: "John <LOC>Smith</LOC> is tall"}
	s := New(Options{Tagger: tagger})
	if err := s.Reset(pageRecords()); err != nil {
		t.Fatal(err)
	}
	a := s.Set().Get("2")

	e, err := s.Editor(a)
	if err != nil {
		t.Fatalf("Editor failed: %v", err)
	}
	if err := s.ReNER(context.Background(), a); err != nil {
		t.Fatalf("ReNER failed: %v", err)
	}

	if e.Unmark(0) {
		t.Error("edit over outdated markup was applied")
	}
	if a.Text.NER != "John <LOC>Smith</LOC> is tall" {
		t.Fatalf("NER = %q, tagger result lost", a.Text.NER)
	}

	if !e.Unmark(0) {
		t.Fatal("edit after reload was rejected")
	}
	if a.Text.NER != "John Smith is tall" {
		t.Errorf("NER = %q, want John Smith is tall", a.Text.NER)
	}
}

func TestDocument(t *testing.T) {
	s, _ := newTestSession(t)

	doc, err := s.Document(s.Set().Get("2"))
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if doc.Text != "John Smith is tall" || len(doc.Spans) != 1 {
		t.Errorf("Document() = %+v", doc)
	}
}

// ============================================================================
// Recompute Tests
// ============================================================================

func TestReOCR(t *testing.T) {
	rec := &fakeRecognizer{texts: []string{"Cafe\u0301 de Paris"}}
	s := New(Options{Recognizer: rec})
	if err := s.Reset(pageRecords()); err != nil {
		t.Fatal(err)
	}
	a := s.Set().Get("3")

	if err := s.ReOCR(context.Background(), a); err != nil {
		t.Fatalf("ReOCR failed: %v", err)
	}
	if len(rec.boxes) != 1 || rec.boxes[0] != a.Box {
		t.Errorf("recognized boxes = %v", rec.boxes)
	}
	// the combining accent is composed
	if a.Text.OCR != "Caf\u00e9 de Paris" || a.Text.NER != "Caf\u00e9 de Paris" {
		t.Errorf("got %q / %q", a.Text.OCR, a.Text.NER)
	}

	if err := s.ReOCR(context.Background(), s.Set().Get("1")); !errors.Is(err, ErrNotTextual) {
		t.Errorf("got %v, want ErrNotTextual", err)
	}
	if err := New(Options{}).ReOCR(context.Background(), a); !errors.Is(err, ErrNoRecognizer) {
		t.Errorf("got %v, want ErrNoRecognizer", err)
	}
}

func TestReOCREmptyResult(t *testing.T) {
	s := New(Options{Recognizer: &fakeRecognizer{}})
	if err := s.Reset(pageRecords()); err != nil {
		t.Fatal(err)
	}
	a := s.Set().Get("3")

	if err := s.ReOCR(context.Background(), a); err == nil {
		t.Error("expected an error for an empty result")
	}
	if a.Text.OCR != "Paris" {
		t.Error("failed recognition changed the text")
	}
}

func TestReNER(t *testing.T) {
	tagger := &fakeTagger{markup: "<LOC>Lyon</LOC>"}
	s := New(Options{Tagger: tagger})
	if err := s.Reset(pageRecords()); err != nil {
		t.Fatal(err)
	}
	a := s.Set().Get("5")

	if err := s.ReNER(context.Background(), a); err != nil {
		t.Fatalf("ReNER failed: %v", err)
	}
	if tagger.input != "Lyon" {
		t.Errorf("tagger input = %q", tagger.input)
	}
	if a.Text.NER != "<LOC>Lyon</LOC>" || a.Text.OCR != "Lyon" {
		t.Errorf("got %q / %q", a.Text.OCR, a.Text.NER)
	}
	if err := New(Options{}).ReNER(context.Background(), a); !errors.Is(err, ErrNoTagger) {
		t.Errorf("got %v, want ErrNoTagger", err)
	}
}
