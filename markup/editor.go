package markup

// Editor holds the span view of one markup string while it is being edited.
//
// Edits are proposed as complete span lists. A proposal is accepted only if
// the list is valid for the text and encodes to markup different from the
// current one; OnChange then receives the new markup. Rejected proposals
// leave the editor on its last valid state.
type Editor struct {
	codec  *Codec
	markup string
	doc    Document

	// Tag is the active tag used by Mark
	Tag string
	// ReadOnly editors ignore every edit
	ReadOnly bool
	// OnChange receives the markup of each accepted edit
	OnChange func(markup string)
	// Source, when set, returns the current markup of the edited value.
	// An edit made while it differs from the editor's markup is dropped and
	// the editor reloads from it.
	Source func() string
}

// NewEditor creates an editor over markup. A nil codec uses the defaults.
func NewEditor(codec *Codec, markup string) *Editor {
	if codec == nil {
		codec = defaultCodec
	}
	e := &Editor{
		codec: codec,
		Tag:   codec.palette().Default(),
	}
	e.SetMarkup(markup)
	return e
}

// SetMarkup replaces the edited markup without notifying OnChange.
// It is used when the annotation changed outside the editor.
func (e *Editor) SetMarkup(markup string) {
	e.markup = markup
	e.doc = e.codec.Decode(markup)
}

// Markup returns the current markup
func (e *Editor) Markup() string {
	return e.markup
}

// Text returns the plain text under the spans
func (e *Editor) Text() string {
	return e.doc.Text
}

// Spans returns a copy of the current spans
func (e *Editor) Spans() []Span {
	out := make([]Span, len(e.doc.Spans))
	copy(out, e.doc.Spans)
	return out
}

// SetSpans proposes a new span list and reports whether it was applied
func (e *Editor) SetSpans(spans []Span) bool {
	if e.ReadOnly {
		return false
	}
	if e.Source != nil {
		if current := e.Source(); current != e.markup {
			e.codec.logger().Debug("span edit dropped, markup changed", "markup", current)
			e.SetMarkup(current)
			return false
		}
	}
	if err := Validate(len([]rune(e.doc.Text)), spans); err != nil {
		e.codec.logger().Debug("span edit dropped", "error", err)
		return false
	}

	next := e.codec.Encode(e.doc.Text, spans)
	if next == e.markup {
		return false
	}

	e.SetMarkup(next)
	if e.OnChange != nil {
		e.OnChange(next)
	}
	return true
}

// Mark tags the range [start, end) with the active tag
func (e *Editor) Mark(start, end int) bool {
	span := Span{
		Start: start,
		End:   end,
		Tag:   e.Tag,
		Color: e.codec.palette().Color(e.Tag),
	}
	return e.SetSpans(append(e.Spans(), span))
}

// Unmark removes the i-th span
func (e *Editor) Unmark(i int) bool {
	spans := e.Spans()
	if i < 0 || i >= len(spans) {
		return false
	}
	return e.SetSpans(append(spans[:i], spans[i+1:]...))
}

// SpanAt returns the index of the span covering character offset pos, or -1
func (e *Editor) SpanAt(pos int) int {
	for i, s := range e.doc.Spans {
		if pos >= s.Start && pos < s.End {
			return i
		}
	}
	return -1
}
