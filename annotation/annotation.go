package annotation

import (
	"encoding/json"
	"strconv"
)

// Kind distinguishes the two annotation variants
type Kind int

const (
	// Geometric annotations carry a type and a box only.
	Geometric Kind = iota
	// Textual annotations also carry a transcription and entity markup.
	Textual
)

func (k Kind) String() string {
	switch k {
	case Textual:
		return "Textual"
	default:
		return "Geometric"
	}
}

// Record keys understood by the model. Every other key is kept as-is.
const (
	keyID      = "id"
	keyType    = "type"
	keyBox     = "box"
	keyOCR     = "text_ocr"
	keyNER     = "ner_xml"
	keyTags    = "tags"
	keyComment = "comment"
	keyChecked = "checked"
	keyText    = "text"
)

// Record is the plain form of an annotation as exchanged with the storage
// service: a decoded JSON object.
type Record map[string]any

// Text holds the fields of a textual annotation
type Text struct {
	OCR     string   // plain transcription (text_ocr)
	NER     string   // entity markup over the transcription (ner_xml)
	Tags    []string // free-form labels
	Comment string
	Checked bool

	// Display holds the legacy "text" field when present
	Display string
}

func (t *Text) clone() *Text {
	if t == nil {
		return nil
	}
	c := *t
	if t.Tags != nil {
		c.Tags = make([]string, len(t.Tags))
		copy(c.Tags, t.Tags)
	}
	return &c
}

// Annotation is one structural region of a page.
//
// The id is fixed at construction. Box and Text are written in place by the
// region and text editors; those writes are always announced through their
// event channels.
type Annotation struct {
	id  string
	seq int64

	Type string
	Box  Box

	// Text is nil for geometric annotations
	Text *Text

	extra map[string]any
}

// ID returns the annotation id
func (a *Annotation) ID() string { return a.id }

// Seq returns the numeric value of the id
func (a *Annotation) Seq() int64 { return a.seq }

// Kind returns the variant of the annotation
func (a *Annotation) Kind() Kind {
	if a.Text != nil {
		return Textual
	}
	return Geometric
}

// IsTextual reports whether the annotation carries textual fields
func (a *Annotation) IsTextual() bool {
	return a.Kind() == Textual
}

// Record converts the annotation back to its plain form.
// The returned record shares nothing with the annotation.
func (a *Annotation) Record() Record {
	r := make(Record, len(a.extra)+8)
	for k, v := range a.extra {
		r[k] = deepCopy(v)
	}

	r[keyID] = a.id
	r[keyType] = a.Type
	box := a.Box.Array()
	r[keyBox] = box[:]

	if t := a.Text; t != nil {
		r[keyOCR] = t.OCR
		r[keyNER] = t.NER
		if t.Tags != nil {
			tags := make([]string, len(t.Tags))
			copy(tags, t.Tags)
			r[keyTags] = tags
		}
		if t.Comment != "" {
			r[keyComment] = t.Comment
		}
		if t.Checked {
			r[keyChecked] = true
		}
		if t.Display != "" {
			r[keyText] = t.Display
		}
	}

	return r
}

// MarshalJSON encodes the annotation as its record
func (a *Annotation) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Record())
}

// String returns a short description for logs
func (a *Annotation) String() string {
	return a.Type + "#" + a.id
}

func formatID(seq int64) string {
	return strconv.FormatInt(seq, 10)
}

// deepCopy copies the JSON-shaped values found in records
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = deepCopy(e)
		}
		return m
	case Record:
		m := make(Record, len(t))
		for k, e := range t {
			m[k] = deepCopy(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = deepCopy(e)
		}
		return s
	case []string:
		s := make([]string, len(t))
		copy(s, t)
		return s
	case []float64:
		s := make([]float64, len(t))
		copy(s, t)
		return s
	default:
		return v
	}
}
