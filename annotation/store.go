package annotation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CloneOffset is the distance, in pixels along both axes, between an
// annotation and its duplicate.
const CloneOffset = 10

// MalformedInputError reports a record that cannot become an annotation
type MalformedInputError struct {
	Index  int // position in the loaded list, -1 for a single record
	Field  string
	Value  any
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("malformed annotation #%d: %s %s (got %v)", e.Index, e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("malformed annotation: %s %s (got %v)", e.Field, e.Reason, e.Value)
}

// Store issues annotation ids for one collection session.
// The counter only moves forward: it is raised to every id passed to
// Create and incremented by every Clone.
type Store struct {
	last int64
}

// NewStore creates a store whose counter starts at zero
func NewStore() *Store {
	return &Store{}
}

// NewStoreFrom creates a store whose counter starts at last
func NewStoreFrom(last int64) *Store {
	return &Store{last: last}
}

// Last returns the largest id issued or seen so far
func (s *Store) Last() int64 {
	return s.last
}

// Raise moves the counter up to last. A lower value leaves it unchanged.
func (s *Store) Raise(last int64) {
	if last > s.last {
		s.last = last
	}
}

// Create builds an annotation from a record.
// The box is copied, and the counter is raised to the record's id.
func (s *Store) Create(r Record) (*Annotation, error) {
	a, err := parseRecord(r)
	if err != nil {
		return nil, err
	}
	if a.seq > s.last {
		s.last = a.seq
	}
	return a, nil
}

// Clone returns a copy of a with the next id and its box shifted by
// CloneOffset on both axes. a is not modified.
func (s *Store) Clone(a *Annotation) *Annotation {
	s.last++

	c := &Annotation{
		id:   formatID(s.last),
		seq:  s.last,
		Type: a.Type,
		Box:  a.Box.Offset(CloneOffset, CloneOffset),
		Text: a.Text.clone(),
	}
	if a.extra != nil {
		c.extra = deepCopy(a.extra).(map[string]any)
	}
	return c
}

// Load creates one annotation per record and returns them as a set in
// record order. It stops at the first malformed record or duplicated id.
func (s *Store) Load(records []Record) (*Set, error) {
	set := NewSet()
	for i, r := range records {
		a, err := s.Create(r)
		if err != nil {
			if me, ok := err.(*MalformedInputError); ok {
				me.Index = i
			}
			return nil, err
		}
		if !set.Add(a) {
			return nil, &MalformedInputError{Index: i, Field: keyID, Value: a.id, Reason: "is duplicated"}
		}
	}
	return set, nil
}

func parseRecord(r Record) (*Annotation, error) {
	seq, err := parseID(r[keyID])
	if err != nil {
		return nil, err
	}

	box, err := parseBox(r[keyBox])
	if err != nil {
		return nil, err
	}

	a := &Annotation{
		id:  formatID(seq),
		seq: seq,
		Box: box,
	}

	if v, ok := r[keyType]; ok {
		t, ok := v.(string)
		if !ok {
			return nil, &MalformedInputError{Index: -1, Field: keyType, Value: v, Reason: "is not a string"}
		}
		a.Type = t
	}

	_, hasOCR := r[keyOCR]
	_, hasNER := r[keyNER]
	if hasOCR && hasNER {
		if a.Text, err = parseText(r); err != nil {
			return nil, err
		}
	}

	for k, v := range r {
		if isModelKey(k, a.Text != nil) {
			continue
		}
		if a.extra == nil {
			a.extra = make(map[string]any)
		}
		a.extra[k] = deepCopy(v)
	}

	return a, nil
}

func isModelKey(k string, textual bool) bool {
	switch k {
	case keyID, keyType, keyBox:
		return true
	case keyOCR, keyNER, keyTags, keyComment, keyChecked, keyText:
		return textual
	}
	return false
}

func parseID(v any) (int64, error) {
	bad := func(reason string) error {
		return &MalformedInputError{Index: -1, Field: keyID, Value: v, Reason: reason}
	}

	switch t := v.(type) {
	case nil:
		return 0, bad("is missing")
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, bad("is not numeric")
		}
		return n, nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, bad("is not an integer")
		}
		return n, nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, bad("is not an integer")
		}
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	default:
		return 0, bad("is not numeric")
	}
}

func parseBox(v any) (Box, error) {
	bad := func(reason string) error {
		return &MalformedInputError{Index: -1, Field: keyBox, Value: v, Reason: reason}
	}

	var values []float64
	switch t := v.(type) {
	case nil:
		return Box{}, bad("is missing")
	case []float64:
		values = t
	case [4]float64:
		values = t[:]
	case []any:
		values = make([]float64, 0, len(t))
		for _, e := range t {
			f, ok := toFloat(e)
			if !ok {
				return Box{}, bad("holds a non-numeric value")
			}
			values = append(values, f)
		}
	default:
		return Box{}, bad("is not a list")
	}

	if len(values) < 4 {
		return Box{}, bad("has fewer than 4 values")
	}

	box := NewBox(values[0], values[1], values[2], values[3])
	if !box.IsValid() {
		return Box{}, bad("has a negative size")
	}
	return box, nil
}

func parseText(r Record) (*Text, error) {
	t := &Text{}
	var ok bool

	str := func(key string) (string, error) {
		v, present := r[key]
		if !present || v == nil {
			return "", nil
		}
		s, isString := v.(string)
		if !isString {
			return "", &MalformedInputError{Index: -1, Field: key, Value: v, Reason: "is not a string"}
		}
		return s, nil
	}

	var err error
	if t.OCR, err = str(keyOCR); err != nil {
		return nil, err
	}
	if t.NER, err = str(keyNER); err != nil {
		return nil, err
	}
	if t.Comment, err = str(keyComment); err != nil {
		return nil, err
	}
	if t.Display, err = str(keyText); err != nil {
		return nil, err
	}

	if v, present := r[keyChecked]; present && v != nil {
		if t.Checked, ok = v.(bool); !ok {
			return nil, &MalformedInputError{Index: -1, Field: keyChecked, Value: v, Reason: "is not a boolean"}
		}
	}

	switch tags := r[keyTags].(type) {
	case nil:
	case []string:
		t.Tags = append([]string{}, tags...)
	case []any:
		t.Tags = make([]string, 0, len(tags))
		for _, e := range tags {
			s, isString := e.(string)
			if !isString {
				return nil, &MalformedInputError{Index: -1, Field: keyTags, Value: r[keyTags], Reason: "holds a non-string value"}
			}
			t.Tags = append(t.Tags, s)
		}
	default:
		return nil, &MalformedInputError{Index: -1, Field: keyTags, Value: tags, Reason: "is not a list"}
	}

	return t, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
