package annotation

// Set is the collection of annotations of one page.
// Membership is by pointer and iteration follows insertion order. Ids are
// indexed as well, so two distinct annotations can never share an id.
type Set struct {
	items []*Annotation
	pos   map[*Annotation]int
	ids   map[string]*Annotation
}

// NewSet creates a set holding the given annotations
func NewSet(items ...*Annotation) *Set {
	s := &Set{
		pos: make(map[*Annotation]int),
		ids: make(map[string]*Annotation),
	}
	for _, a := range items {
		s.Add(a)
	}
	return s
}

// Add inserts a. It returns false if a is already a member or if another
// member has the same id.
func (s *Set) Add(a *Annotation) bool {
	if a == nil {
		return false
	}
	if _, ok := s.pos[a]; ok {
		return false
	}
	if _, ok := s.ids[a.id]; ok {
		return false
	}
	s.pos[a] = len(s.items)
	s.ids[a.id] = a
	s.items = append(s.items, a)
	return true
}

// Delete removes a and reports whether it was a member
func (s *Set) Delete(a *Annotation) bool {
	i, ok := s.pos[a]
	if !ok {
		return false
	}
	delete(s.pos, a)
	delete(s.ids, a.id)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.pos[s.items[j]] = j
	}
	return true
}

// Has reports whether a is a member
func (s *Set) Has(a *Annotation) bool {
	_, ok := s.pos[a]
	return ok
}

// Len returns the number of members
func (s *Set) Len() int {
	return len(s.items)
}

// Get returns the member with the given id, or nil
func (s *Set) Get(id string) *Annotation {
	return s.ids[id]
}

// All returns the members in insertion order.
// The slice is a copy; the annotations are shared.
func (s *Set) All() []*Annotation {
	out := make([]*Annotation, len(s.items))
	copy(out, s.items)
	return out
}

// OfType returns the members of the given type in insertion order
func (s *Set) OfType(t string) []*Annotation {
	var out []*Annotation
	for _, a := range s.items {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// Next returns the member of the same type that follows a, wrapping around
// at the end. It returns nil if a is not a member.
func (s *Set) Next(a *Annotation) *Annotation {
	return s.step(a, 1)
}

// Prev returns the member of the same type that precedes a, wrapping around
// at the start. It returns nil if a is not a member.
func (s *Set) Prev(a *Annotation) *Annotation {
	return s.step(a, -1)
}

func (s *Set) step(a *Annotation, delta int) *Annotation {
	if !s.Has(a) {
		return nil
	}
	same := s.OfType(a.Type)
	n := len(same)
	for i, e := range same {
		if e == a {
			return same[(i+delta+n)%n]
		}
	}
	return nil
}

// Records returns the plain form of every member, in order
func (s *Set) Records() []Record {
	out := make([]Record, len(s.items))
	for i, a := range s.items {
		out[i] = a.Record()
	}
	return out
}
