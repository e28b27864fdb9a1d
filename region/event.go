package region

import "github.com/tsawler/annotator/annotation"

// EventType identifies a change reported by the synchronizer
type EventType int

const (
	Add EventType = iota
	Delete
	Selected
	Updated
)

func (t EventType) String() string {
	switch t {
	case Add:
		return "add"
	case Delete:
		return "delete"
	case Selected:
		return "selected"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// Event is a change to one annotation
type Event struct {
	Type   EventType
	Target *annotation.Annotation
}

// Listener receives events in the order they happened.
// It is called without the synchronizer lock held and may call back into
// the synchronizer.
type Listener func(Event)
