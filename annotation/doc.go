// Package annotation provides the entity model for page annotations.
//
// An [Annotation] couples a [Box] in page-image pixel coordinates with an
// optional set of textual fields. Annotations come in two variants, reported
// by [Annotation.Kind]:
//
//   - [Geometric] - a region with a type and a box only (columns, sections)
//   - [Textual] - a region that also carries an OCR transcription and
//     named-entity markup (entries, lines, titles)
//
// # Identity
//
// Annotations are shared by pointer between the owning [Set], the region
// editor and the text editor. Two values are the same logical entity only if
// they are the same pointer; a [Set] is keyed by pointer and keeps insertion
// order.
//
// Ids are the decimal form of an integer issued by a [Store]. A Store is
// scoped to one collection session: it is seeded with the largest id seen
// while loading and only moves forward, so clones never reuse an id:
//
//	store := annotation.NewStore()
//	set, err := store.Load(records)
//	if err != nil {
//	    // malformed input, see MalformedInputError
//	}
//	dup := store.Clone(set.All()[0]) // id = max+1, box shifted by (+10, +10)
//
// # Records
//
// A [Record] is the plain, JSON-shaped form exchanged with the storage
// service. Keys the model does not know about are preserved and written back
// by [Annotation.Record].
package annotation
