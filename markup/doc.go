// Package markup converts named-entity markup to and from span lists.
//
// Entity markup is a transcription where each tagged run is wrapped in a
// non-nested element named after its tag:
//
//	<PER>John Smith</PER> is tall
//
// [Decode] turns such a string into the plain text and a list of [Span]
// values, half-open character ranges over that text. [Encode] performs the
// reverse operation. For any markup produced by Encode,
//
//	doc := markup.Decode(m)
//	markup.Encode(doc.Text, doc.Spans) == m
//
// Offsets count Unicode code points, not bytes.
//
// Decoding never fails: malformed markup is logged and decoded on a best
// effort basis. Span lists are validated by [Validate]; overlapping,
// empty or out-of-range spans cannot be represented as markup.
//
// The [Editor] type is the editing surface for one annotation's markup. It
// only reports a change when the edited span list is valid and produces
// different markup; every other edit is dropped.
package markup
