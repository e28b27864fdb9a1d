// Package annotator provides a fluent API for reading the annotations of a
// scanned directory page.
//
// Basic usage:
//
//	client := remote.New(storageOpts, computeOpts)
//	text, err := annotator.Open(client, "Didot-1851", 12).Text(ctx)
//	if err != nil {
//	    // handle error
//	}
//
// With options:
//
//	entities, err := annotator.Open(client, "Didot-1851", 12).
//	    Types(annotation.TypeEntry).
//	    Tags("PER", "ACT").
//	    Entities(ctx)
//
// Editing is done through the lower-level packages: session owns the
// annotations of a page, region keeps them in sync with a drawing canvas
// and markup edits their entity spans.
package annotator

import (
	"context"

	"github.com/tsawler/annotator/annotation"
)

// Source provides the annotation records of a page. A remote.Client is a
// Source.
type Source interface {
	Annotations(ctx context.Context, document string, view int) ([]annotation.Record, error)
}

// Open returns an Extractor over one page of a document.
// Nothing is fetched until a terminal operation like Text() is called.
//
// Example:
//
//	n, err := annotator.Open(client, "Didot-1851", 12).Count(ctx)
func Open(src Source, document string, view int) *Extractor {
	e := &Extractor{
		source:   src,
		document: document,
		view:     view,
		options:  defaultOptions(),
	}
	if src == nil {
		e.err = ErrNoSource
	}
	return e
}

// FromSet creates an Extractor over annotations that are already loaded,
// for instance the set of an editing session.
//
// Example:
//
//	text, err := annotator.FromSet(s.Set()).Types(annotation.TypeEntry).Text(ctx)
func FromSet(set *annotation.Set) *Extractor {
	if set == nil {
		set = annotation.NewSet()
	}
	return &Extractor{
		set:     set,
		options: defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := annotator.Must(annotator.Open(client, "Didot-1851", 12).Count(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
