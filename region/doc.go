// Package region binds annotation boxes to interactive shapes on a page
// canvas.
//
// A [Synchronizer] renders one [Shape] per annotation on a [Canvas] whose
// coordinate space is the pixel space of the page image, and keeps shape
// geometry and annotation boxes in step in both directions:
//
//   - gestures on shapes (select, drag/resize release) update the annotation
//     and are reported as events
//   - the delete and duplicate commands act on the active selection
//   - a new page image or annotation set rebuilds the canvas
//   - view actions (zoom, fit, filter) are applied without rebuilding
//
// # Events
//
// The synchronizer never changes the owning annotation set. It reports
// every change through its [Listener]:
//
//	add       a duplicate was created
//	delete    an annotation's shape was removed
//	selected  a shape was selected
//	updated   an annotation's box was rewritten from its shape
//
// # Shapes and annotations
//
// Shapes do not point to annotations. The synchronizer keeps two indexes,
// shapes by annotation id and annotations by id, and joins them on demand.
//
// # Rebuilds
//
// Decoding the page image is the only asynchronous step. Each call to
// [Synchronizer.Redraw] supersedes the previous one; a decode that finishes
// after a newer request is discarded.
package region
