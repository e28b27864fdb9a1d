// Package session owns the annotations of one page while an operator edits
// them.
//
// A [Session] is the collection the region and text editors report to. It
// applies the events emitted by a region synchronizer, tracks the selected
// and focused annotation, funnels edits of the textual fields through
// [Session.ApplyText] and asks external services to recompute transcriptions
// and entity markup.
//
// Basic usage:
//
//	s := session.New(session.Options{Repository: client, Tagger: client})
//	if err := s.Open(ctx, "register-1867", 12); err != nil {
//	    log.Fatal(err)
//	}
//	sync := region.New(canvas, s.Store(), region.Config{Listener: s.Handle})
//	<-sync.Redraw(ctx, s.Image(), s.Set())
//
// A Session is not safe for concurrent use. Editors are expected to call it
// from the goroutine that runs the user interface.
package session
