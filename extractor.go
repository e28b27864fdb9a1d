package annotator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/annotator/annotation"
	"github.com/tsawler/annotator/markup"
)

// ErrNoSource is returned by the terminal operations of an Extractor opened
// without a Source.
var ErrNoSource = errors.New("no annotation source")

// Entity is one tagged run of a transcription.
type Entity struct {
	// Annotation is the id of the annotation holding the run
	Annotation string `json:"annotation"`
	Tag        string `json:"tag"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// Extractor provides a fluent interface for reading the annotations of a
// page. Each configuration method returns a new Extractor instance, making
// it safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source
	source   Source
	document string
	view     int

	// Already loaded annotations; takes precedence over source
	set *annotation.Set

	// Configuration
	options ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		source:   e.source,
		document: e.document,
		view:     e.view,
		set:      e.set,
		options:  e.options.clone(),
		err:      e.err,
	}
}

// ============================================================================
// Configuration Methods
// ============================================================================

// Types restricts the extraction to annotations of the given types.
// Calling Types again replaces the previous selection.
//
// Example:
//
//	annotator.Open(client, "Didot-1851", 12).Types(annotation.TypeEntry, annotation.TypeTitleLevel1)
func (e *Extractor) Types(types ...string) *Extractor {
	newExt := e.clone()
	newExt.options.types = append([]string(nil), types...)
	return newExt
}

// Textual restricts the extraction to annotations carrying a transcription.
func (e *Extractor) Textual() *Extractor {
	newExt := e.clone()
	newExt.options.textualOnly = true
	return newExt
}

// Checked restricts the extraction to annotations whose review flag equals
// checked. Geometric annotations never match.
func (e *Extractor) Checked(checked bool) *Extractor {
	newExt := e.clone()
	newExt.options.checked = &checked
	return newExt
}

// Tags restricts Entities to runs carrying one of the given tags.
func (e *Extractor) Tags(tags ...string) *Extractor {
	newExt := e.clone()
	newExt.options.tags = append([]string(nil), tags...)
	return newExt
}

// WithCodec sets the codec used to decode entity markup.
func (e *Extractor) WithCodec(codec *markup.Codec) *Extractor {
	newExt := e.clone()
	if codec == nil {
		newExt.err = fmt.Errorf("nil codec")
		return newExt
	}
	newExt.options.codec = codec
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Annotations returns the matching annotations in page order.
func (e *Extractor) Annotations(ctx context.Context) ([]*annotation.Annotation, error) {
	set, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	var out []*annotation.Annotation
	for _, a := range set.All() {
		if e.match(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Count returns the number of matching annotations.
func (e *Extractor) Count(ctx context.Context) (int, error) {
	items, err := e.Annotations(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Records returns the plain form of the matching annotations.
func (e *Extractor) Records(ctx context.Context) ([]annotation.Record, error) {
	items, err := e.Annotations(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]annotation.Record, 0, len(items))
	for _, a := range items {
		records = append(records, a.Record())
	}
	return records, nil
}

// Text returns the transcriptions of the matching annotations, one per line.
// Geometric annotations contribute nothing.
func (e *Extractor) Text(ctx context.Context) (string, error) {
	items, err := e.Annotations(ctx)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, a := range items {
		if !a.IsTextual() {
			continue
		}
		lines = append(lines, strings.TrimRight(a.Text.OCR, "\n"))
	}
	return strings.Join(lines, "\n"), nil
}

// Entities returns the tagged runs of the matching annotations.
func (e *Extractor) Entities(ctx context.Context) ([]Entity, error) {
	items, err := e.Annotations(ctx)
	if err != nil {
		return nil, err
	}

	codec := e.codec()
	var out []Entity
	for _, a := range items {
		if !a.IsTextual() {
			continue
		}
		doc := codec.Decode(a.Text.NER)
		runes := []rune(doc.Text)
		for _, sp := range doc.Spans {
			if !e.acceptTag(sp.Tag) || sp.Start < 0 || sp.End > len(runes) || sp.Start >= sp.End {
				continue
			}
			out = append(out, Entity{
				Annotation: a.ID(),
				Tag:        sp.Tag,
				Text:       string(runes[sp.Start:sp.End]),
				Start:      sp.Start,
				End:        sp.End,
			})
		}
	}
	return out, nil
}

// HTML renders the entity markup of the matching textual annotations as
// highlighted HTML, one paragraph per line.
func (e *Extractor) HTML(ctx context.Context) (string, error) {
	items, err := e.Annotations(ctx)
	if err != nil {
		return "", err
	}

	codec := e.codec()
	var sb strings.Builder
	for _, a := range items {
		if !a.IsTextual() {
			continue
		}
		if err := codec.RenderHTML(&sb, codec.Decode(a.Text.NER)); err != nil {
			return "", fmt.Errorf("annotation %s: %w", a.ID(), err)
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// ============================================================================
// Helpers
// ============================================================================

// load returns the annotations of the page, fetching them when needed
func (e *Extractor) load(ctx context.Context) (*annotation.Set, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.set != nil {
		return e.set, nil
	}

	records, err := e.source.Annotations(ctx, e.document, e.view)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s/%d: %w", e.document, e.view, err)
	}
	set, err := annotation.NewStore().Load(records)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s/%d: %w", e.document, e.view, err)
	}
	return set, nil
}

func (e *Extractor) match(a *annotation.Annotation) bool {
	if len(e.options.types) > 0 && !contains(e.options.types, a.Type) {
		return false
	}
	if e.options.textualOnly && !a.IsTextual() {
		return false
	}
	if e.options.checked != nil && (!a.IsTextual() || a.Text.Checked != *e.options.checked) {
		return false
	}
	return true
}

func (e *Extractor) acceptTag(tag string) bool {
	return len(e.options.tags) == 0 || contains(e.options.tags, tag)
}

func (e *Extractor) codec() *markup.Codec {
	if e.options.codec != nil {
		return e.options.codec
	}
	return &markup.Codec{}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
