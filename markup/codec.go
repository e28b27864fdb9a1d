package markup

import (
	"encoding/xml"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"
)

// rootElement wraps the markup so its runs parse as children of one element
const rootElement = "root"

// Span is a tagged range [Start, End) over the plain text
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Tag   string `json:"tag"`
	Color string `json:"color,omitempty"`
}

// Len returns the number of characters covered
func (s Span) Len() int {
	return s.End - s.Start
}

// Document is the decoded form of a markup string
type Document struct {
	Text  string `json:"text"`
	Spans []Span `json:"spans"`
}

var (
	// ErrOverlap is returned for span lists where two spans share characters.
	ErrOverlap = errors.New("spans overlap")
	// ErrEmptySpan is returned for spans with Start >= End.
	ErrEmptySpan = errors.New("empty span")
	// ErrOutOfRange is returned for spans outside the text.
	ErrOutOfRange = errors.New("span out of range")
	// ErrNoTag is returned for spans without a tag name.
	ErrNoTag = errors.New("span without tag")
)

// Codec converts between markup and span lists.
// The zero value uses DefaultPalette and slog.Default().
type Codec struct {
	Palette Palette
	Logger  *slog.Logger
}

// NewCodec creates a codec coloring spans from palette
func NewCodec(palette Palette, logger *slog.Logger) *Codec {
	return &Codec{Palette: palette, Logger: logger}
}

var defaultCodec = &Codec{}

// Decode decodes markup with the default codec
func Decode(markup string) Document {
	return defaultCodec.Decode(markup)
}

// Encode encodes text and spans with the default codec
func Encode(text string, spans []Span) string {
	return defaultCodec.Encode(text, spans)
}

func (c *Codec) palette() Palette {
	if c.Palette == nil {
		return DefaultPalette
	}
	return c.Palette
}

func (c *Codec) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

var attributeEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#039;",
	"\r", "&#13;",
)

// Decode splits markup into plain text and spans.
//
// The markup is escaped (except for the tag delimiters), wrapped in a
// synthetic root element and parsed as XML. Text children of the root are
// copied to the output; each element child contributes its text content and
// one span named after the element.
//
// Carriage returns are passed as character references so the XML newline
// normalization keeps "\r\n" intact. Empty elements carry no text and are
// dropped rather than decoded to zero-length spans.
//
// Parse errors are logged. A strict parse is retried leniently, and when
// that fails too the raw markup is returned as plain text without spans.
func (c *Codec) Decode(markup string) Document {
	if markup == "" {
		return Document{Text: "", Spans: []Span{}}
	}

	source := "<" + rootElement + ">" + attributeEscaper.Replace(markup) + "</" + rootElement + ">"

	doc, err := xmlquery.Parse(strings.NewReader(source))
	if err != nil {
		c.logger().Warn("entity markup is not well-formed, decoding leniently", "error", err, "markup", markup)

		doc, err = xmlquery.ParseWithOptions(strings.NewReader(source), xmlquery.ParserOptions{
			Decoder: &xmlquery.DecoderOptions{
				Strict:    false,
				AutoClose: xml.HTMLAutoClose,
				Entity:    xml.HTMLEntity,
			},
		})
		if err != nil {
			c.logger().Warn("entity markup could not be decoded", "error", err, "markup", markup)
			return Document{Text: markup, Spans: []Span{}}
		}
	}

	root := findRoot(doc)
	if root == nil {
		c.logger().Warn("entity markup has no root element", "markup", markup)
		return Document{Text: markup, Spans: []Span{}}
	}

	var (
		text  strings.Builder
		spans = []Span{}
		pos   int
	)

	for n := root.FirstChild; n != nil; n = n.NextSibling {
		switch n.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			text.WriteString(n.Data)
			pos += utf8.RuneCountInString(n.Data)

		case xmlquery.ElementNode:
			content := n.InnerText()
			if content == "" {
				continue
			}
			text.WriteString(content)
			end := pos + utf8.RuneCountInString(content)
			tag := elementName(n)
			spans = append(spans, Span{
				Start: pos,
				End:   end,
				Tag:   tag,
				Color: c.palette().Color(tag),
			})
			pos = end
		}
	}

	return Document{Text: text.String(), Spans: spans}
}

func findRoot(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode && n.Data == rootElement {
			return n
		}
	}
	return nil
}

func elementName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

// Encode inserts one element per span into text.
//
// Spans are ordered by End and inserted from the rightmost one, so each
// insertion happens after every offset still to be used. The text itself
// is not escaped. Offsets beyond the text are clamped to its bounds.
func (c *Codec) Encode(text string, spans []Span) string {
	if len(spans) == 0 {
		return text
	}

	ordered := sortByEnd(spans)
	runes := []rune(text)

	for i := len(ordered) - 1; i >= 0; i-- {
		s := ordered[i]
		runes = insertAt(runes, s.End, "</"+s.Tag+">")
		runes = insertAt(runes, s.Start, "<"+s.Tag+">")
	}

	return string(runes)
}

func insertAt(runes []rune, at int, s string) []rune {
	if at < 0 {
		at = 0
	}
	if at > len(runes) {
		at = len(runes)
	}
	ins := []rune(s)
	out := make([]rune, 0, len(runes)+len(ins))
	out = append(out, runes[:at]...)
	out = append(out, ins...)
	return append(out, runes[at:]...)
}

// sortByEnd returns a copy of spans stably sorted by End
func sortByEnd(spans []Span) []Span {
	out := make([]Span, len(spans))
	copy(out, spans)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].End < out[j].End
	})
	return out
}

// HasOverlap reports whether two spans share characters.
// Spans are ordered by End and each one is compared with its successor.
func HasOverlap(spans []Span) bool {
	ordered := sortByEnd(spans)
	for i := 0; i < len(ordered)-1; i++ {
		if ordered[i].End > ordered[i+1].Start {
			return true
		}
	}
	return false
}

// Validate checks that spans can be encoded over a text of textLen
// characters: every span is tagged, non-empty and inside the text, and no
// two spans overlap.
func Validate(textLen int, spans []Span) error {
	for _, s := range spans {
		if s.Tag == "" {
			return ErrNoTag
		}
		if s.Start >= s.End {
			return ErrEmptySpan
		}
		if s.Start < 0 || s.End > textLen {
			return ErrOutOfRange
		}
	}
	if HasOverlap(spans) {
		return ErrOverlap
	}
	return nil
}
