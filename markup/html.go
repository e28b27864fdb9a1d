package markup

import (
	"io"
	"sort"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderHTML writes doc as a paragraph where each span is a highlighted
// <mark> element. Invalid span lists are rendered as plain text.
func (c *Codec) RenderHTML(w io.Writer, doc Document) error {
	return html.Render(w, c.HTMLNode(doc))
}

// HTMLNode builds the node tree written by RenderHTML
func (c *Codec) HTMLNode(doc Document) *html.Node {
	p := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.P,
		Data:     "p",
		Attr:     []html.Attribute{{Key: "class", Val: "ner"}},
	}

	runes := []rune(doc.Text)
	if Validate(len(runes), doc.Spans) != nil {
		appendText(p, string(runes))
		return p
	}

	spans := make([]Span, len(doc.Spans))
	copy(spans, doc.Spans)
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	pos := 0
	for _, s := range spans {
		appendText(p, string(runes[pos:s.Start]))

		mark := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Mark,
			Data:     "mark",
			Attr:     []html.Attribute{{Key: "data-tag", Val: s.Tag}},
		}
		color := s.Color
		if color == "" {
			color = c.palette().Color(s.Tag)
		}
		if color != "" {
			mark.Attr = append(mark.Attr, html.Attribute{Key: "style", Val: "background-color: " + color})
		}
		appendText(mark, string(runes[s.Start:s.End]))
		p.AppendChild(mark)

		pos = s.End
	}
	appendText(p, string(runes[pos:]))

	return p
}

func appendText(parent *html.Node, s string) {
	if s == "" {
		return
	}
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}
