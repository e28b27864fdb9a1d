package markup

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

// ============================================================================
// Decode Tests
// ============================================================================

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		text  string
		spans []Span
	}{
		{
			name:  "empty",
			input: "",
			text:  "",
			spans: []Span{},
		},
		{
			name:  "plain text",
			input: "John Smith is tall",
			text:  "John Smith is tall",
			spans: []Span{},
		},
		{
			name:  "leading span",
			input: "<PER>John Smith</PER> is tall",
			text:  "John Smith is tall",
			spans: []Span{{Start: 0, End: 10, Tag: "PER", Color: "#f6bd60ff"}},
		},
		{
			name:  "several spans",
			input: "<PER>Dupont</PER>, <ACT>boulanger</ACT>, <LOC>rue de Rivoli</LOC>, <CARDINAL>12</CARDINAL>",
			text:  "Dupont, boulanger, rue de Rivoli, 12",
			spans: []Span{
				{Start: 0, End: 6, Tag: "PER", Color: "#f6bd60ff"},
				{Start: 8, End: 17, Tag: "ACT", Color: "#f7ede2ff"},
				{Start: 19, End: 32, Tag: "LOC", Color: "#f5cac3ff"},
				{Start: 34, End: 36, Tag: "CARDINAL", Color: "#84a59dff"},
			},
		},
		{
			name:  "adjacent spans",
			input: "<PER>A</PER><LOC>B</LOC>",
			text:  "AB",
			spans: []Span{
				{Start: 0, End: 1, Tag: "PER", Color: "#f6bd60ff"},
				{Start: 1, End: 2, Tag: "LOC", Color: "#f5cac3ff"},
			},
		},
		{
			name:  "unknown tag has no color",
			input: "x <ORG>ACME</ORG>",
			text:  "x ACME",
			spans: []Span{{Start: 2, End: 6, Tag: "ORG"}},
		},
		{
			name:  "ampersand and quotes",
			input: `<PER>Martin & Cie</PER> "l'aîné"`,
			text:  `Martin & Cie "l'aîné"`,
			spans: []Span{{Start: 0, End: 12, Tag: "PER", Color: "#f6bd60ff"}},
		},
		{
			name:  "offsets count characters",
			input: "Café <LOC>Paris</LOC>",
			text:  "Café Paris",
			spans: []Span{{Start: 5, End: 10, Tag: "LOC", Color: "#f5cac3ff"}},
		},
		{
			name:  "multiline",
			input: "<PER>Dupont</PER>\nrue <LOC>Saint-Denis</LOC>\n",
			text:  "Dupont\nrue Saint-Denis\n",
			spans: []Span{
				{Start: 0, End: 6, Tag: "PER", Color: "#f6bd60ff"},
				{Start: 11, End: 22, Tag: "LOC", Color: "#f5cac3ff"},
			},
		},
		{
			name:  "crlf line endings",
			input: "a\r\nb <PER>c</PER>",
			text:  "a\r\nb c",
			spans: []Span{{Start: 5, End: 6, Tag: "PER", Color: "#f6bd60ff"}},
		},
		{
			name:  "empty element",
			input: "<PER></PER>ab <LOC/>c",
			text:  "ab c",
			spans: []Span{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.input)
			if got.Text != tt.text {
				t.Errorf("Text = %q, want %q", got.Text, tt.text)
			}
			if !reflect.DeepEqual(got.Spans, tt.spans) {
				t.Errorf("Spans = %+v, want %+v", got.Spans, tt.spans)
			}
		})
	}
}

func TestDecodeMalformedIsLogged(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(DefaultPalette, slog.New(slog.NewTextHandler(&buf, nil)))

	got := c.Decode("<PER>John")
	if !strings.Contains(got.Text, "John") {
		t.Errorf("Text = %q, want best-effort text containing John", got.Text)
	}
	if !strings.Contains(buf.String(), "not well-formed") {
		t.Errorf("expected a warning, log was %q", buf.String())
	}
}

func TestDecodeNeverPanics(t *testing.T) {
	inputs := []string{
		"<",
		">",
		"</PER>",
		"<PER><LOC>x</LOC></PER>",
		"a < b",
		"<PER>a</LOC>",
		"&unknown;",
	}
	c := NewCodec(nil, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			doc := c.Decode(in)
			if doc.Spans == nil {
				t.Error("Spans should never be nil")
			}
		})
	}
}

// ============================================================================
// Encode Tests
// ============================================================================

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		spans []Span
		want  string
	}{
		{"empty", "", nil, ""},
		{"no spans", "abc", []Span{}, "abc"},
		{"single", "John Smith is tall", []Span{{Start: 0, End: 10, Tag: "PER"}}, "<PER>John Smith</PER> is tall"},
		{
			"unordered input",
			"Dupont, rue de Rivoli",
			[]Span{{Start: 8, End: 21, Tag: "LOC"}, {Start: 0, End: 6, Tag: "PER"}},
			"<PER>Dupont</PER>, <LOC>rue de Rivoli</LOC>",
		},
		{"unicode", "Café Paris", []Span{{Start: 5, End: 10, Tag: "LOC"}}, "Café <LOC>Paris</LOC>"},
		{"clamped end", "abc", []Span{{Start: 1, End: 10, Tag: "X"}}, "a<X>bc</X>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.text, tt.spans); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeDoesNotReorderInput(t *testing.T) {
	spans := []Span{{Start: 4, End: 5, Tag: "B"}, {Start: 0, End: 1, Tag: "A"}}
	Encode("abcdef", spans)
	if spans[0].Tag != "B" {
		t.Error("Encode mutated its input")
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"<PER>John Smith</PER> is tall",
		"<PER>Dupont</PER>, <ACT>boulanger</ACT>, <LOC>rue de Rivoli</LOC>, <CARDINAL>12</CARDINAL>",
		"<PER>A</PER><LOC>B</LOC>",
		"Café <LOC>Paris</LOC> & <TITRE>Chevalier</TITRE> d'honneur",
		"no entities at all",
		"a\r\nb <PER>c</PER>",
		"Dupont\r\n<LOC>rue\rdu Bac</LOC>",
	}

	for _, m := range inputs {
		t.Run(m, func(t *testing.T) {
			doc := Decode(m)
			if got := Encode(doc.Text, doc.Spans); got != m {
				t.Errorf("Encode(Decode(m)) = %q, want %q", got, m)
			}
		})
	}
}

// ============================================================================
// Validation Tests
// ============================================================================

func TestHasOverlap(t *testing.T) {
	tests := []struct {
		name  string
		spans []Span
		want  bool
	}{
		{"none", nil, false},
		{"single", []Span{{Start: 0, End: 5}}, false},
		{"overlapping", []Span{{Start: 0, End: 5}, {Start: 3, End: 8}}, true},
		{"touching", []Span{{Start: 0, End: 5}, {Start: 5, End: 8}}, false},
		{"nested", []Span{{Start: 0, End: 10}, {Start: 2, End: 3}}, true},
		{"disjoint unordered", []Span{{Start: 6, End: 8}, {Start: 0, End: 2}}, false},
		{"chain", []Span{{Start: 0, End: 2}, {Start: 5, End: 6}, {Start: 1, End: 8}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasOverlap(tt.spans); got != tt.want {
				t.Errorf("HasOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		spans []Span
		want  error
	}{
		{"valid", []Span{{Start: 0, End: 2, Tag: "PER"}, {Start: 3, End: 5, Tag: "LOC"}}, nil},
		{"overlap", []Span{{Start: 0, End: 5, Tag: "PER"}, {Start: 3, End: 8, Tag: "LOC"}}, ErrOverlap},
		{"empty", []Span{{Start: 3, End: 3, Tag: "PER"}}, ErrEmptySpan},
		{"reversed", []Span{{Start: 4, End: 3, Tag: "PER"}}, ErrEmptySpan},
		{"past end", []Span{{Start: 0, End: 11, Tag: "PER"}}, ErrOutOfRange},
		{"negative", []Span{{Start: -1, End: 2, Tag: "PER"}}, ErrOutOfRange},
		{"no tag", []Span{{Start: 0, End: 2}}, ErrNoTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(10, tt.spans); !errors.Is(got, tt.want) {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ============================================================================
// HTML Tests
// ============================================================================

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	c := &Codec{}
	if err := c.RenderHTML(&buf, Decode("<PER>John & Jane</PER> are <X>tall</X>")); err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}

	want := `<p class="ner"><mark data-tag="PER" style="background-color: #f6bd60ff">John &amp; Jane</mark> are <mark data-tag="X">tall</mark></p>`
	if buf.String() != want {
		t.Errorf("RenderHTML() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestRenderHTMLInvalidSpans(t *testing.T) {
	var buf bytes.Buffer
	doc := Document{Text: "abcdef", Spans: []Span{{Start: 0, End: 4, Tag: "A"}, {Start: 2, End: 6, Tag: "B"}}}
	if err := (&Codec{}).RenderHTML(&buf, doc); err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	if buf.String() != `<p class="ner">abcdef</p>` {
		t.Errorf("RenderHTML() = %s", buf.String())
	}
}
