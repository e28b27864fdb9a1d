package markup

// TagColor associates an entity tag with its highlight color
type TagColor struct {
	Tag   string `yaml:"tag"`
	Color string `yaml:"color"`
}

// Palette is the ordered list of entity tags offered to the operator.
// The first entry is the default active tag.
type Palette []TagColor

// DefaultPalette holds the tags emitted by the entity recognizer
var DefaultPalette = Palette{
	{"PER", "#f6bd60ff"},
	{"ACT", "#f7ede2ff"},
	{"LOC", "#f5cac3ff"},
	{"CARDINAL", "#84a59dff"},
	{"TITRE", "#f28482ff"},
}

// Color returns the color of tag, or "" if the tag is unknown
func (p Palette) Color(tag string) string {
	for _, tc := range p {
		if tc.Tag == tag {
			return tc.Color
		}
	}
	return ""
}

// Has reports whether tag is part of the palette
func (p Palette) Has(tag string) bool {
	for _, tc := range p {
		if tc.Tag == tag {
			return true
		}
	}
	return false
}

// Tags returns the tags in order
func (p Palette) Tags() []string {
	out := make([]string, len(p))
	for i, tc := range p {
		out[i] = tc.Tag
	}
	return out
}

// Default returns the first tag, or "" for an empty palette
func (p Palette) Default() string {
	if len(p) == 0 {
		return ""
	}
	return p[0].Tag
}
