package annotation

// Box types produced by the page segmentation
const (
	TypeEntry         = "ENTRY"
	TypeLine          = "LINE"
	TypeSectionLevel1 = "SECTION_LEVEL_1"
	TypeSectionLevel2 = "SECTION_LEVEL_2"
	TypeColumnLevel1  = "COLUMN_LEVEL_1"
	TypeColumnLevel2  = "COLUMN_LEVEL_2"
	TypeTitleLevel1   = "TITLE_LEVEL_1"
	TypeTitleLevel2   = "TITLE_LEVEL_2"
)

// BoxType pairs a type tag with its display label
type BoxType struct {
	Type  string `yaml:"type"`
	Label string `yaml:"label"`
}

// Vocabulary is an ordered list of box types
type Vocabulary []BoxType

// DefaultVocabulary lists the box types of a directory page
var DefaultVocabulary = Vocabulary{
	{TypeEntry, "Entry"},
	{TypeLine, "Line"},
	{TypeSectionLevel1, "Section I"},
	{TypeSectionLevel2, "Section II"},
	{TypeColumnLevel1, "Column I"},
	{TypeColumnLevel2, "Column II"},
	{TypeTitleLevel1, "Title I"},
	{TypeTitleLevel2, "Title II"},
}

// Label returns the display label of t, or t itself when unknown
func (v Vocabulary) Label(t string) string {
	for _, bt := range v {
		if bt.Type == t {
			return bt.Label
		}
	}
	return t
}

// Types returns the type tags in order
func (v Vocabulary) Types() []string {
	out := make([]string, len(v))
	for i, bt := range v {
		out[i] = bt.Type
	}
	return out
}
