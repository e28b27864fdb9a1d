package annotator

import "github.com/tsawler/annotator/markup"

// ExtractOptions holds the filters applied by an Extractor.
type ExtractOptions struct {
	// Annotation selection; empty means every type
	types []string

	// Only annotations with textual fields
	textualOnly bool

	// Review state; nil means both
	checked *bool

	// Entity tags kept by Entities; empty means every tag
	tags []string

	// Codec decoding entity markup; nil means the default codec
	codec *markup.Codec
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := ExtractOptions{
		textualOnly: o.textualOnly,
		codec:       o.codec,
	}

	if o.types != nil {
		newOpts.types = append([]string(nil), o.types...)
	}
	if o.tags != nil {
		newOpts.tags = append([]string(nil), o.tags...)
	}
	if o.checked != nil {
		v := *o.checked
		newOpts.checked = &v
	}

	return newOpts
}
