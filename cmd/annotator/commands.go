package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/tsawler/annotator/annotation"
	"github.com/tsawler/annotator/markup"
	"github.com/tsawler/annotator/ocr"
	"github.com/tsawler/annotator/session"
	"github.com/tsawler/annotator/view"
)

// DirectoriesCmd lists the documents of the storage service.
type DirectoriesCmd struct{}

func (c *DirectoriesCmd) Run() error {
	e, err := setup()
	if err != nil {
		return err
	}

	names, err := e.client.Directories(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list directories: %w", err)
	}

	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

// PagesCmd prints the number of pages of a document.
type PagesCmd struct {
	Document string `arg:"" help:"Document name"`
}

func (c *PagesCmd) Run() error {
	e, err := setup()
	if err != nil {
		return err
	}

	n, err := e.client.PageCount(context.Background(), c.Document)
	if err != nil {
		return fmt.Errorf("failed to count pages of %s: %w", c.Document, err)
	}

	fmt.Fprintln(stdout, n)
	return nil
}

// ShowCmd prints the annotations of a page.
type ShowCmd struct {
	Document string   `arg:"" help:"Document name"`
	View     int      `arg:"" help:"Page number"`
	Types    []string `name:"type" short:"t" help:"Only show annotations of these types"`
	HTML     bool     `name:"html" help:"Print entity markup as highlighted HTML"`
}

func (c *ShowCmd) Run() error {
	e, err := setup()
	if err != nil {
		return err
	}

	codec := markup.NewCodec(e.cfg.Tags, e.logger)
	s := session.New(session.Options{Repository: e.client, Codec: codec, Logger: e.logger})
	if err := s.Open(context.Background(), c.Document, c.View); err != nil {
		return err
	}

	state := view.Reduce(view.NewState(1), view.Action{Type: view.Filter, Predicate: typeFilter(c.Types)}, view.Dimensions{})

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, a := range s.Set().All() {
		if !state.Visible(a) {
			continue
		}
		if err := printAnnotation(w, e.cfg.Types, codec, a, c.HTML); err != nil {
			return err
		}
	}
	return w.Flush()
}

// typeFilter returns nil, which shows everything, for an empty list
func typeFilter(types []string) view.Predicate {
	if len(types) == 0 {
		return nil
	}
	return view.AcceptTypes(types...)
}

func printAnnotation(w io.Writer, types annotation.Vocabulary, codec *markup.Codec, a *annotation.Annotation, html bool) error {
	b := a.Box
	fmt.Fprintf(w, "#%s\t%s\t[%g %g %g %g]\n", a.ID(), types.Label(a.Type), b.X, b.Y, b.Width, b.Height)

	if !a.IsTextual() {
		return nil
	}

	doc := codec.Decode(a.Text.NER)
	if html {
		var sb strings.Builder
		if err := codec.RenderHTML(&sb, doc); err != nil {
			return err
		}
		fmt.Fprintf(w, "\t%s\n", sb.String())
		return nil
	}

	fmt.Fprintf(w, "\t%q\n", a.Text.OCR)
	runes := []rune(doc.Text)
	for _, sp := range doc.Spans {
		if sp.Start < 0 || sp.End > len(runes) || sp.Start > sp.End {
			continue
		}
		fmt.Fprintf(w, "\t%s\t%d-%d\t%s\n", sp.Tag, sp.Start, sp.End, string(runes[sp.Start:sp.End]))
	}
	return nil
}

// CheckCmd validates an annotation file as exported from the storage
// service.
type CheckCmd struct {
	Path string `arg:"" help:"JSON file holding the annotations of a page" type:"existingfile"`
}

func (c *CheckCmd) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}

	problems, err := check(stdout, data)
	if err != nil {
		return err
	}
	if problems > 0 {
		return fmt.Errorf("%s: %d problem(s) found", c.Path, problems)
	}
	return nil
}

// check loads a page and verifies the entity markup of every textual
// annotation. It returns the number of problems reported to w.
func check(w io.Writer, data []byte) (int, error) {
	var page struct {
		Content []annotation.Record `json:"content"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		// bare lists are accepted too
		if err := json.Unmarshal(data, &page.Content); err != nil {
			return 0, fmt.Errorf("not an annotation file: %w", err)
		}
	}

	set, err := annotation.NewStore().Load(page.Content)
	if err != nil {
		return 0, err
	}

	problems, textual := 0, 0
	for _, a := range set.All() {
		if !a.IsTextual() {
			continue
		}
		textual++

		doc := markup.Decode(a.Text.NER)
		if err := markup.Validate(len([]rune(doc.Text)), doc.Spans); err != nil {
			fmt.Fprintf(w, "#%s: %v\n", a.ID(), err)
			problems++
			continue
		}
		if doc.Text != a.Text.OCR {
			fmt.Fprintf(w, "#%s: entity markup does not match the transcription\n", a.ID())
			problems++
		}
	}

	fmt.Fprintf(w, "%d annotations, %d textual, %d problem(s)\n", set.Len(), textual, problems)
	return problems, nil
}

// NERCmd recomputes the entity markup of the textual annotations of a page.
type NERCmd struct {
	Document string   `arg:"" help:"Document name"`
	View     int      `arg:"" help:"Page number"`
	Types    []string `name:"type" short:"t" default:"ENTRY" help:"Annotation types to tag"`
	Save     bool     `name:"save" help:"Store the result"`
}

func (c *NERCmd) Run() error {
	e, err := setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	s := session.New(session.Options{Repository: e.client, Tagger: e.client, Logger: e.logger})
	if err := s.Open(ctx, c.Document, c.View); err != nil {
		return err
	}

	accept := view.AcceptTypes(c.Types...)
	n := 0
	for _, a := range s.Set().All() {
		if !accept(a) || !a.IsTextual() {
			continue
		}
		if err := s.ReNER(ctx, a); err != nil {
			return err
		}
		n++
	}
	fmt.Fprintf(stdout, "tagged %d annotation(s)\n", n)

	if c.Save && s.Dirty() {
		return s.Save(ctx)
	}
	return nil
}

// OCRCmd transcribes one annotation again.
type OCRCmd struct {
	Document string `arg:"" help:"Document name"`
	View     int    `arg:"" help:"Page number"`
	ID       string `arg:"" help:"Annotation id"`
	Local    bool   `name:"local" help:"Use the local Tesseract engine instead of the compute service"`
	Save     bool   `name:"save" help:"Store the result"`
}

func (c *OCRCmd) Run() error {
	e, err := setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	var recognizer session.Recognizer = e.client
	if c.Local {
		client, err := ocr.New()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.SetLanguage(e.cfg.OCR.Language); err != nil {
			return err
		}
		if err := client.SetPageSegMode(ocr.PageSegMode(e.cfg.OCR.PageSegMode)); err != nil {
			return err
		}
		recognizer = client
	}

	s := session.New(session.Options{Repository: e.client, Recognizer: recognizer, Logger: e.logger})
	if err := s.Open(ctx, c.Document, c.View); err != nil {
		return err
	}

	a := s.Set().Get(c.ID)
	if a == nil {
		return fmt.Errorf("no annotation %s on %s/%d", c.ID, c.Document, c.View)
	}
	if err := s.ReOCR(ctx, a); err != nil {
		if errors.Is(err, session.ErrNotTextual) {
			return fmt.Errorf("annotation %s is a %s region without text", c.ID, e.cfg.Types.Label(a.Type))
		}
		return err
	}
	fmt.Fprint(stdout, a.Text.OCR)

	if c.Save && s.Dirty() {
		return s.Save(ctx)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "annotator version %s\n", version)
	return nil
}
