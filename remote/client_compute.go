package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tsawler/annotator/annotation"
)

// DefaultNERModel is the tagging model requested from the compute service
const DefaultNERModel = "bert"

type ComputeService struct {
	Options []RequestOption

	// NERModel names the tagging model. Defaults to DefaultNERModel.
	NERModel string
}

func NewComputeService(opts ...RequestOption) ComputeService {
	return ComputeService{
		Options:  opts,
		NERModel: DefaultNERModel,
	}
}

// Annotations computes the annotations of a page that has none stored
func (r *ComputeService) Annotations(ctx context.Context, document string, view int, opts ...RequestOption) ([]annotation.Record, error) {
	c := newRequestConfig(append(r.Options, opts...)...)
	return getAnnotations(ctx, c, document, view)
}

// Image returns the deskewed image of a page
func (r *ComputeService) Image(ctx context.Context, document string, view int, opts ...RequestOption) ([]byte, error) {
	c := newRequestConfig(append(r.Options, opts...)...)
	return do(ctx, c, http.MethodGet, pagePath(document, view)+"/image_deskew", nil)
}

type nerRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
}

type nerResult struct {
	NER string `json:"ner_xml"`
}

// NER returns the entity markup of text
func (r *ComputeService) NER(ctx context.Context, text string, opts ...RequestOption) (string, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	model := r.NERModel

	if model == "" {
		model = DefaultNERModel
	}

	var result []nerResult

	if err := doJSON(ctx, c, http.MethodPost, "/ner/", nerRequest{Texts: []string{text}, Model: model}, &result); err != nil {
		return "", err
	}

	if len(result) == 0 {
		return "", errors.New("empty NER response")
	}

	return result[0].NER, nil
}

type ocrRegion struct {
	ID   int        `json:"id"`
	BBox [4]float64 `json:"bbox"`
}

type ocrRequest struct {
	Document string      `json:"document"`
	View     int         `json:"view"`
	Regions  []ocrRegion `json:"regions"`
}

type ocrResult struct {
	Content []struct {
		Lines []struct {
			Transcription string `json:"transcription"`
		} `json:"lines"`
	} `json:"content"`
}

// OCR transcribes regions of a page. It returns one text per box, each
// line followed by a newline.
func (r *ComputeService) OCR(ctx context.Context, document string, view int, boxes []annotation.Box, opts ...RequestOption) ([]string, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	input := ocrRequest{
		Document: document,
		View:     view,
		Regions:  make([]ocrRegion, len(boxes)),
	}

	for i, b := range boxes {
		input.Regions[i] = ocrRegion{ID: i, BBox: b.Corners()}
	}

	var result ocrResult

	if err := doJSON(ctx, c, http.MethodPost, "/ocr/pero/regions", input, &result); err != nil {
		return nil, err
	}

	if len(result.Content) != len(boxes) {
		return nil, fmt.Errorf("OCR returned %d regions, expected %d", len(result.Content), len(boxes))
	}

	texts := make([]string, len(result.Content))

	for i, region := range result.Content {
		var sb strings.Builder

		for _, line := range region.Lines {
			sb.WriteString(line.Transcription)
			sb.WriteString("\n")
		}

		texts[i] = sb.String()
	}

	return texts, nil
}
