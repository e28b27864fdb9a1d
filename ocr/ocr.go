//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/tsawler/annotator/annotation"
)

// PageSegMode represents page segmentation modes for OCR.
type PageSegMode = gosseract.PageSegMode

// Page segmentation modes used for annotation regions.
const (
	PSM_AUTO         = gosseract.PSM_AUTO
	PSM_SINGLE_BLOCK = gosseract.PSM_SINGLE_BLOCK
	PSM_SINGLE_LINE  = gosseract.PSM_SINGLE_LINE
	PSM_RAW_LINE     = gosseract.PSM_RAW_LINE
)

// Client wraps Tesseract for OCR operations.
// A Client is not safe for concurrent use.
type Client struct {
	client *gosseract.Client
}

// New creates a new OCR client.
// The client should be closed when no longer needed to release resources.
func New() (*Client, error) {
	client := gosseract.NewClient()
	return &Client{client: client}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// RecognizeImage performs OCR on image data (PNG, TIFF, JPEG, etc.).
// Returns the recognized text with leading/trailing whitespace trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// RecognizeRegions transcribes each box of a page image. Every line of a
// transcription is followed by a newline. The document and view only
// identify the page in errors.
func (c *Client) RecognizeRegions(ctx context.Context, document string, view int, image []byte, boxes []annotation.Box) ([]string, error) {
	regions, err := EncodeRegions(image, boxes)
	if err != nil {
		return nil, fmt.Errorf("%s/%d: %w", document, view, err)
	}

	texts := make([]string, len(regions))
	for i, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := c.RecognizeImage(region)
		if err != nil {
			return nil, fmt.Errorf("%s/%d region %d: %w", document, view, i, err)
		}
		if text != "" {
			text += "\n"
		}
		texts[i] = text
	}

	return texts, nil
}

// SetLanguage sets the language(s) for OCR recognition.
// Multiple languages can be specified as a "+" separated string (e.g., "fra+lat").
// Default is "eng" (English).
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// SetPageSegMode sets the page segmentation mode.
// Single text lines are best recognized with PSM_SINGLE_LINE.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	return c.client.SetPageSegMode(mode)
}
