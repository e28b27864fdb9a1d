//go:build !ocr

package ocr

import (
	"context"

	"github.com/tsawler/annotator/annotation"
)

// PageSegMode represents page segmentation modes for OCR.
type PageSegMode int

// Page segmentation modes used for annotation regions.
const (
	PSM_AUTO         PageSegMode = 3  // Fully automatic (default)
	PSM_SINGLE_BLOCK PageSegMode = 6  // Single uniform block of text
	PSM_SINGLE_LINE  PageSegMode = 7  // Single text line
	PSM_RAW_LINE     PageSegMode = 13 // Treat image as single text line
)

// Client is a stub OCR client that returns errors for all operations.
type Client struct{}

// New returns an error indicating OCR support is not enabled.
func New() (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op for the stub client.
// It is safe to call on a nil client.
func (c *Client) Close() error {
	return nil
}

// RecognizeImage returns ErrOCRNotEnabled.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

// RecognizeRegions returns ErrOCRNotEnabled.
func (c *Client) RecognizeRegions(ctx context.Context, document string, view int, image []byte, boxes []annotation.Box) ([]string, error) {
	return nil, ErrOCRNotEnabled
}

// SetLanguage returns ErrOCRNotEnabled.
func (c *Client) SetLanguage(lang string) error {
	return ErrOCRNotEnabled
}

// SetPageSegMode returns ErrOCRNotEnabled.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	return ErrOCRNotEnabled
}
