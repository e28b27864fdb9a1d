package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	// Page images come as JPEG or PNG; scans may also be TIFF.
	_ "image/jpeg"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/tsawler/annotator/annotation"
)

// MinRegionHeight is the height, in pixels, regions are scaled up to
// before recognition. Tesseract loses accuracy on smaller text lines.
const MinRegionHeight = 48

var (
	// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
	// was not compiled in. Rebuild with -tags ocr to enable OCR support.
	ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

	// ErrEmptyRegion is returned for boxes that do not overlap the page
	ErrEmptyRegion = errors.New("region is outside the page")
)

// Crop copies the part of page covered by box into a new image whose
// origin is (0, 0). Boxes are clipped to the page bounds.
func Crop(page image.Image, box annotation.Box) (image.Image, error) {
	bounds := page.Bounds()
	r := box.Rect().Add(bounds.Min).Intersect(bounds)
	if r.Empty() {
		return nil, ErrEmptyRegion
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, page, r, draw.Src, nil)
	return dst, nil
}

// upscale enlarges img so it is at least minHeight pixels high
func upscale(img image.Image, minHeight int) image.Image {
	b := img.Bounds()
	if b.Dy() >= minHeight || b.Dy() == 0 {
		return img
	}

	width := b.Dx() * minHeight / b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, width, minHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodeRegions decodes a page image and returns one PNG per box, ready to
// be handed to a recognizer. Regions lower than MinRegionHeight are scaled
// up.
func EncodeRegions(page []byte, boxes []annotation.Box) ([][]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image: %w", err)
	}

	out := make([][]byte, len(boxes))
	for i, box := range boxes {
		region, err := Crop(img, box)
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", i, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, upscale(region, MinRegionHeight)); err != nil {
			return nil, fmt.Errorf("region %d: failed to encode: %w", i, err)
		}
		out[i] = buf.Bytes()
	}

	return out, nil
}
