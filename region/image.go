package region

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	// Page images are served as JPEG or PNG; scans may also come as TIFF,
	// BMP or WebP.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNoImage is returned when a redraw is requested without image data
var ErrNoImage = errors.New("no background image")

// Background is a decoded page image header with its raw data
type Background struct {
	Data   []byte
	Format string // jpeg, png, tiff, ...
	Width  int
	Height int
}

// DecodeFunc reads the natural size of a page image
type DecodeFunc func(ctx context.Context, data []byte) (Background, error)

// DecodeImage is the default DecodeFunc. It only decodes the image header.
func DecodeImage(ctx context.Context, data []byte) (Background, error) {
	if len(data) == 0 {
		return Background{}, ErrNoImage
	}
	if err := ctx.Err(); err != nil {
		return Background{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Background{}, fmt.Errorf("failed to decode background image: %w", err)
	}

	return Background{
		Data:   data,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
