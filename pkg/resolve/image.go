package resolve

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/yaklabco/forummark/pkg/markup"
)

// Size limits applied before decoding.
const (
	MaxDecodeWidth  = 8192
	MaxDecodeHeight = 8192
)

// ErrImageTooLarge is returned for images whose declared size exceeds the
// decode limits.
var ErrImageTooLarge = errors.New("image too large")

// decodeImage decodes data and scales it to fit maxWidth, preserving aspect
// ratio. A positive sizeHint replaces maxWidth as the exact target width,
// up to MaxDecodeWidth. Images taller than
// inlineMaxHeight after scaling are marked for centered-baseline rendering.
func decodeImage(data []byte, maxWidth, sizeHint, inlineMaxHeight int) (*markup.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width > MaxDecodeWidth || cfg.Height > MaxDecodeHeight {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	target := 0
	switch {
	case sizeHint > 0:
		target = min(sizeHint, MaxDecodeWidth)
	case maxWidth > 0 && bounds.Dx() > maxWidth:
		target = maxWidth
	}
	if target > 0 && target != bounds.Dx() {
		// Height 0 keeps the aspect ratio.
		img = resize.Resize(uint(target), 0, img, resize.Lanczos3)
		bounds = img.Bounds()
	}

	return &markup.Image{
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		Data:           img,
		CenterBaseline: inlineMaxHeight > 0 && bounds.Dy() > inlineMaxHeight,
	}, nil
}
