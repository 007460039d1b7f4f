package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// DefaultThumbnailEdge is the longest edge of a generated thumbnail.
const DefaultThumbnailEdge = 320

// Thumbnail downscales a capture screenshot so its longest edge is at most
// maxEdge pixels and re-encodes it as PNG. Screenshots already small enough
// pass through re-encoded.
func Thumbnail(shot []byte, maxEdge int) ([]byte, error) {
	if len(shot) == 0 {
		return nil, fmt.Errorf("thumbnail: empty screenshot")
	}
	if maxEdge <= 0 {
		maxEdge = DefaultThumbnailEdge
	}
	src, _, err := image.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("thumbnail: empty image")
	}
	scale := 1.0
	if w >= h && w > maxEdge {
		scale = float64(maxEdge) / float64(w)
	} else if h > w && h > maxEdge {
		scale = float64(maxEdge) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("thumbnail: encode: %w", err)
	}
	return out.Bytes(), nil
}
