package ingest

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// maxPhotoDim bounds the longest edge of a photo sent to the vision
	// model. Larger images cost more tokens without improving analysis.
	maxPhotoDim = 1024

	jpegQuality = 80
)

// CompressPhoto decodes a JPEG or PNG photo, scales it down so its longest
// edge is at most maxPhotoDim pixels, and re-encodes it as JPEG. Photos
// already within bounds are still re-encoded so the output is always JPEG.
func CompressPhoto(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxPhotoDim || h > maxPhotoDim {
		scale := float64(maxPhotoDim) / float64(w)
		if h > w {
			scale = float64(maxPhotoDim) / float64(h)
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
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}
