package pipeline

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/nfnt/resize"
)

const renderSize = 1024
const outputWidth uint = 512

// RenderImage paints a deterministic gradient derived from the prompt,
// downscales it and returns it as base64 JPEG. It stands in for a real
// image generation model while keeping the full pipeline shape: render at
// full resolution, resize for delivery, encode.
func RenderImage(prompt string) (string, error) {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	seed := h.Sum32()

	r0 := uint8(seed)
	g0 := uint8(seed >> 8)
	b0 := uint8(seed >> 16)

	img := image.NewRGBA(image.Rect(0, 0, renderSize, renderSize))
	for y := 0; y < renderSize; y++ {
		for x := 0; x < renderSize; x++ {
			fx := uint32(x * 255 / renderSize)
			fy := uint32(y * 255 / renderSize)
			img.Set(x, y, color.RGBA{
				R: uint8((uint32(r0) + fx) % 256),
				G: uint8((uint32(g0) + fy) % 256),
				B: uint8((uint32(b0) + (fx+fy)/2) % 256),
				A: 255,
			})
		}
	}

	resized := resize.Resize(outputWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	// Quality 75 is a good balance between size and fidelity.
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 75}); err != nil {
		return "", fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
