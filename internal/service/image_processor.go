package service

import (
	"fmt"
	"strings"

	"github.com/h2non/bimg"

	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/storage"
)

// ImageProcessor resizes downloaded sprites with bimg (libvips) and writes
// one transparent PNG per size.
type ImageProcessor struct {
	fs *storage.FileSystem
}

// NewImageProcessor creates a new ImageProcessor.
func NewImageProcessor(fs *storage.FileSystem) *ImageProcessor {
	return &ImageProcessor{fs: fs}
}

// ProcessAll resizes imageData to every SpriteSize and stores the results.
// Every size is attempted; the map reports which ones were written.
func (p *ImageProcessor) ProcessAll(pokemonID int, imageData []byte) (map[model.SpriteSize]bool, error) {
	results := make(map[model.SpriteSize]bool)
	var errs []string

	for _, size := range model.AllSizes {
		resized, err := resizeToSquarePNG(imageData, model.SizePixels[size])
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", size, err))
			results[size] = false
			continue
		}

		if err := p.fs.Write(pokemonID, size, resized); err != nil {
			errs = append(errs, fmt.Sprintf("%s write: %v", size, err))
			results[size] = false
			continue
		}

		results[size] = true
	}

	if len(errs) > 0 {
		return results, fmt.Errorf("processing errors: %s", strings.Join(errs, "; "))
	}

	return results, nil
}

// resizeToSquarePNG fits the image into a pixels×pixels canvas, upscaling
// the small fallback sprites when needed.
func resizeToSquarePNG(imageData []byte, pixels int) ([]byte, error) {
	resized, err := bimg.NewImage(imageData).Process(bimg.Options{
		Width:          pixels,
		Height:         pixels,
		Type:           bimg.PNG,
		Embed:          true,
		Enlarge:        true,
		Background:     bimg.Color{R: 0, G: 0, B: 0},
		Interpretation: bimg.InterpretationSRGB,
	})
	if err != nil {
		return nil, fmt.Errorf("resizing to %dpx: %w", pixels, err)
	}
	return resized, nil
}

// ApplyBackground flattens a cached transparent PNG onto a solid colour.
// Used at request time for the `bg` query parameter.
func ApplyBackground(imageData []byte, hexColor string) ([]byte, error) {
	r, g, b, err := parseHexColor(hexColor)
	if err != nil {
		return nil, err
	}

	return bimg.NewImage(imageData).Process(bimg.Options{
		Background:     bimg.Color{R: r, G: g, B: b},
		Type:           bimg.PNG,
		Interpretation: bimg.InterpretationSRGB,
	})
}

// parseHexColor converts "rrggbb" or "#rrggbb" to its components.
func parseHexColor(hex string) (uint8, uint8, uint8, error) {
	hex = strings.TrimPrefix(hex, "#")

	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color: %q (expected 6 characters)", hex)
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0, fmt.Errorf("parsing hex color %q: %w", hex, err)
	}

	return r, g, b, nil
}
