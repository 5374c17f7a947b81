package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/h2non/bimg"

	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/storage"
)

// createTestPNG encodes a solid-color image of the given size.
func createTestPNG(width, height int, c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func TestProcessAll(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := storage.NewFileSystem(tmpDir)
	if err != nil {
		t.Fatalf("creating filesystem: %v", err)
	}

	processor := NewImageProcessor(fs)

	// Official artwork is 475x475; the fallback sprites are 96x96.
	testImage := createTestPNG(475, 475, color.RGBA{R: 255, G: 0, B: 0, A: 255})

	results, err := processor.ProcessAll(25, testImage)
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	for _, size := range model.AllSizes {
		if !results[size] {
			t.Errorf("expected size %s to succeed", size)
		}

		if !fs.Exists(25, size) {
			t.Errorf("expected file to exist for size %s", size)
			continue
		}

		data, err := fs.Read(25, size)
		if err != nil {
			t.Errorf("reading size %s: %v", size, err)
			continue
		}

		imgSize, err := bimg.NewImage(data).Size()
		if err != nil {
			t.Errorf("getting size for %s: %v", size, err)
			continue
		}

		expectedPx := model.SizePixels[size]
		if imgSize.Width != expectedPx || imgSize.Height != expectedPx {
			t.Errorf("size %s: expected %dx%d, got %dx%d",
				size, expectedPx, expectedPx, imgSize.Width, imgSize.Height)
		}
	}
}

func TestProcessAll_SmallFallbackSprite(t *testing.T) {
	fs, err := storage.NewFileSystem(t.TempDir())
	if err != nil {
		t.Fatalf("creating filesystem: %v", err)
	}

	processor := NewImageProcessor(fs)

	results, err := processor.ProcessAll(1, createTestPNG(96, 96, color.NRGBA{R: 0, G: 200, B: 0, A: 255}))
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}
	if !results[model.SizeXL] {
		t.Error("expected the 96px sprite to be enlarged to xl")
	}
}

func TestProcessAll_NonSquareImage(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := storage.NewFileSystem(tmpDir)
	if err != nil {
		t.Fatalf("creating filesystem: %v", err)
	}

	processor := NewImageProcessor(fs)

	testImage := createTestPNG(400, 200, color.RGBA{R: 0, G: 0, B: 255, A: 255})

	results, err := processor.ProcessAll(6, testImage)
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	// Embedding pads the short side.
	for _, size := range model.AllSizes {
		if !results[size] {
			t.Errorf("expected size %s to succeed for non-square image", size)
		}
	}
}

func TestApplyBackground(t *testing.T) {
	testImage := createTestPNG(64, 64, color.NRGBA{R: 255, G: 0, B: 0, A: 128})

	result, err := ApplyBackground(testImage, "ffffff")
	if err != nil {
		t.Fatalf("ApplyBackground failed: %v", err)
	}

	if len(result) == 0 {
		t.Error("expected non-empty result")
	}

	size, err := bimg.NewImage(result).Size()
	if err != nil {
		t.Fatalf("getting result size: %v", err)
	}
	if size.Width != 64 || size.Height != 64 {
		t.Errorf("expected 64x64, got %dx%d", size.Width, size.Height)
	}
}

func TestApplyBackground_WithHash(t *testing.T) {
	testImage := createTestPNG(32, 32, color.RGBA{R: 0, G: 255, B: 0, A: 255})

	_, err := ApplyBackground(testImage, "#ff0000")
	if err != nil {
		t.Fatalf("ApplyBackground with # prefix failed: %v", err)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		wantR   uint8
		wantG   uint8
		wantB   uint8
		wantErr bool
	}{
		{"white", "ffffff", 255, 255, 255, false},
		{"black", "000000", 0, 0, 0, false},
		{"red", "ff0000", 255, 0, 0, false},
		{"with hash", "#00ff00", 0, 255, 0, false},
		{"mixed case", "aaBBcc", 170, 187, 204, false},
		{"too short", "fff", 0, 0, 0, true},
		{"too long", "fffffff", 0, 0, 0, true},
		{"invalid chars", "gggggg", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, err := parseHexColor(tt.hex)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseHexColor(%q) error = %v, wantErr = %v", tt.hex, err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if r != tt.wantR || g != tt.wantG || b != tt.wantB {
					t.Errorf("parseHexColor(%q) = (%d,%d,%d), want (%d,%d,%d)",
						tt.hex, r, g, b, tt.wantR, tt.wantG, tt.wantB)
				}
			}
		})
	}
}
