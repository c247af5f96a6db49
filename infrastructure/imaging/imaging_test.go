package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"face-service/domain/services"
)

func gradientImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x + y) % 256)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestDecodeJPEGRoundTrip(t *testing.T) {
	data, err := EncodeJPEG(gradientImage(32, 32))
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Errorf("decoded size %v, want 32x32", img.Bounds())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected decode error")
	}
}

func TestLargestFace(t *testing.T) {
	faces := []services.DetectedFace{
		{Box: services.BoundingBox{Width: 10, Height: 10}},
		{Box: services.BoundingBox{Width: 30, Height: 20}},
		{Box: services.BoundingBox{Width: 25, Height: 20}},
	}
	got := LargestFace(faces)
	if got.Box.Width != 30 {
		t.Errorf("largest face width = %d, want 30", got.Box.Width)
	}
}

func TestCropWithMarginExpandsBox(t *testing.T) {
	img := gradientImage(100, 100)
	crop, err := CropWithMargin(img, services.BoundingBox{X: 40, Y: 40, Width: 20, Height: 20}, 0.2)
	if err != nil {
		t.Fatalf("CropWithMargin: %v", err)
	}
	// 20px box with a 20% margin grows by 4px each side.
	if crop.Bounds().Dx() != 28 || crop.Bounds().Dy() != 28 {
		t.Errorf("crop size %dx%d, want 28x28", crop.Bounds().Dx(), crop.Bounds().Dy())
	}
}

func TestCropWithMarginClampsToImage(t *testing.T) {
	img := gradientImage(50, 50)
	crop, err := CropWithMargin(img, services.BoundingBox{X: 0, Y: 0, Width: 48, Height: 48}, 0.2)
	if err != nil {
		t.Fatalf("CropWithMargin: %v", err)
	}
	if crop.Bounds().Dx() > 50 || crop.Bounds().Dy() > 50 {
		t.Errorf("crop exceeds image: %v", crop.Bounds())
	}
}

func TestCropWithMarginEmpty(t *testing.T) {
	img := gradientImage(10, 10)
	_, err := CropWithMargin(img, services.BoundingBox{X: 20, Y: 20, Width: 5, Height: 5}, 0.2)
	if !errors.Is(err, ErrEmptyCrop) {
		t.Errorf("expected ErrEmptyCrop, got %v", err)
	}
}

func TestNormalizeStretchesContrast(t *testing.T) {
	// Low-contrast input confined to a narrow band.
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(100 + (x % 8))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	out := Normalize(img)
	minV, maxV := 255, 0
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := out.At(x, y).RGBA()
			if r != g || g != bl {
				t.Fatal("normalized image is not grayscale")
			}
			v := int(r >> 8)
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}
	if minV != 0 || maxV != 255 {
		t.Errorf("value range [%d,%d], want [0,255]", minV, maxV)
	}
}

func TestNormalizeFlatImageStable(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 77, G: 77, B: 77, A: 255})
		}
	}
	// A single-level image must survive equalization and rescale intact.
	out := Normalize(img)
	if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 8 {
		t.Errorf("bounds changed: %v", out.Bounds())
	}
	first, _, _, _ := out.At(0, 0).RGBA()
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			r, _, _, _ := out.At(x, y).RGBA()
			if r != first {
				t.Fatal("flat image became non-uniform")
			}
		}
	}
}
