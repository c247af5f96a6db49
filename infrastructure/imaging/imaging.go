// Package imaging prepares face crops for embedding extraction: decoding
// uploaded images, cropping the detected box with a safety margin and
// normalizing illumination.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"face-service/domain/services"
)

// ErrEmptyCrop is returned when a bounding box leaves no pixels after
// clamping to the image bounds.
var ErrEmptyCrop = errors.New("empty face crop")

// Decode parses an uploaded image in any registered format.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// LargestFace picks the detection with the biggest box area.
func LargestFace(faces []services.DetectedFace) services.DetectedFace {
	largest := faces[0]
	for _, f := range faces[1:] {
		if f.Box.Width*f.Box.Height > largest.Box.Width*largest.Box.Height {
			largest = f
		}
	}
	return largest
}

// CropWithMargin cuts the box out of the image after growing it by the given
// margin fraction on every side, clamped to the image bounds.
func CropWithMargin(img image.Image, box services.BoundingBox, margin float64) (image.Image, error) {
	bounds := img.Bounds()
	imgW := bounds.Dx()
	imgH := bounds.Dy()

	x := box.X - int(float64(box.Width)*margin)
	if x < 0 {
		x = 0
	}
	y := box.Y - int(float64(box.Height)*margin)
	if y < 0 {
		y = 0
	}
	w := box.Width + int(float64(box.Width)*margin*2)
	if w > imgW-x {
		w = imgW - x
	}
	h := box.Height + int(float64(box.Height)*margin*2)
	if h > imgH-y {
		h = imgH - y
	}
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyCrop
	}

	crop := image.NewRGBA(image.Rect(0, 0, w, h))
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			crop.Set(dx, dy, img.At(bounds.Min.X+x+dx, bounds.Min.Y+y+dy))
		}
	}
	return crop, nil
}

// Normalize flattens illumination: the crop is converted to grayscale,
// histogram equalized, rescaled to the full 0-255 range and expanded back
// to three identical channels.
func Normalize(img image.Image) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}

	equalizeHistogram(gray)
	rescaleMinMax(gray)

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := gray.GrayAt(x, y).Y
			out.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

func equalizeHistogram(gray *image.Gray) {
	var hist [256]int
	total := 0
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
			total++
		}
	}
	if total == 0 {
		return
	}

	// Standard CDF mapping anchored at the first occupied bin.
	var cdf [256]int
	sum := 0
	for i, c := range hist {
		sum += c
		cdf[i] = sum
	}
	cdfMin := 0
	for _, c := range cdf {
		if c > 0 {
			cdfMin = c
			break
		}
	}
	if total == cdfMin {
		return
	}

	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8((cdf[i] - cdfMin) * 255 / (total - cdfMin))
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.SetGray(x, y, color.Gray{Y: lut[gray.GrayAt(x, y).Y]})
		}
	}
}

func rescaleMinMax(gray *image.Gray) {
	bounds := gray.Bounds()
	minV, maxV := uint8(255), uint8(0)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}
	if maxV <= minV {
		return
	}
	span := int(maxV) - int(minV)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := int(gray.GrayAt(x, y).Y)
			gray.SetGray(x, y, color.Gray{Y: uint8((v - int(minV)) * 255 / span)})
		}
	}
}

// EncodeJPEG serializes the image at the default quality.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
