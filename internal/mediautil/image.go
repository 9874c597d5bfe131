// Package mediautil prepares still images and PDF pages for embedding.
package mediautil

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// ResizeMax scales img down so its longer side is at most maxDim, keeping
// the aspect ratio. Images already within bounds are returned untouched.
func ResizeMax(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return img
	}
	if width > height {
		return imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDim, imaging.Lanczos)
}

// LoadImage reads an image file, resizes it within maxDim and re-encodes it
// as JPEG bytes ready for the embedder.
func LoadImage(path string, maxDim int) ([]byte, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	return EncodeJPEG(ResizeMax(img, maxDim))
}

// EncodeJPEG serializes an image as JPEG at the default quality used for
// embedding inputs.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
