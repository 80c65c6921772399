package storage

import (
	"bytes"
	"errors"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedImage is returned for payloads that do not decode as an
// image in a supported format.
var ErrUnsupportedImage = errors.New("storage: unsupported image format")

// Image size ceilings in pixels on the longest edge.
const (
	MaxAvatarDim    = 512
	MaxSignatureDim = 1024
	MaxLogoDim      = 1024
)

// NormalizeImage decodes data, downscales it so the longest edge is at
// most maxDim, and re-encodes as PNG.
func NormalizeImage(data []byte, maxDim int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrUnsupportedImage
	}
	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		if bounds.Dx() >= bounds.Dy() {
			img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
