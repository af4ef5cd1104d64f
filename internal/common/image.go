package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageSide bounds the longest side of stored campaign pictures.
	MaxImageSide = 1024

	jpegQuality = 90
)

var ErrInvalidImage = errors.New("invalid image")

// fitWithin scales w x h down so that the longest side is at most max.
func fitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}

	if w >= h {
		return max, h * max / w
	}
	return w * max / h, max
}

func resizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	return dst
}

func imageToBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer

	err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// NormalizeImage decodes a jpeg, png, gif or webp picture, bounds its size
// and re-encodes it as jpeg.
func NormalizeImage(r io.Reader, maxSide int) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	w, h := fitWithin(b.Dx(), b.Dy(), maxSide)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	// background for transparent pictures, jpeg has no alpha
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), resizeImage(img, w, h), image.Point{}, draw.Over)

	return imageToBytes(dst)
}
