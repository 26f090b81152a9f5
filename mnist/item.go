// Package mnist reads the gzipped IDX archives of the MNIST handwritten
// digit database and assembles them into the input and ground-truth
// matrices the trainer consumes.
package mnist

import (
	"image"
)

// Item is one labeled image: raw grayscale pixels and the digit they
// depict.
type Item struct {
	Width  int
	Height int
	Label  int
	Pixels []byte // unsigned intensities, 0-255, row-major
}

// Size returns the pixel count.
func (it Item) Size() int {
	return len(it.Pixels)
}

// Float64Pixels returns the pixel intensities widened to float64, the
// form the input matrix is built from.
func (it Item) Float64Pixels() []float64 {
	out := make([]float64, len(it.Pixels))
	for i, p := range it.Pixels {
		out[i] = float64(p)
	}
	return out
}

// Image renders the item as a grayscale image, for visual inspection of
// a predicted digit.
func (it Item) Image() image.Image {
	img := image.NewGray(image.Rect(0, 0, it.Width, it.Height))
	copy(img.Pix, it.Pixels)
	return img
}
