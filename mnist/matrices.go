package mnist

import (
	"fmt"

	"gradnet/matrix"
)

// BuildMatrices turns labeled items into the training pair: the biased
// input activation a0, shaped items×(inputSize+1) with column 0 all
// ones, and the one-hot ground truth y, shaped items×outputSize.
func BuildMatrices(items []Item, inputSize, outputSize int) (a0, y matrix.Matrix, err error) {
	if len(items) == 0 {
		return matrix.Matrix{}, matrix.Matrix{}, fmt.Errorf("no items to build matrices from")
	}
	if items[0].Size() != inputSize {
		return matrix.Matrix{}, matrix.Matrix{}, fmt.Errorf(
			"dataset items have %d pixels, expected %d", items[0].Size(), inputSize)
	}

	a0Data := make([]float64, len(items)*(inputSize+1))
	yData := make([]float64, len(items)*outputSize)

	for i, it := range items {
		row := a0Data[i*(inputSize+1):]
		row[0] = 1.0 // bias
		for j, p := range it.Pixels {
			row[1+j] = float64(p)
		}
		if it.Label < 0 || it.Label >= outputSize {
			return matrix.Matrix{}, matrix.Matrix{}, fmt.Errorf(
				"item %d has label %d outside 0-%d", i, it.Label, outputSize-1)
		}
		yData[i*outputSize+it.Label] = 1.0
	}

	a0 = matrix.FromSlice(len(items), inputSize+1, a0Data)
	y = matrix.FromSlice(len(items), outputSize, yData)
	return a0, y, nil
}
