package trainer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gradnet/matrix"
)

// ErrMissingWeights reports that a weight checkpoint file is absent.
// It is recoverable: callers fall back to random initialization.
var ErrMissingWeights = errors.New("trainer: weight checkpoint not found")

// Checkpoint file names. The train-set matrices are cached next to the
// weights so later runs skip the archive decoding.
const (
	a0File = "a0.matrix"
	yFile  = "y.matrix"
)

func weightsPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("weights_%d.matrix", i))
}

// LoadWeights loads n weight matrices from dir. Any absent file yields
// ErrMissingWeights.
func LoadWeights(dir string, n int) ([]matrix.Matrix, error) {
	weights := make([]matrix.Matrix, n)
	for i := 0; i < n; i++ {
		path := weightsPath(dir, i)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingWeights, path)
		}
		w, err := matrix.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading weight matrix %d: %w", i, err)
		}
		weights[i] = w
	}
	return weights, nil
}

// SaveWeights writes each weight matrix to its checkpoint file in dir.
func SaveWeights(dir string, weights []matrix.Matrix) error {
	for i, w := range weights {
		if err := w.SaveFile(weightsPath(dir, i)); err != nil {
			return fmt.Errorf("saving weight matrix %d: %w", i, err)
		}
	}
	return nil
}

func cachedMatricesExist(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, a0File)); err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(dir, yFile)); err != nil {
		return false
	}
	return true
}

func loadCachedMatrices(dir string) (a0, y matrix.Matrix, err error) {
	a0, err = matrix.LoadFile(filepath.Join(dir, a0File))
	if err != nil {
		return matrix.Matrix{}, matrix.Matrix{}, err
	}
	y, err = matrix.LoadFile(filepath.Join(dir, yFile))
	if err != nil {
		return matrix.Matrix{}, matrix.Matrix{}, err
	}
	return a0, y, nil
}

func saveCachedMatrices(dir string, a0, y matrix.Matrix) error {
	if err := a0.SaveFile(filepath.Join(dir, a0File)); err != nil {
		return fmt.Errorf("saving input matrix: %w", err)
	}
	if err := y.SaveFile(filepath.Join(dir, yFile)); err != nil {
		return fmt.Errorf("saving ground-truth matrix: %w", err)
	}
	return nil
}
