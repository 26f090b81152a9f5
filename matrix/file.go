package matrix

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// SaveFile writes the matrix to path in gonum's binary format. The
// stored payload and shape metadata survive a load bit-for-bit.
func (m Matrix) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := m.d.MarshalBinaryTo(f); err != nil {
		f.Close()
		return fmt.Errorf("marshalling matrix to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a matrix previously written by SaveFile.
func LoadFile(path string) (Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return Matrix{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var d mat.Dense
	if _, err := d.UnmarshalBinaryFrom(f); err != nil {
		return Matrix{}, fmt.Errorf("unmarshalling matrix from %s: %w", path, err)
	}
	return Matrix{d: &d}, nil
}
