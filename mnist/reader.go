package mnist

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// IDX magic numbers: the image files open with 2051, the label files
// with 2049, both big-endian.
const (
	imagesMagic = 2051
	labelsMagic = 2049
)

// Canonical archive names inside an MNIST directory.
const (
	trainImagesFile = "train-images-idx3-ubyte.gz"
	trainLabelsFile = "train-labels-idx1-ubyte.gz"
	testImagesFile  = "t10k-images-idx3-ubyte.gz"
	testLabelsFile  = "t10k-labels-idx1-ubyte.gz"
)

// Reader reads labeled images from an MNIST directory.
type Reader struct {
	dir string
}

// NewReader returns a Reader over the given directory, or an error if
// it does not exist.
func NewReader(dir string) (*Reader, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("the directory %q cannot be found: %w", dir, os.ErrNotExist)
	}
	return &Reader{dir: dir}, nil
}

// ReadTrainSet reads the training images and labels.
func (r *Reader) ReadTrainSet() ([]Item, error) {
	return r.readPair(trainImagesFile, trainLabelsFile)
}

// ReadTestSet reads the test images and labels.
func (r *Reader) ReadTestSet() ([]Item, error) {
	return r.readPair(testImagesFile, testLabelsFile)
}

func (r *Reader) readPair(imagesName, labelsName string) ([]Item, error) {
	imagesPath := filepath.Join(r.dir, imagesName)
	labelsPath := filepath.Join(r.dir, labelsName)

	imagesFile, err := os.Open(imagesPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", imagesPath, err)
	}
	defer imagesFile.Close()

	labelsFile, err := os.Open(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", labelsPath, err)
	}
	defer labelsFile.Close()

	imagesGz, err := gzip.NewReader(imagesFile)
	if err != nil {
		return nil, fmt.Errorf("gunzipping %s: %w", imagesPath, err)
	}
	labelsGz, err := gzip.NewReader(labelsFile)
	if err != nil {
		return nil, fmt.Errorf("gunzipping %s: %w", labelsPath, err)
	}

	return ReadData(imagesGz, labelsGz)
}

// ReadData decodes a decompressed IDX image stream and label stream
// into labeled items. The two streams must describe the same number of
// entries.
func ReadData(images, labels io.Reader) ([]Item, error) {
	var imgHeader struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(images, binary.BigEndian, &imgHeader); err != nil {
		return nil, fmt.Errorf("reading image header: %w", err)
	}
	if imgHeader.Magic != imagesMagic {
		return nil, fmt.Errorf("invalid image magic number: got %d, want %d", imgHeader.Magic, imagesMagic)
	}

	var lblHeader struct {
		Magic, Count uint32
	}
	if err := binary.Read(labels, binary.BigEndian, &lblHeader); err != nil {
		return nil, fmt.Errorf("reading label header: %w", err)
	}
	if lblHeader.Magic != labelsMagic {
		return nil, fmt.Errorf("invalid label magic number: got %d, want %d", lblHeader.Magic, labelsMagic)
	}

	if imgHeader.Count != lblHeader.Count {
		return nil, fmt.Errorf("%d images but %d labels", imgHeader.Count, lblHeader.Count)
	}

	pixels := int(imgHeader.Rows * imgHeader.Cols)
	lblData := make([]byte, lblHeader.Count)
	if _, err := io.ReadFull(labels, lblData); err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}

	items := make([]Item, imgHeader.Count)
	for i := range items {
		buf := make([]byte, pixels)
		if _, err := io.ReadFull(images, buf); err != nil {
			return nil, fmt.Errorf("reading image %d: %w", i, err)
		}
		items[i] = Item{
			Width:  int(imgHeader.Cols),
			Height: int(imgHeader.Rows),
			Label:  int(lblData[i]),
			Pixels: buf,
		}
	}
	return items, nil
}
