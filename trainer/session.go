// Package trainer orchestrates a training or prediction session: it
// assembles the network computer from dataset and weight files, runs
// the chosen minimizer, persists checkpoints, and answers single-image
// classification and whole-test-set evaluation.
package trainer

import (
	"fmt"
	"log"

	"gradnet/matrix"
	"gradnet/minimize"
	"gradnet/mnist"
	"gradnet/nn"
)

// Session holds a validated computer ready for training or prediction.
type Session struct {
	computer *nn.Computer
	dir      string
	training bool
}

// Builder assembles a Session step by step. Errors stick to the builder
// and surface from Build, so the chain reads straight through.
type Builder struct {
	inputSize  int
	outputSize int
	dir        string
	weights    []matrix.Matrix
	a0, y      matrix.Matrix
	hasData    bool
	err        error
}

// NewBuilder starts a builder for a network with the given raw input
// and output vector sizes.
func NewBuilder(inputSize, outputSize int) *Builder {
	return &Builder{inputSize: inputSize, outputSize: outputSize, dir: "."}
}

// WithDir sets the checkpoint directory. Defaults to the working
// directory.
func (b *Builder) WithDir(dir string) *Builder {
	b.dir = dir
	return b
}

// WithWeights supplies the weight matrices.
func (b *Builder) WithWeights(weights []matrix.Matrix) *Builder {
	b.weights = weights
	return b
}

// LoadTrainSet loads the training matrices, preferring the cached
// binary matrices in the checkpoint directory and falling back to
// decoding the MNIST archives under mnistDir. The decoded matrices are
// cached for the next run.
func (b *Builder) LoadTrainSet(mnistDir string) *Builder {
	if b.err != nil {
		return b
	}

	if cachedMatricesExist(b.dir) {
		a0, y, err := loadCachedMatrices(b.dir)
		if err != nil {
			b.err = err
			return b
		}
		if a0.Cols() != b.inputSize+1 {
			b.err = fmt.Errorf("cached input matrix has %d columns, expected %d", a0.Cols(), b.inputSize+1)
			return b
		}
		if y.Cols() != b.outputSize {
			b.err = fmt.Errorf("cached ground-truth matrix has %d columns, expected %d", y.Cols(), b.outputSize)
			return b
		}
		log.Printf("train set matrices loaded from %s", b.dir)
		b.a0, b.y, b.hasData = a0, y, true
		return b
	}

	reader, err := mnist.NewReader(mnistDir)
	if err != nil {
		b.err = fmt.Errorf("failed to load the train dataset: %w", err)
		return b
	}
	items, err := reader.ReadTrainSet()
	if err != nil {
		b.err = fmt.Errorf("failed to load the train dataset: %w", err)
		return b
	}
	log.Printf("read %d labelled images from the training set", len(items))

	a0, y, err := mnist.BuildMatrices(items, b.inputSize, b.outputSize)
	if err != nil {
		b.err = err
		return b
	}
	if err := saveCachedMatrices(b.dir, a0, y); err != nil {
		b.err = err
		return b
	}
	b.a0, b.y, b.hasData = a0, y, true
	return b
}

// Build validates the assembled configuration and returns the session.
// Layer-size mismatches are configuration defects and fail here, before
// any training call.
func (b *Builder) Build() (*Session, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.weights == nil {
		return nil, fmt.Errorf("cannot build a session without weights")
	}

	if b.hasData {
		computer := nn.NewComputer(b.a0, b.y, b.weights, 1.0)
		if err := computer.Validate(); err != nil {
			return nil, err
		}
		return &Session{computer: computer, dir: b.dir, training: true}, nil
	}
	return &Session{computer: nn.NewPredictor(b.weights), dir: b.dir}, nil
}

// Train runs the minimizer with the given regularization strength and
// saves the resulting checkpoint. Only valid on a session built with a
// train set.
func (s *Session) Train(m minimize.Minimizer, lambda float64) (minimize.Status, error) {
	if !s.training {
		return 0, fmt.Errorf("session has no train set")
	}
	s.computer.SetLambda(lambda)
	status := m.Minimize(s.computer)
	log.Printf("training finished: %s", status)

	if err := SaveWeights(s.dir, s.computer.Weights()); err != nil {
		return status, err
	}
	return status, nil
}

// Weights returns a copy of the session's current weight matrices.
func (s *Session) Weights() []matrix.Matrix {
	return s.computer.Weights()
}

// Classify runs the forward pass over one item and returns the class
// index with the strongest output activation. The prediction comes
// back with classes as rows and the single example as its column, so
// the argmax walks the rows.
func (s *Session) Classify(it mnist.Item) int {
	input := matrix.FromSlice(1, it.Size(), it.Float64Pixels())
	p := s.computer.Predict(input)

	predicted := 0
	for i := 1; i < p.Rows(); i++ {
		if p.At(i, 0) > p.At(predicted, 0) {
			predicted = i
		}
	}
	return predicted
}

// EvaluateAll classifies every item and returns how many matched their
// label.
func (s *Session) EvaluateAll(items []mnist.Item) int {
	correct := 0
	for _, it := range items {
		if s.Classify(it) == it.Label {
			correct++
		}
	}
	return correct
}
