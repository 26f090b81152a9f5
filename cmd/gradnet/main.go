// gradnet: trains a two-layer sigmoid classifier on the MNIST digits
// and classifies images with it.
//
// Usage:
//
//	gradnet -mnist=./data -minimizer=cg -epochs=50 train
//	gradnet -mnist=./data predict 172
//	gradnet -mnist=./data test
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"strconv"

	"golang.org/x/exp/rand"

	"gradnet/matrix"
	"gradnet/minimize"
	"gradnet/mnist"
	"gradnet/trainer"
)

// Network topology: 28x28 grayscale inputs, one hidden layer, ten digit
// classes.
const (
	inputSize  = 784
	hiddenSize = 25
	outputSize = 10
)

var (
	mnistDir  = flag.String("mnist", "./data", "Directory holding the gzipped MNIST archives")
	dataDir   = flag.String("dir", ".", "Directory for weight checkpoints and cached matrices")
	lambda    = flag.Float64("lambda", 1.0, "Regularization strength")
	alpha     = flag.Float64("alpha", 0.1, "Learning rate (batch minimizer only)")
	epochs    = flag.Int("epochs", 10, "Training epoch budget")
	minimizer = flag.String("minimizer", "batch", "Minimizer: batch or cg")
	seed      = flag.Uint64("seed", 42, "Seed for random weight initialization")
	verbose   = flag.Bool("verbose", true, "Print the cost after every epoch")
)

func main() {
	flag.Parse()
	minimize.Verbose = *verbose

	var err error
	switch flag.Arg(0) {
	case "train":
		err = train()
	case "predict":
		if flag.NArg() < 2 {
			err = fmt.Errorf("predict needs a test-set index")
			break
		}
		var idx int
		idx, err = strconv.Atoi(flag.Arg(1))
		if err == nil {
			err = predict(idx)
		}
	case "test":
		err = test()
	default:
		fmt.Fprintf(os.Stderr, "usage: gradnet [flags] train | predict <index> | test\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// loadOrInitWeights loads the checkpointed weights, falling back to
// fresh uniform random matrices when no checkpoint exists yet.
func loadOrInitWeights() ([]matrix.Matrix, error) {
	weights, err := trainer.LoadWeights(*dataDir, 2)
	if err == nil {
		log.Printf("weight matrices loaded from %s", *dataDir)
		return weights, nil
	}
	if !errors.Is(err, trainer.ErrMissingWeights) {
		return nil, err
	}

	log.Printf("no weight checkpoint in %s, starting from random weights", *dataDir)
	src := rand.NewSource(*seed)
	return []matrix.Matrix{
		matrix.Random(hiddenSize, inputSize+1, -1.0, 1.0, src),
		matrix.Random(outputSize, hiddenSize+1, -1.0, 1.0, src),
	}, nil
}

func buildMinimizer() (minimize.Minimizer, error) {
	switch *minimizer {
	case "batch":
		return &minimize.BatchDescent{Alpha: *alpha, MaxEpoch: *epochs}, nil
	case "cg":
		return &minimize.ConjGrad{MaxEpoch: *epochs}, nil
	}
	return nil, fmt.Errorf("unknown minimizer %q", *minimizer)
}

func train() error {
	weights, err := loadOrInitWeights()
	if err != nil {
		return err
	}
	m, err := buildMinimizer()
	if err != nil {
		return err
	}

	session, err := trainer.NewBuilder(inputSize, outputSize).
		WithDir(*dataDir).
		WithWeights(weights).
		LoadTrainSet(*mnistDir).
		Build()
	if err != nil {
		return err
	}

	status, err := session.Train(m, *lambda)
	if err != nil {
		return err
	}
	log.Printf("weights saved to %s (%s)", *dataDir, status)
	return nil
}

// predict classifies one image from the test set and dumps it to
// digit.png for eyeballing.
func predict(idx int) error {
	session, items, err := predictionSession()
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(items) {
		return fmt.Errorf("index %d outside the test set (%d items)", idx, len(items))
	}

	item := items[idx]
	predicted := session.Classify(item)
	fmt.Printf("predicted: %d, labeled: %d\n", predicted, item.Label)

	f, err := os.Create("digit.png")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, item.Image()); err != nil {
		return fmt.Errorf("writing digit.png: %w", err)
	}
	log.Print("image written to digit.png")
	return nil
}

// test classifies the whole test set and reports the accuracy.
func test() error {
	session, items, err := predictionSession()
	if err != nil {
		return err
	}

	correct := session.EvaluateAll(items)
	fmt.Printf("%d of %d correct (%.2f%%)\n",
		correct, len(items), 100*float64(correct)/float64(len(items)))
	return nil
}

func predictionSession() (*trainer.Session, []mnist.Item, error) {
	weights, err := trainer.LoadWeights(*dataDir, 2)
	if err != nil {
		return nil, nil, err
	}
	session, err := trainer.NewBuilder(inputSize, outputSize).
		WithDir(*dataDir).
		WithWeights(weights).
		Build()
	if err != nil {
		return nil, nil, err
	}

	reader, err := mnist.NewReader(*mnistDir)
	if err != nil {
		return nil, nil, err
	}
	items, err := reader.ReadTestSet()
	if err != nil {
		return nil, nil, err
	}
	return session, items, nil
}
