// Package nn implements the numerical engine of the classifier: a
// feed-forward sigmoid network evaluated over the whole training set at
// once, with backpropagated gradients and a regularized cross-entropy
// cost. The Computer owns the matrices; minimizers drive it by calling
// Compute and reading the cost and gradients back.
package nn

import (
	"fmt"

	"gradnet/matrix"
)

// Computer evaluates cost and gradients for a layered sigmoid network.
//
// The input activation a0 carries one row per example with a leading
// bias column of ones. Each weights[i] maps the biased activation of
// layer i to the pre-activation of layer i+1, so weights[i] has shape
// (size[i+1], size[i]+1) with the bias weight in column 0. The ground
// truth y is one-hot, one row per example.
//
// Forward and backward passes iterate over the weight sequence, so the
// engine handles any layer count; the classifier topology used by the
// trainer is a single hidden layer.
type Computer struct {
	a0      matrix.Matrix
	y       matrix.Matrix
	weights []matrix.Matrix
	lambda  float64

	// populated by Compute
	acts    []matrix.Matrix // biased activation feeding weights[i]
	preacts []matrix.Matrix // pre-activation produced by weights[i]
	h       matrix.Matrix   // output activation
	cost    float64
	grads   []matrix.Matrix

	hasData bool
}

// NewComputer builds a training computer. All matrices are copied; the
// caller keeps no aliases into the computer's state.
func NewComputer(a0, y matrix.Matrix, weights []matrix.Matrix, lambda float64) *Computer {
	return &Computer{
		a0:      a0.Clone(),
		y:       y.Clone(),
		weights: cloneAll(weights),
		lambda:  lambda,
		hasData: true,
	}
}

// NewPredictor builds a computer for inference only. Compute is not
// valid on it; use Predict.
func NewPredictor(weights []matrix.Matrix) *Computer {
	return &Computer{weights: cloneAll(weights)}
}

// Snapshot returns a deep copy sharing no matrices with the receiver.
// Minimizers use snapshots to roll back a rejected step wholesale.
func (c *Computer) Snapshot() *Computer {
	if !c.hasData {
		return NewPredictor(c.weights)
	}
	return NewComputer(c.a0, c.y, c.weights, c.lambda)
}

func cloneAll(ms []matrix.Matrix) []matrix.Matrix {
	out := make([]matrix.Matrix, len(ms))
	for i, m := range ms {
		out[i] = m.Clone()
	}
	return out
}

// Weights returns an independent copy of the weight matrices.
func (c *Computer) Weights() []matrix.Matrix {
	return cloneAll(c.weights)
}

// SetWeights replaces the weight matrices with copies of ws.
func (c *Computer) SetWeights(ws []matrix.Matrix) {
	c.weights = cloneAll(ws)
}

// Gradients returns an independent copy of the gradients produced by
// the last Compute call.
func (c *Computer) Gradients() []matrix.Matrix {
	return cloneAll(c.grads)
}

// Cost returns the regularized cost of the last Compute call.
func (c *Computer) Cost() float64 {
	return c.cost
}

// Lambda returns the regularization coefficient.
func (c *Computer) Lambda() float64 {
	return c.lambda
}

// SetLambda sets the regularization coefficient.
func (c *Computer) SetLambda(lambda float64) {
	c.lambda = lambda
}

// Validate checks that the input, weight and ground-truth shapes form a
// consistent network. A violation is a configuration defect: run this
// once per session, before any training call.
func (c *Computer) Validate() error {
	if !c.hasData {
		return fmt.Errorf("computer has no training data")
	}
	if len(c.weights) == 0 {
		return fmt.Errorf("no weight matrices defined")
	}
	prevRows := c.a0.Cols() - 1
	for i, w := range c.weights {
		if w.Cols() != prevRows+1 {
			if i == 0 {
				return fmt.Errorf("weight matrix on layer %d has wrong size (%dx%d), the input vector has %d columns",
					i, w.Rows(), w.Cols(), prevRows)
			}
			return fmt.Errorf("weight matrix on layer %d has wrong size (%dx%d), the previous matrix had %d rows",
				i, w.Rows(), w.Cols(), prevRows)
		}
		prevRows = w.Rows()
	}
	last := c.weights[len(c.weights)-1]
	if prevRows != c.y.Cols() {
		return fmt.Errorf("weight matrix on layer %d has wrong size (%dx%d), the output vector has %d elements",
			len(c.weights)-1, last.Rows(), last.Cols(), c.y.Cols())
	}
	if c.a0.Rows() != c.y.Rows() {
		return fmt.Errorf("input has %d examples but ground truth has %d", c.a0.Rows(), c.y.Rows())
	}
	return nil
}

// Compute runs the forward pass, the backward pass and the cost
// computation, in that order. Afterwards Cost and Gradients hold the
// results for the current weights.
func (c *Computer) Compute() {
	c.forward()
	c.backward()
	c.costFunction()
}

// Predict runs the forward pass over a raw (unbiased) input matrix, one
// row per example, and returns the output activation transposed: one
// column per example, one row per class. Cost and gradients are left
// untouched.
func (c *Computer) Predict(input matrix.Matrix) matrix.Matrix {
	_, _, h := c.forwardFrom(input.PrependColumn(1.0))
	return h.Transpose()
}

func (c *Computer) forward() {
	c.acts, c.preacts, c.h = c.forwardFrom(c.a0)
}

// forwardFrom propagates a biased input activation through every
// layer. It returns the biased activation feeding each weight matrix,
// the pre-activation each produces, and the final output activation.
func (c *Computer) forwardFrom(a0 matrix.Matrix) (acts, preacts []matrix.Matrix, h matrix.Matrix) {
	n := len(c.weights)
	acts = make([]matrix.Matrix, n)
	preacts = make([]matrix.Matrix, n)

	a := a0
	for i, w := range c.weights {
		acts[i] = a
		z := a.MulTransB(w)
		preacts[i] = z
		s := z.Sigmoid()
		if i < n-1 {
			a = s.PrependColumn(1.0)
		} else {
			h = s
		}
	}
	return acts, preacts, h
}

// backward propagates the output error down the layer sequence and
// accumulates the regularized gradient of every weight matrix. The
// bias column (column 0) is excluded from the L2 penalty.
func (c *Computer) backward() {
	m := float64(c.a0.Rows())
	c.grads = make([]matrix.Matrix, len(c.weights))

	// output error, then walk the layers backwards
	delta := c.h.Sub(c.y)
	for i := len(c.weights) - 1; i >= 0; i-- {
		wgrad := delta.TransMul(c.acts[i]).Scale(1.0 / m)
		reg := c.weights[i].SetColumn(0, 0).Scale(c.lambda / m)
		c.grads[i] = wgrad.Add(reg)

		if i > 0 {
			sigGrad := c.preacts[i-1].SigmoidDerivative().PrependColumn(1.0)
			t := delta.Mul(c.weights[i]).MulElem(sigGrad)
			// drop the bias column before descending a layer
			delta = t.Slice(0, t.Rows(), 1, t.Cols())
		}
	}
}

// costFunction evaluates the regularized cross-entropy cost.
//
// The denominator is the column count of the input activation, not the
// example count used by the gradients. The asymmetry is preserved from
// the reference computation on purpose: normalizing by rows instead
// would shift the regularization balance and break parity with any
// previously trained weights.
func (c *Computer) costFunction() {
	m := float64(c.a0.Cols())

	t1 := c.y.MulElem(c.h.Log())
	t2 := c.y.Negative().AddScalar(1.0).MulElem(c.h.Negative().AddScalar(1.0).Log())
	c.cost = (-1.0 / m) * t1.Add(t2).Sum()

	reg := 0.0
	for _, w := range c.weights {
		reg += w.Slice(0, w.Rows(), 1, w.Cols()).Power(2.0).Sum()
	}
	c.cost += c.lambda / (2.0 * m) * reg
}
