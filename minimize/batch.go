package minimize

import (
	"fmt"

	"gradnet/nn"
)

// epsilon is the minimum cost improvement an epoch must deliver;
// anything less counts as a stall.
const epsilon = 1.0 / 10000

// BatchDescent is full-batch gradient descent with a fixed learning
// rate. Every epoch evaluates the whole training set and steps each
// weight matrix against its gradient. When the cost stops improving
// the previous weights are restored and the run ends.
//
// There is no recovery path for divergence beyond the stall check; a
// caller wanting robustness should use ConjGrad instead.
type BatchDescent struct {
	// Alpha is the learning rate.
	Alpha float64
	// MaxEpoch bounds the number of epochs.
	MaxEpoch int
}

// Minimize runs the descent loop on c. A non-positive MaxEpoch runs no
// epochs at all; unlike ConjGrad there is no evaluation-counting mode
// behind a negative budget.
func (b *BatchDescent) Minimize(c *nn.Computer) Status {
	if b.MaxEpoch <= 0 {
		return ExhaustedBudget
	}
	costs := make([]float64, b.MaxEpoch)
	previous := c.Snapshot()

	for epoch := 0; epoch < b.MaxEpoch; epoch++ {
		c.Compute()
		costs[epoch] = c.Cost()
		if Verbose {
			fmt.Fprintf(Output, "epoch #%02d: J = %.10f\n", epoch, costs[epoch])
		}

		if epoch > 0 && costs[epoch]+epsilon >= costs[epoch-1] {
			// minimum cost reached; the step that produced this epoch
			// made things worse, so restore the pre-step weights
			c.SetWeights(previous.Weights())
			return Converged
		}

		weights := c.Weights()
		grads := c.Gradients()
		for k := range weights {
			weights[k] = weights[k].AddScaled(-b.Alpha, grads[k])
		}
		previous = c.Snapshot()
		c.SetWeights(weights)
	}
	return ExhaustedBudget
}
