// Package minimize provides the optimization strategies that drive
// training: a plain full-batch gradient descent and a nonlinear
// conjugate-gradient search with Wolfe-Powell line search. Both operate
// on an nn.Computer, repeatedly evaluating cost and gradients and
// updating the weights until a stopping condition fires.
package minimize

import (
	"io"
	"os"

	"gradnet/nn"
)

// Verbose controls whether per-epoch cost lines are printed.
var Verbose = false

// Output is the writer for per-epoch cost lines. Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// Status is the terminal state of a minimization run.
type Status int

const (
	// Converged means the search stopped because it could no longer
	// improve the cost.
	Converged Status = iota
	// Stalled means two consecutive line searches failed; the weights
	// hold the last accepted point.
	Stalled
	// ExhaustedBudget means the epoch or evaluation budget ran out.
	ExhaustedBudget
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case Stalled:
		return "stalled"
	case ExhaustedBudget:
		return "exhausted budget"
	}
	return "unknown"
}

// Minimizer searches for weights minimizing a computer's cost. On
// return, whatever the terminal state, the computer holds the best
// weights the search accepted, never a partially updated set.
type Minimizer interface {
	Minimize(c *nn.Computer) Status
}
