package minimize

import (
	"fmt"
	"math"

	"gradnet/matrix"
	"gradnet/nn"
)

// Line-search constants: rho and sig are the Wolfe-Powell sufficient
// decrease and curvature constants, the rest bound the bracketing and
// extrapolation steps. Values follow Rasmussen's conjugate-gradient
// minimizer.
const (
	ext      = 3.0  // extrapolate at most this multiple of the current bracket
	rho      = 0.01 // sufficient-decrease constant
	sig      = 0.5  // curvature constant
	int01    = 0.1  // don't reevaluate within this fraction of the bracket limit
	maxEvals = 20   // function evaluations per line search
	ratio    = 100  // maximum slope ratio
	realmin  = 2.2251e-308
)

// ConjGrad minimizes the cost with Polak-Ribiere nonlinear conjugate
// gradients. All weight matrices are packed into one flat vector; each
// outer iteration runs a Wolfe-Powell line search along the current
// direction, bracketing with quadratic/cubic fits and falling back to
// bisection when a fit goes non-finite. Two consecutive failed line
// searches stall the run.
type ConjGrad struct {
	// MaxEpoch bounds the search. A positive value counts outer
	// iterations; a negative value counts every cost/gradient
	// evaluation against |MaxEpoch| instead.
	MaxEpoch int
}

// Minimize runs the search on c. Whatever the terminal state, the
// flattened vector is unpacked back into the layer weight matrices
// before returning.
func (cg *ConjGrad) Minimize(c *nn.Computer) Status {
	length := cg.MaxEpoch
	templates := c.Weights()
	x := matrix.FlattenAll(templates)

	// one shared evaluator: each evaluation only swaps the weights in,
	// never recopies the training set
	ec := c.Snapshot()
	eval := func(v matrix.Matrix) (float64, matrix.Matrix) {
		ec.SetWeights(matrix.SplitLike(v, templates))
		ec.Compute()
		return ec.Cost(), matrix.FlattenAll(ec.Gradients())
	}

	i := 0
	lsFailed := false

	f1, df1 := eval(x)
	if Verbose {
		fmt.Fprintf(Output, "epoch #%02d: J = %f\n", i, f1)
	}
	if length < 0 {
		i++
	}

	s := df1.Negative()    // steepest descent to start
	d1 := -s.Dot(s)        // slope along s
	z1 := 1.0 / (1.0 - d1) // initial step

	status := Converged
	for i < intAbs(length) {
		if length > 0 {
			i++
		}

		// checkpoint for rollback if this line search fails
		x0, f0, df0 := x, f1, df1

		x = x.AddScaled(z1, s)
		f2, df2 := eval(x)
		if length < 0 {
			i++
		}
		d2 := df2.Dot(s)

		// point 3 is the start of the line search
		f3, d3, z3 := f1, d1, -z1

		var budget int
		if length > 0 {
			budget = maxEvals
		} else {
			budget = min(maxEvals, -length-i)
		}

		success := false
		limit := -1.0

		for {
			for (f2 > f1+z1*rho*d1 || d2 > -sig*d1) && budget > 0 {
				// tighten the bracket
				limit = z1
				var z2 float64
				if f2 > f1 {
					// quadratic fit
					z2 = z3 - (0.5*d3*z3*z3)/(d3*z3+f2-f3)
				} else {
					// cubic fit; numerical error possible here
					a := 6*(f2-f3)/z3 + 3*(d2+d3)
					b := 3*(f3-f2) - z3*(d3+2*d2)
					z2 = (math.Sqrt(b*b-a*d2*z3*z3) - b) / a
				}
				if math.IsNaN(z2) || math.IsInf(z2, 0) {
					// numerical problem: bisect instead
					z2 = z3 / 2
				}
				// don't accept too close to the bracket limits
				z2 = math.Max(math.Min(z2, int01*z3), (1-int01)*z3)
				z1 += z2
				x = x.AddScaled(z2, s)
				f2, df2 = eval(x)
				budget--
				if length < 0 {
					i++
				}
				d2 = df2.Dot(s)
				// z3 is now relative to the location of z2
				z3 -= z2
			}

			if f2 > f1+z1*rho*d1 || d2 > -sig*d1 {
				break // failure
			} else if d2 > sig*d1 {
				success = true
				break
			} else if budget == 0 {
				break // failure
			}

			// cubic extrapolation
			a := 6*(f2-f3)/z3 + 3*(d2+d3)
			b := 3*(f3-f2) - z3*(d3+2*d2)
			z2 := -d2 * z3 * z3 / (b + math.Sqrt(b*b-a*d2*z3*z3))
			if math.IsNaN(z2) || math.IsInf(z2, 0) || z2 < 0 {
				// numerical problem or wrong sign
				if limit < -0.5 {
					// no known upper limit: extrapolate the maximum amount
					z2 = z1 * (ext - 1)
				} else {
					z2 = (limit - z1) / 2
				}
			} else if limit > -0.5 && z2+z1 > limit {
				// extrapolation beyond the limit: bisect
				z2 = (limit - z1) / 2
			} else if limit < -0.5 && z2+z1 > z1*ext {
				z2 = z1 * (ext - 1)
			} else if z2 < -z3*int01 {
				z2 = -z3 * int01
			} else if limit > -0.5 && z2 < (limit-z1)*(1-int01) {
				// too close to the limit
				z2 = (limit - z1) * (1 - int01)
			}

			// set point 3 equal to point 2 and move on
			f3, d3, z3 = f2, d2, -z2
			z1 += z2
			x = x.AddScaled(z2, s)
			f2, df2 = eval(x)
			budget--
			if length < 0 {
				i++
			}
			d2 = df2.Dot(s)
		}

		if success {
			f1 = f2
			if Verbose {
				fmt.Fprintf(Output, "epoch #%02d: J = %f\n", i, f1)
			}

			// Polak-Ribiere direction update:
			// s = (df2'*df2 - df1'*df2)/(df1'*df1)*s - df2
			numerator := (df2.Dot(df2) - df1.Dot(df2)) / df1.Dot(df1)
			s = s.Scale(numerator).Sub(df2)
			df1, df2 = df2, df1
			d2 = df1.Dot(s)
			if d2 > 0 {
				// not a descent direction: reset to steepest
				s = df1.Negative()
				d2 = -s.Dot(s)
			}
			// rescale the step by the slope ratio, capped
			z1 *= math.Min(ratio, d1/(d2-realmin))
			d1 = d2
			lsFailed = false
		} else {
			// restore the point from before this line search
			x, f1, df1 = x0, f0, df0
			if lsFailed {
				status = Stalled
				break
			}
			if i > intAbs(length) {
				status = ExhaustedBudget
				break
			}
			df1, df2 = df2, df1
			s = df1.Negative()
			d1 = -s.Dot(s)
			z1 = 1.0 / (1.0 - d1)
			lsFailed = true
		}
	}

	if status == Converged && lsFailed {
		// the budget ran out while recovering from a failed search
		status = ExhaustedBudget
	}

	c.SetWeights(matrix.SplitLike(x, templates))
	return status
}

func intAbs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
