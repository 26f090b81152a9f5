package minimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"gradnet/matrix"
	"gradnet/nn"
)

// tinyComputer builds a small one-hidden-layer training problem with a
// deterministic random seed.
func tinyComputer(t *testing.T, seed uint64) *nn.Computer {
	t.Helper()
	src := rand.NewSource(seed)
	a0 := matrix.Random(6, 3, 0, 1, src).PrependColumn(1.0)
	y := matrix.FromRows([][]float64{
		{1, 0},
		{0, 1},
		{1, 0},
		{0, 1},
		{1, 0},
		{0, 1},
	})
	weights := []matrix.Matrix{
		matrix.Random(4, 4, -0.5, 0.5, src),
		matrix.Random(2, 5, -0.5, 0.5, src),
	}
	c := nn.NewComputer(a0, y, weights, 1.0)
	require.NoError(t, c.Validate())
	return c
}

func costOf(c *nn.Computer) float64 {
	probe := c.Snapshot()
	probe.Compute()
	return probe.Cost()
}

func TestBatchDescentReducesCost(t *testing.T) {
	c := tinyComputer(t, 1)
	before := costOf(c)

	b := &BatchDescent{Alpha: 0.3, MaxEpoch: 25}
	status := b.Minimize(c)

	after := costOf(c)
	assert.Less(t, after, before)
	assert.Contains(t, []Status{Converged, ExhaustedBudget}, status)
}

func TestBatchDescentExhaustsBudget(t *testing.T) {
	c := tinyComputer(t, 2)
	// a tiny learning rate keeps improving a little every epoch, so the
	// stall check never fires inside a short budget
	b := &BatchDescent{Alpha: 0.1, MaxEpoch: 3}
	assert.Equal(t, ExhaustedBudget, b.Minimize(c))
}

func TestBatchDescentStallRestoresWeights(t *testing.T) {
	c := tinyComputer(t, 3)
	initial := c.Weights()

	// a zero learning rate never moves, so epoch 1 shows no improvement
	// and the pre-step weights come back untouched
	b := &BatchDescent{Alpha: 0, MaxEpoch: 10}
	status := b.Minimize(c)

	assert.Equal(t, Converged, status)
	final := c.Weights()
	require.Len(t, final, len(initial))
	for i := range initial {
		assert.True(t, final[i].Equal(initial[i]), "weight matrix %d changed", i)
	}
}

func TestBatchDescentNonPositiveBudget(t *testing.T) {
	for _, epochs := range []int{0, -5} {
		c := tinyComputer(t, 4)
		initial := c.Weights()

		b := &BatchDescent{Alpha: 0.1, MaxEpoch: epochs}
		assert.Equal(t, ExhaustedBudget, b.Minimize(c), "MaxEpoch=%d", epochs)

		for i, w := range c.Weights() {
			assert.True(t, w.Equal(initial[i]), "weight matrix %d changed", i)
		}
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "converged", Converged.String())
	assert.Equal(t, "stalled", Stalled.String())
	assert.Equal(t, "exhausted budget", ExhaustedBudget.String())
}
