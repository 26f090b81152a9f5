package matrix

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestFromSliceCopiesData(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	m := FromSlice(2, 2, data)
	data[0] = 99

	assert.Equal(t, 1.0, m.At(0, 0), "matrix should not alias the input slice")
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 2, m.Cols())
	assert.Equal(t, 4, m.Elements())
}

func TestSigmoid(t *testing.T) {
	m := FromSlice(1, 3, []float64{0, 2, -2})
	s := m.Sigmoid()

	assert.Equal(t, 0.5, s.At(0, 0))
	assert.InDelta(t, 1.0/(1.0+math.Exp(-2)), s.At(0, 1), 1e-15)
	// sigmoid is symmetric around 0.5
	assert.InDelta(t, 1.0, s.At(0, 1)+s.At(0, 2), 1e-15)
}

func TestSigmoidDerivative(t *testing.T) {
	m := FromSlice(1, 2, []float64{0, 1.5})
	d := m.SigmoidDerivative()

	assert.Equal(t, 0.25, d.At(0, 0))
	s := 1.0 / (1.0 + math.Exp(-1.5))
	assert.InDelta(t, s*(1-s), d.At(0, 1), 1e-15)
}

func TestMulTransB(t *testing.T) {
	a := FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	b := FromRows([][]float64{
		{1, 0, 1},
		{0, 2, 0},
	})
	p := a.MulTransB(b)

	require.Equal(t, 2, p.Rows())
	require.Equal(t, 2, p.Cols())
	// each entry is the dot product of a row of a with a row of b
	assert.Equal(t, 4.0, p.At(0, 0))
	assert.Equal(t, 4.0, p.At(0, 1))
	assert.Equal(t, 10.0, p.At(1, 0))
	assert.Equal(t, 10.0, p.At(1, 1))
}

func TestTransMul(t *testing.T) {
	a := FromRows([][]float64{
		{1, 2},
		{3, 4},
		{5, 6},
	})
	b := FromRows([][]float64{
		{1},
		{1},
		{1},
	})
	p := a.TransMul(b)

	require.Equal(t, 2, p.Rows())
	require.Equal(t, 1, p.Cols())
	assert.Equal(t, 9.0, p.At(0, 0))
	assert.Equal(t, 12.0, p.At(1, 0))
}

func TestOperationsDoNotMutateReceiver(t *testing.T) {
	m := FromSlice(2, 2, []float64{1, 2, 3, 4})
	orig := m.Clone()

	m.Scale(10)
	m.Add(m)
	m.Sigmoid()
	m.SetColumn(0, 0)
	m.Transpose()

	assert.True(t, m.Equal(orig))
}

func TestPrependColumn(t *testing.T) {
	m := FromRows([][]float64{
		{1, 2},
		{3, 4},
	})
	b := m.PrependColumn(1.0)

	require.Equal(t, 2, b.Rows())
	require.Equal(t, 3, b.Cols())
	assert.Equal(t, 1.0, b.At(0, 0))
	assert.Equal(t, 1.0, b.At(1, 0))
	assert.Equal(t, 1.0, b.At(0, 1))
	assert.Equal(t, 4.0, b.At(1, 2))
}

func TestSetColumn(t *testing.T) {
	m := FromSlice(2, 3, []float64{1, 2, 3, 4, 5, 6})
	z := m.SetColumn(0, 0)

	assert.Equal(t, 0.0, z.At(0, 0))
	assert.Equal(t, 0.0, z.At(1, 0))
	assert.Equal(t, 2.0, z.At(0, 1))
	assert.Equal(t, 1.0, m.At(0, 0), "receiver must stay intact")
}

func TestSlice(t *testing.T) {
	m := FromSlice(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	s := m.Slice(0, 3, 1, 3)

	require.Equal(t, 3, s.Rows())
	require.Equal(t, 2, s.Cols())
	assert.Equal(t, 2.0, s.At(0, 0))
	assert.Equal(t, 9.0, s.At(2, 1))
}

func TestShapeViolationsPanicWithErrDimension(t *testing.T) {
	a := New(2, 3)
	b := New(2, 2)

	for name, fn := range map[string]func(){
		"Mul":       func() { a.Mul(b) },
		"Add":       func() { a.Add(b) },
		"Slice":     func() { a.Slice(0, 5, 0, 1) },
		"Reshape":   func() { a.Reshape(4, 4) },
		"FromSlice": func() { FromSlice(2, 2, []float64{1}) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected a panic")
				err, ok := r.(error)
				require.True(t, ok)
				assert.True(t, errors.Is(err, ErrDimension))
			}()
			fn()
		})
	}
}

func TestDot(t *testing.T) {
	a := FromSlice(1, 4, []float64{1, 2, 3, 4})
	b := FromSlice(1, 4, []float64{4, 3, 2, 1})

	assert.Equal(t, 20.0, a.Dot(b))
	assert.Equal(t, 30.0, a.Dot(a))
}

func TestAddScaled(t *testing.T) {
	a := FromSlice(1, 3, []float64{1, 1, 1})
	b := FromSlice(1, 3, []float64{1, 2, 3})
	c := a.AddScaled(-0.5, b)

	assert.Equal(t, 0.5, c.At(0, 0))
	assert.Equal(t, 0.0, c.At(0, 1))
	assert.Equal(t, -0.5, c.At(0, 2))
}

func TestReshape(t *testing.T) {
	m := FromSlice(2, 3, []float64{1, 2, 3, 4, 5, 6})
	r := m.Reshape(3, 2)

	require.Equal(t, 3, r.Rows())
	require.Equal(t, 2, r.Cols())
	// row-major order is preserved
	assert.Equal(t, 1.0, r.At(0, 0))
	assert.Equal(t, 2.0, r.At(0, 1))
	assert.Equal(t, 3.0, r.At(1, 0))
	assert.Equal(t, 6.0, r.At(2, 1))
}

func TestFlattenSplitRoundTrip(t *testing.T) {
	src := rand.NewSource(7)
	ms := []Matrix{
		Random(2, 3, -1, 1, src),
		Random(4, 2, -1, 1, src),
		Random(1, 5, -1, 1, src),
	}

	vec := FlattenAll(ms)
	require.Equal(t, 1, vec.Rows())
	require.Equal(t, 19, vec.Cols())

	back := SplitLike(vec, ms)
	require.Len(t, back, len(ms))
	for i := range ms {
		assert.True(t, back[i].Equal(ms[i]), "matrix %d changed in the round trip", i)
	}
}

func TestRandomRange(t *testing.T) {
	m := Random(10, 10, -1, 1, rand.NewSource(42))
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			v := m.At(i, j)
			assert.GreaterOrEqual(t, v, -1.0)
			assert.Less(t, v, 1.0)
		}
	}

	again := Random(10, 10, -1, 1, rand.NewSource(42))
	assert.True(t, m.Equal(again), "same seed must reproduce the same matrix")
}

func TestSum(t *testing.T) {
	m := FromSlice(2, 2, []float64{1, -2, 3, -4})
	assert.Equal(t, -2.0, m.Sum())
}
