// Package matrix provides the dense float64 matrix type used by the
// network computer and the minimizers. It wraps gonum's mat.Dense with
// the exact operation set backpropagation and the conjugate-gradient
// search need: products against transposed operands, elementwise maps,
// bias-column handling, and flat packing of several matrices into a
// single optimization vector.
//
// Operations return new matrices; the receiver is never mutated. Shape
// violations panic with an error wrapping ErrDimension.
package matrix

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Matrix is a dense row-major matrix of float64 values.
type Matrix struct {
	d *mat.Dense
}

// New returns a zero-valued r×c matrix.
func New(r, c int) Matrix {
	return Matrix{d: mat.NewDense(r, c, nil)}
}

// FromSlice builds an r×c matrix from data laid out row-major.
// The slice is copied.
func FromSlice(r, c int, data []float64) Matrix {
	if len(data) != r*c {
		mismatchf("FromSlice: %d values for a %dx%d matrix", len(data), r, c)
	}
	cp := make([]float64, len(data))
	copy(cp, data)
	return Matrix{d: mat.NewDense(r, c, cp)}
}

// FromRows builds a matrix from a slice of equally sized rows.
func FromRows(rows [][]float64) Matrix {
	if len(rows) == 0 || len(rows[0]) == 0 {
		mismatchf("FromRows: empty input")
	}
	c := len(rows[0])
	data := make([]float64, 0, len(rows)*c)
	for i, row := range rows {
		if len(row) != c {
			mismatchf("FromRows: row %d has %d values, want %d", i, len(row), c)
		}
		data = append(data, row...)
	}
	return Matrix{d: mat.NewDense(len(rows), c, data)}
}

// Random returns an r×c matrix with entries drawn uniformly from
// [min, max). A nil src falls back to the global generator; passing a
// seeded source makes a training run reproducible.
func Random(r, c int, min, max float64, src rand.Source) Matrix {
	dist := distuv.Uniform{Min: min, Max: max, Src: src}
	data := make([]float64, r*c)
	for i := range data {
		data[i] = dist.Rand()
	}
	return Matrix{d: mat.NewDense(r, c, data)}
}

// Rows returns the number of rows.
func (m Matrix) Rows() int {
	r, _ := m.d.Dims()
	return r
}

// Cols returns the number of columns.
func (m Matrix) Cols() int {
	_, c := m.d.Dims()
	return c
}

// Elements returns the total element count.
func (m Matrix) Elements() int {
	r, c := m.d.Dims()
	return r * c
}

// At returns the element at row i, column j.
func (m Matrix) At(i, j int) float64 {
	return m.d.At(i, j)
}

// Clone returns an independent deep copy.
func (m Matrix) Clone() Matrix {
	return Matrix{d: mat.DenseCopyOf(m.d)}
}

// rawCopy returns the elements in row-major order as a fresh slice.
func (m Matrix) rawCopy() []float64 {
	r, c := m.d.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, m.d.RawRowView(i)...)
	}
	return data
}

// Equal reports whether both matrices have the same shape and
// bit-identical elements.
func (m Matrix) Equal(n Matrix) bool {
	return mat.Equal(m.d, n.d)
}

// Mul returns the matrix product m·n. Requires m.Cols() == n.Rows().
func (m Matrix) Mul(n Matrix) Matrix {
	if m.Cols() != n.Rows() {
		mismatchf("Mul: %dx%d by %dx%d", m.Rows(), m.Cols(), n.Rows(), n.Cols())
	}
	o := mat.NewDense(m.Rows(), n.Cols(), nil)
	o.Mul(m.d, n.d)
	return Matrix{d: o}
}

// MulTransB returns m·nᵀ. Requires m.Cols() == n.Cols(); the result is
// m.Rows()×n.Rows().
func (m Matrix) MulTransB(n Matrix) Matrix {
	if m.Cols() != n.Cols() {
		mismatchf("MulTransB: %dx%d by transpose of %dx%d", m.Rows(), m.Cols(), n.Rows(), n.Cols())
	}
	o := mat.NewDense(m.Rows(), n.Rows(), nil)
	o.Mul(m.d, n.d.T())
	return Matrix{d: o}
}

// TransMul returns mᵀ·n. Requires m.Rows() == n.Rows(); the result is
// m.Cols()×n.Cols().
func (m Matrix) TransMul(n Matrix) Matrix {
	if m.Rows() != n.Rows() {
		mismatchf("TransMul: transpose of %dx%d by %dx%d", m.Rows(), m.Cols(), n.Rows(), n.Cols())
	}
	o := mat.NewDense(m.Cols(), n.Cols(), nil)
	o.Mul(m.d.T(), n.d)
	return Matrix{d: o}
}

// Transpose returns mᵀ.
func (m Matrix) Transpose() Matrix {
	o := mat.NewDense(m.Cols(), m.Rows(), nil)
	o.Copy(m.d.T())
	return Matrix{d: o}
}

func (m Matrix) sameShape(n Matrix, op string) {
	if m.Rows() != n.Rows() || m.Cols() != n.Cols() {
		mismatchf("%s: %dx%d and %dx%d", op, m.Rows(), m.Cols(), n.Rows(), n.Cols())
	}
}

// Add returns m + n elementwise.
func (m Matrix) Add(n Matrix) Matrix {
	m.sameShape(n, "Add")
	o := mat.NewDense(m.Rows(), m.Cols(), nil)
	o.Add(m.d, n.d)
	return Matrix{d: o}
}

// Sub returns m - n elementwise.
func (m Matrix) Sub(n Matrix) Matrix {
	m.sameShape(n, "Sub")
	o := mat.NewDense(m.Rows(), m.Cols(), nil)
	o.Sub(m.d, n.d)
	return Matrix{d: o}
}

// MulElem returns the elementwise (Hadamard) product.
func (m Matrix) MulElem(n Matrix) Matrix {
	m.sameShape(n, "MulElem")
	o := mat.NewDense(m.Rows(), m.Cols(), nil)
	o.MulElem(m.d, n.d)
	return Matrix{d: o}
}

// AddScaled returns m + z·n, the step update of a line search.
func (m Matrix) AddScaled(z float64, n Matrix) Matrix {
	m.sameShape(n, "AddScaled")
	o := mat.NewDense(m.Rows(), m.Cols(), nil)
	o.Scale(z, n.d)
	o.Add(m.d, o)
	return Matrix{d: o}
}

func (m Matrix) apply(fn func(v float64) float64) Matrix {
	o := mat.NewDense(m.Rows(), m.Cols(), nil)
	o.Apply(func(i, j int, v float64) float64 { return fn(v) }, m.d)
	return Matrix{d: o}
}

// Sigmoid applies σ(x) = 1/(1+e^-x) to every element.
func (m Matrix) Sigmoid() Matrix {
	return m.apply(func(v float64) float64 {
		return 1.0 / (1.0 + math.Exp(-v))
	})
}

// SigmoidDerivative applies σ(x)·(1-σ(x)) to every element.
func (m Matrix) SigmoidDerivative() Matrix {
	return m.apply(func(v float64) float64 {
		s := 1.0 / (1.0 + math.Exp(-v))
		return s * (1 - s)
	})
}

// Log applies the natural logarithm to every element. Zero or negative
// entries produce -Inf/NaN, which callers treat as a numerical failure
// condition rather than an error.
func (m Matrix) Log() Matrix {
	return m.apply(math.Log)
}

// Negative returns -m.
func (m Matrix) Negative() Matrix {
	return m.Scale(-1)
}

// Power raises every element to the power p.
func (m Matrix) Power(p float64) Matrix {
	return m.apply(func(v float64) float64 { return math.Pow(v, p) })
}

// Scale returns s·m.
func (m Matrix) Scale(s float64) Matrix {
	o := mat.NewDense(m.Rows(), m.Cols(), nil)
	o.Scale(s, m.d)
	return Matrix{d: o}
}

// AddScalar returns m with s added to every element.
func (m Matrix) AddScalar(s float64) Matrix {
	return m.apply(func(v float64) float64 { return v + s })
}

// PrependColumn returns m with one extra leading column whose every
// entry is v; the original columns shift right by one. The bias column
// of an activation matrix is built this way.
func (m Matrix) PrependColumn(v float64) Matrix {
	r, c := m.d.Dims()
	o := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		o.Set(i, 0, v)
	}
	o.Slice(0, r, 1, c+1).(*mat.Dense).Copy(m.d)
	return Matrix{d: o}
}

// SetColumn returns a copy of m with every entry of column j forced
// to v.
func (m Matrix) SetColumn(j int, v float64) Matrix {
	if j < 0 || j >= m.Cols() {
		mismatchf("SetColumn: column %d of %dx%d", j, m.Rows(), m.Cols())
	}
	o := mat.DenseCopyOf(m.d)
	for i := 0; i < m.Rows(); i++ {
		o.Set(i, j, v)
	}
	return Matrix{d: o}
}

// Slice extracts the half-open submatrix [r0,r1)×[c0,c1) as a copy.
func (m Matrix) Slice(r0, r1, c0, c1 int) Matrix {
	r, c := m.d.Dims()
	if r0 < 0 || r1 > r || c0 < 0 || c1 > c || r0 >= r1 || c0 >= c1 {
		mismatchf("Slice: [%d:%d, %d:%d] of %dx%d", r0, r1, c0, c1, r, c)
	}
	return Matrix{d: mat.DenseCopyOf(m.d.Slice(r0, r1, c0, c1))}
}

// Sum returns the sum of all elements.
func (m Matrix) Sum() float64 {
	return mat.Sum(m.d)
}

// Dot returns the sum of the elementwise product of m and n. Both
// matrices must have identical shapes; in practice it is used on the
// flattened single-row vectors of the conjugate-gradient search.
func (m Matrix) Dot(n Matrix) float64 {
	m.sameShape(n, "Dot")
	sum := 0.0
	for i := 0; i < m.Rows(); i++ {
		a := m.d.RawRowView(i)
		b := n.d.RawRowView(i)
		for j := range a {
			sum += a[j] * b[j]
		}
	}
	return sum
}

// Reshape reinterprets the row-major element sequence as an r×c
// matrix. The element count must be preserved.
func (m Matrix) Reshape(r, c int) Matrix {
	if r*c != m.Elements() {
		mismatchf("Reshape: %dx%d into %dx%d", m.Rows(), m.Cols(), r, c)
	}
	return Matrix{d: mat.NewDense(r, c, m.rawCopy())}
}

// FlattenAll concatenates the row-major elements of every matrix into
// a single-row vector, in input order. Together with SplitLike it
// packs and unpacks a full set of layer weights for an optimizer that
// works on one vector.
func FlattenAll(ms []Matrix) Matrix {
	total := 0
	for _, m := range ms {
		total += m.Elements()
	}
	data := make([]float64, 0, total)
	for _, m := range ms {
		data = append(data, m.rawCopy()...)
	}
	return Matrix{d: mat.NewDense(1, total, data)}
}

// SplitLike unpacks a single-row vector produced by FlattenAll back
// into matrices shaped like the templates, in order. The vector length
// must match the combined element count of the templates.
func SplitLike(vec Matrix, like []Matrix) []Matrix {
	total := 0
	for _, m := range like {
		total += m.Elements()
	}
	if vec.Rows() != 1 || vec.Cols() != total {
		mismatchf("SplitLike: %dx%d vector for %d elements", vec.Rows(), vec.Cols(), total)
	}
	data := vec.rawCopy()
	out := make([]Matrix, len(like))
	start := 0
	for i, m := range like {
		n := m.Elements()
		out[i] = FromSlice(m.Rows(), m.Cols(), data[start:start+n])
		start += n
	}
	return out
}
