package ortho_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/linalg"
	"github.com/qcgo/hartree/ortho"
)

// spd builds a well-separated synthetic SPD matrix from a fixed rotation.
func spd(eigs []float64) *mat.SymDense {
	n := len(eigs)
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, math.Sin(float64(3*i+5*j+1)))
		}
	}
	var qr mat.QR
	qr.Factorize(a)
	q := mat.NewDense(n, n, nil)
	qr.QTo(q)

	tmp := mat.NewDense(n, n, nil)
	tmp.Mul(q, mat.NewDiagDense(n, eigs))
	full := mat.NewDense(n, n, nil)
	full.Mul(tmp, q.T())

	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(full.At(i, j)+full.At(j, i)))
		}
	}
	return s
}

func TestBuildOrthonormal(t *testing.T) {
	s := spd([]float64{0.3, 0.9, 1.7, 2.5})
	b := &ortho.Builder{}
	res, err := b.Build(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Rank)
	assert.Zero(t, res.NDropped)

	// X^T S X = I
	var xtsx mat.Dense
	xtsx.Mul(res.X.T(), s)
	xtsx.Mul(mat.DenseCopyOf(&xtsx), res.X)
	for i := 0; i < res.Rank; i++ {
		for j := 0; j < res.Rank; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, xtsx.At(i, j), 1e-10)
		}
	}
}

func TestRankMonotoneInCondLimit(t *testing.T) {
	s := spd([]float64{1e-6, 1e-4, 1e-2, 1})

	ranks := []int{}
	for _, limit := range []float64{1e8, 1e5, 1e3, 10} {
		b := &ortho.Builder{CondLimit: limit}
		res, err := b.Build(context.Background(), s)
		require.NoError(t, err)
		ranks = append(ranks, res.Rank)
	}
	assert.Equal(t, []int{4, 3, 2, 1}, ranks)
}

func TestDegenerateBasis(t *testing.T) {
	s := spd([]float64{1e-9, 1e-8, 1})
	b := &ortho.Builder{CondLimit: 0.5} // floor above lambda_max
	_, err := b.Build(context.Background(), s)
	assert.ErrorIs(t, err, ortho.ErrBasisDegenerate)
}

func TestConditionDiagnostics(t *testing.T) {
	s := spd([]float64{1e-6, 1e-2, 1})
	b := &ortho.Builder{CondLimit: 1e3}
	res, err := b.Build(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rank)
	assert.Equal(t, 1, res.NDropped)
	assert.InDelta(t, 1e6, res.CondS, 1e-2*1e6)
	assert.InDelta(t, 1e2, res.CondX, 1e-6*1e2)
}

func TestBackendsAgree(t *testing.T) {
	s := spd([]float64{0.05, 0.4, 1.1, 2.2, 3.3})

	dense := &ortho.Builder{Backend: linalg.DenseLocal{}}
	cyclic := &ortho.Builder{Backend: &linalg.BlockCyclic{Ranks: 3, Block: 2}}

	rd, err := dense.Build(context.Background(), s)
	require.NoError(t, err)
	rc, err := cyclic.Build(context.Background(), s)
	require.NoError(t, err)

	require.Equal(t, rd.Rank, rc.Rank)
	n, r := rd.X.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < r; j++ {
			assert.InDelta(t, rd.X.At(i, j), rc.X.At(i, j), 1e-12)
		}
	}
}
