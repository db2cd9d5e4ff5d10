package diag_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/diag"
	"github.com/qcgo/hartree/linalg"
)

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func TestSolveOrdersAndGap(t *testing.T) {
	f := mat.NewDense(3, 3, []float64{
		-0.5, 0.1, 0.0,
		0.1, 0.3, 0.05,
		0.0, 0.05, 0.9,
	})
	s := &diag.Solver{}
	res, err := s.Solve(context.Background(), f, eye(3), 1, 0)
	require.NoError(t, err)

	require.Len(t, res.Energies, 3)
	assert.Less(t, res.Energies[0], res.Energies[1])
	assert.Less(t, res.Energies[1], res.Energies[2])
	assert.InDelta(t, res.Energies[1]-res.Energies[0], res.Gap, 1e-14)
}

func TestGapEdges(t *testing.T) {
	f := mat.NewDense(2, 2, []float64{-1, 0, 0, 1})
	s := &diag.Solver{}

	// fully occupied: no LUMO
	res, err := s.Solve(context.Background(), f, eye(2), 2, 0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Gap, 1))

	// empty channel: no HOMO
	res, err = s.Solve(context.Background(), f, eye(2), 0, 0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Gap, 1))
}

func TestShiftCorrection(t *testing.T) {
	// the caller folded a 0.5 shift into f; the reported gap removes it
	f := mat.NewDense(2, 2, []float64{-1, 0, 0, 1})
	s := &diag.Solver{}
	res, err := s.Solve(context.Background(), f, eye(2), 1, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.0-0.5, res.Gap, 1e-14)
}

func TestPhaseFixing(t *testing.T) {
	// a diagonal F has coordinate eigenvectors; phases must come out +1
	f := mat.NewDense(3, 3, []float64{
		2, 0, 0,
		0, -3, 0,
		0, 0, 1,
	})
	s := &diag.Solver{}
	res, err := s.Solve(context.Background(), f, eye(3), 1, 0)
	require.NoError(t, err)

	for k := 0; k < 3; k++ {
		maxv := math.Inf(-1)
		for i := 0; i < 3; i++ {
			maxv = math.Max(maxv, res.C.At(i, k))
		}
		assert.InDelta(t, 1.0, maxv, 1e-12, "column %d", k)
	}
}

// Rebuilding F = S C e C^T S from a converged solve and re-solving must
// reproduce the spectrum: diagonalization is idempotent.
func TestIdempotence(t *testing.T) {
	f := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			f.Set(i, j, math.Cos(float64(i*j)))
		}
		f.Set(i, i, f.At(i, i)+3)
	}
	f = mat.DenseCopyOf(linalg.Symmetrize(f))

	s := &diag.Solver{}
	first, err := s.Solve(context.Background(), f, eye(4), 2, 0)
	require.NoError(t, err)

	// with S = I: F' = C diag(e) C^T
	var rebuilt mat.Dense
	rebuilt.Mul(first.C, mat.NewDiagDense(4, first.Energies))
	rebuilt.Mul(mat.DenseCopyOf(&rebuilt), first.C.T())

	second, err := s.Solve(context.Background(), mat.DenseCopyOf(&rebuilt), eye(4), 2, 0)
	require.NoError(t, err)
	for i := range first.Energies {
		assert.InDelta(t, first.Energies[i], second.Energies[i], 1e-8)
	}
}

func TestSolverBackendsAgree(t *testing.T) {
	f := mat.NewDense(5, 5, nil)
	for i := 0; i < 5; i++ {
		for j := i; j < 5; j++ {
			v := math.Sin(float64(2*i + 3*j))
			f.Set(i, j, v)
			f.Set(j, i, v)
		}
	}
	x := eye(5)

	dense := &diag.Solver{Backend: linalg.DenseLocal{}}
	cyclic := &diag.Solver{Backend: &linalg.BlockCyclic{Ranks: 2, Block: 2}}

	rd, err := dense.Solve(context.Background(), f, x, 2, 0)
	require.NoError(t, err)
	rc, err := cyclic.Solve(context.Background(), f, x, 2, 0)
	require.NoError(t, err)

	for i := range rd.Energies {
		assert.InDelta(t, rd.Energies[i], rc.Energies[i], 1e-10)
	}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			assert.InDelta(t, rd.C.At(i, j), rc.C.At(i, j), 1e-10)
		}
	}
}
