package screen_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/integral"
	"github.com/qcgo/hartree/screen"
)

func buildSet(t *testing.T, lines []string) *basis.Set {
	t.Helper()
	lib, err := basis.Builtin("sto-3g")
	require.NoError(t, err)
	mol, err := basis.ParseGeometry(lines, false)
	require.NoError(t, err)
	bs, err := basis.Build(mol, lib)
	require.NoError(t, err)
	return bs
}

func TestBuildPairsClose(t *testing.T) {
	bs := buildSet(t, []string{"H 0 0 0", "H 0 0 1.4"})
	eng := integral.NewGaussian()

	list, data, err := screen.BuildPairs(context.Background(), bs, bs, eng, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []int{0}, list[0])
	assert.Equal(t, []int{0, 1}, list[1])

	require.Len(t, data, 3)
	sp := data[screen.PairKey{S1: 1, S2: 0}]
	require.NotNil(t, sp)
	assert.NotEmpty(t, sp.Prims)

	assert.True(t, list.Contains(0, 1))
	assert.True(t, list.Contains(1, 0))
	assert.False(t, list.Contains(0, 5))
}

func TestBuildPairsFar(t *testing.T) {
	bs := buildSet(t, []string{"H 0 0 0", "H 0 0 100"})
	eng := integral.NewGaussian()

	list, _, err := screen.BuildPairs(context.Background(), bs, bs, eng, 0)
	require.NoError(t, err)

	// same-center diagonals survive, the cross pair does not
	assert.Equal(t, []int{0}, list[0])
	assert.Equal(t, []int{1}, list[1])
	assert.False(t, list.Contains(1, 0))
}

func TestBuildPairsSameCenterAlwaysKept(t *testing.T) {
	// an O atom alone: 1s/2s/2p all share the center, every pair kept
	bs := buildSet(t, []string{"O 0 0 0"})
	eng := integral.NewGaussian()

	list, data, err := screen.BuildPairs(context.Background(), bs, bs, eng, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for s1 := 0; s1 < 3; s1++ {
		assert.Len(t, list[s1], s1+1)
	}
	assert.Len(t, data, 6)
}

func TestBuildSchwarz(t *testing.T) {
	bs := buildSet(t, []string{"H 0 0 0", "H 0 0 1.4"})
	eng := integral.NewGaussian()

	k, err := screen.BuildSchwarz(context.Background(), bs, eng)
	require.NoError(t, err)
	require.Equal(t, 2, k.SymmetricDim())

	// K(0,0) = sqrt((11|11)) from the Szabo table
	assert.InDelta(t, math.Sqrt(0.774606), k.At(0, 0), 1e-5)
	assert.InDelta(t, k.At(0, 0), k.At(1, 1), 1e-12)
	assert.Equal(t, k.At(0, 1), k.At(1, 0))
	assert.Greater(t, k.At(0, 0), k.At(0, 1))
}

func TestShellBlockNorms(t *testing.T) {
	bs := buildSet(t, []string{"O 0 0 0", "H 0 0 1.8"})
	n := bs.NBasis()
	require.Equal(t, 6, n)

	d := mat.NewDense(n, n, nil)
	d.Set(0, 0, 2.0)
	d.Set(2, 5, -3.5) // px row of the 2p shell against the hydrogen s
	d.Set(5, 2, -3.5)

	norms := screen.ShellBlockNorms(bs, d)
	assert.Equal(t, 2.0, norms.At(0, 0))
	assert.Equal(t, 3.5, norms.At(2, 3))
	assert.Equal(t, 3.5, norms.At(3, 2))
	assert.Equal(t, 0.0, norms.At(1, 1))
}
