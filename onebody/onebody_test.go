package onebody_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/integral"
	"github.com/qcgo/hartree/onebody"
	"github.com/qcgo/hartree/screen"
)

func h2Builder(t *testing.T, r float64) (*onebody.Builder, *basis.Molecule) {
	t.Helper()
	lib, err := basis.Builtin("sto-3g")
	require.NoError(t, err)
	mol, err := basis.ParseGeometry([]string{"H 0 0 0", "H 0 0 1.4"}, false)
	require.NoError(t, err)
	mol.Atoms[1].Coords[2] = r
	bs, err := basis.Build(mol, lib)
	require.NoError(t, err)
	return &onebody.Builder{
		Basis:  bs,
		Tiles:  basis.NewTiledSpace(bs, 1),
		Engine: integral.NewGaussian(),
	}, mol
}

func TestOverlapMatrix(t *testing.T) {
	b, _ := h2Builder(t, 1.4)
	s, err := b.Overlap(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 1.0, s.At(0, 0), 1e-10)
	assert.InDelta(t, 1.0, s.At(1, 1), 1e-10)
	assert.InDelta(t, 0.659318, s.At(0, 1), 1e-5)
	assert.Equal(t, s.At(0, 1), s.At(1, 0))
}

func TestCoreHamiltonian(t *testing.T) {
	b, mol := h2Builder(t, 1.4)
	core, err := b.CoreHamiltonian(context.Background(), onebody.NuclearSites(mol), nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.760032, core.T.At(0, 0), 1e-5)
	assert.InDelta(t, -1.880441, core.V.At(0, 0), 1e-5)
	assert.InDelta(t, core.T.At(0, 0)+core.V.At(0, 0), core.H.At(0, 0), 1e-14)
	assert.InDelta(t, -1.120432, core.H.At(0, 0), 1e-5)

	n, _ := core.H.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.InDelta(t, core.H.At(i, j), core.H.At(j, i), 1e-12)
		}
	}
}

func TestScreenedFillMatchesUnscreened(t *testing.T) {
	b, _ := h2Builder(t, 1.4)
	unscreened, err := b.Kinetic(context.Background())
	require.NoError(t, err)

	list, _, err := screen.BuildPairs(context.Background(), b.Basis, b.Basis, b.Engine, 0)
	require.NoError(t, err)
	b.Pairs = list
	screened, err := b.Kinetic(context.Background())
	require.NoError(t, err)

	n, _ := unscreened.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.InDelta(t, unscreened.At(i, j), screened.At(i, j), 1e-14)
		}
	}
}

func TestDipoleMatrices(t *testing.T) {
	b, _ := h2Builder(t, 1.4)
	x, y, z, err := b.Dipole(context.Background(), [3]float64{0, 0, 0.7})
	require.NoError(t, err)

	// both centers sit on the z axis, symmetric about the origin
	assert.InDelta(t, 0.0, x.At(0, 0), 1e-12)
	assert.InDelta(t, 0.0, y.At(0, 0), 1e-12)
	assert.InDelta(t, -0.7, z.At(0, 0), 1e-10)
	assert.InDelta(t, 0.7, z.At(1, 1), 1e-10)
	assert.InDelta(t, 0.0, z.At(0, 1), 1e-10)
}

func TestExternalPointCharge(t *testing.T) {
	b, mol := h2Builder(t, 1.4)
	plain, err := b.Nuclear(context.Background(), onebody.NuclearSites(mol))
	require.NoError(t, err)

	charged, err := b.Nuclear(context.Background(), onebody.NuclearSites(mol,
		integral.ChargeSite{Q: 0.05, Center: [3]float64{0, 0, 50}}))
	require.NoError(t, err)

	// the embedding charge deepens the attraction slightly
	assert.Less(t, charged.At(0, 0), plain.At(0, 0))
	assert.InDelta(t, plain.At(0, 0)-0.05/50.0, charged.At(0, 0), 1e-4)
}
