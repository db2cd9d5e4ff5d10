package scf_test

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/density"
	"github.com/qcgo/hartree/integral"
	"github.com/qcgo/hartree/onebody"
	"github.com/qcgo/hartree/ortho"
	"github.com/qcgo/hartree/scf"
)

func buildSystem(t *testing.T, lines []string) (*basis.Molecule, *basis.Set, basis.Library) {
	t.Helper()
	lib, err := basis.Builtin("sto-3g")
	require.NoError(t, err)
	mol, err := basis.ParseGeometry(lines, false)
	require.NoError(t, err)
	bs, err := basis.Build(mol, lib)
	require.NoError(t, err)
	return mol, bs, lib
}

func overlapOf(t *testing.T, bs *basis.Set) *mat.Dense {
	t.Helper()
	ob := &onebody.Builder{
		Basis:  bs,
		Tiles:  basis.NewTiledSpace(bs, 0),
		Engine: integral.NewGaussian(),
	}
	s, err := ob.Overlap(context.Background())
	require.NoError(t, err)
	return s
}

func run(t *testing.T, mol *basis.Molecule, bs *basis.Set, lib basis.Library, opts scf.Options) *scf.Result {
	t.Helper()
	d := &scf.Driver{Molecule: mol, Basis: bs, Library: lib, Opts: opts}
	res, err := d.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestHeliumRestricted(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{"He 0.0 0.0 0.0"})
	res := run(t, mol, bs, lib, scf.Options{Restricted: true})

	require.True(t, res.Converged)
	assert.Equal(t, scf.StateConverged, res.State)
	assert.LessOrEqual(t, res.Iterations, 10)
	assert.InDelta(t, -2.8077839575, res.Energy, 1e-6)
	assert.Zero(t, res.Nuclear)
	assert.InDelta(t, res.Energy, res.Electronic, 1e-12)
	assert.InDelta(t, res.Electronic, res.OneElectron+res.TwoElectron, 1e-10)

	// One orbital, no virtual space.
	assert.True(t, math.IsInf(res.Gap, 1))
	assert.InDelta(t, 2.0, density.TraceProduct(res.D, overlapOf(t, bs)), 1e-8)
}

func TestHydrogenMolecule(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{
		"H 0.0 0.0 0.0",
		"H 0.0 0.0 1.4",
	})
	res := run(t, mol, bs, lib, scf.Options{Restricted: true})

	require.True(t, res.Converged)
	assert.InDelta(t, -1.1167143251, res.Energy, 1e-6)
	assert.InDelta(t, 1.0/1.4, res.Nuclear, 1e-12)
	assert.InDelta(t, -1.8310000393, res.Electronic, 1e-6)
	assert.Greater(t, res.Gap, 0.5)

	last := res.History[len(res.History)-1]
	assert.Less(t, math.Abs(last.DeltaE), 1e-8)
	assert.Less(t, last.DRMS, 1e-6)

	require.Len(t, res.Populations, 2)
	assert.InDelta(t, 1.0, res.Populations[0], 1e-6)
	assert.InDelta(t, 1.0, res.Populations[1], 1e-6)
	assert.InDelta(t, 0.0, res.Charges[0], 1e-6)
	assert.InDelta(t, 0.0, res.Charges[1], 1e-6)

	for k := 0; k < 3; k++ {
		assert.InDelta(t, 0.0, res.Dipole[k], 1e-8)
	}
}

func TestHydrogenMoleculeUnrestricted(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{
		"H 0.0 0.0 0.0",
		"H 0.0 0.0 1.4",
	})
	res := run(t, mol, bs, lib, scf.Options{})

	require.True(t, res.Converged)
	assert.InDelta(t, -1.1167143251, res.Energy, 1e-6)
	require.NotNil(t, res.DBeta)
	assert.True(t, mat.EqualApprox(res.D, res.DBeta, 1e-8))
	assert.InDelta(t, res.Energies[0], res.EnergiesBeta[0], 1e-10)
}

func TestHydrogenAtomUnrestricted(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{"H 0.0 0.0 0.0"})
	mol.Multiplicity = 2
	res := run(t, mol, bs, lib, scf.Options{})

	require.True(t, res.Converged)
	assert.InDelta(t, -0.4665818496, res.Energy, 1e-6)

	s := overlapOf(t, bs)
	assert.InDelta(t, 1.0, density.TraceProduct(res.D, s), 1e-8)
	assert.InDelta(t, 0.0, density.TraceProduct(res.DBeta, s), 1e-10)
}

func TestIterationCapNotFatal(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{
		"H 0.0 0.0 0.0",
		"H 0.0 0.0 1.4",
	})
	res := run(t, mol, bs, lib, scf.Options{Restricted: true, MaxIter: 1})

	assert.False(t, res.Converged)
	assert.Equal(t, scf.StateMaxIterExceeded, res.State)
	assert.Equal(t, "max_iter_exceeded", res.State.String())
	assert.Equal(t, 1, res.Iterations)
	assert.Len(t, res.History, 1)
	assert.NotNil(t, res.D)
}

func TestDegenerateBasisFatal(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{
		"H 0.0 0.0 0.0",
		"H 0.0 0.0 1.4",
	})
	d := &scf.Driver{Molecule: mol, Basis: bs, Library: lib, Opts: scf.Options{
		Restricted: true,
		CondLimit:  0.5,
	}}
	_, err := d.Run(context.Background())
	require.ErrorIs(t, err, ortho.ErrBasisDegenerate)
}

func TestLevelShiftSameFixedPoint(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{
		"H 0.0 0.0 0.0",
		"H 0.0 0.0 1.4",
	})
	res := run(t, mol, bs, lib, scf.Options{Restricted: true, Shift: 0.5})

	require.True(t, res.Converged)
	assert.InDelta(t, -1.1167143251, res.Energy, 1e-6)
	for _, it := range res.History {
		assert.Equal(t, 0.5, it.Shift)
	}
}

func TestRestrictedNeedsPairedElectrons(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{"He 0.0 0.0 0.0"})
	mol.Charge = 1
	mol.Multiplicity = 2
	d := &scf.Driver{Molecule: mol, Basis: bs, Library: lib, Opts: scf.Options{Restricted: true}}
	_, err := d.Run(context.Background())
	require.Error(t, err)
}

func TestUnknownGuess(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{"He 0.0 0.0 0.0"})
	d := &scf.Driver{Molecule: mol, Basis: bs, Library: lib, Opts: scf.Options{
		Restricted: true,
		Guess:      "hueckel",
	}}
	_, err := d.Run(context.Background())
	require.ErrorIs(t, err, scf.ErrUnknownGuess)
}

func TestCoreGuessConverges(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{
		"H 0.0 0.0 0.0",
		"H 0.0 0.0 1.4",
	})
	res := run(t, mol, bs, lib, scf.Options{Restricted: true, Guess: scf.GuessCore})

	require.True(t, res.Converged)
	assert.InDelta(t, -1.1167143251, res.Energy, 1e-6)
}

func TestECPFoldsCoreCharges(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{"Ne 0.0 0.0 0.0"})
	res := run(t, mol, bs, lib, scf.Options{
		Restricted: true,
		MaxIter:    2,
		ECP:        map[string]int{"Ne": 2},
	})

	// Two core electrons replaced: 8 remain against an effective charge
	// of 8, regardless of convergence at this cap.
	require.Len(t, res.Populations, 1)
	assert.InDelta(t, 8.0, res.Populations[0], 1e-8)
	assert.InDelta(t, 0.0, res.Charges[0], 1e-8)
}

func TestSummaryReport(t *testing.T) {
	mol, bs, lib := buildSystem(t, []string{"He 0.0 0.0 0.0"})
	res := run(t, mol, bs, lib, scf.Options{Restricted: true})

	var buf bytes.Buffer
	res.WriteSummary(&buf)
	out := buf.String()
	assert.Contains(t, out, "SCF converged")
	assert.Contains(t, out, "total energy")
	assert.Contains(t, out, "mulliken analysis")
	assert.Contains(t, out, "dipole moment")
}

func TestFormatMatrix(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 0, 0, 0.5})
	out := scf.FormatMatrix(m)
	assert.Contains(t, out, "1.00000000")
	assert.Contains(t, out, "0.50000000")
	assert.True(t, strings.HasPrefix(out, "    "))
}

func TestDIISWindowOne(t *testing.T) {
	d := scf.NewDIIS(1)
	f := mat.NewDense(2, 2, []float64{1, 0, 0, 2})
	r1 := mat.NewDense(2, 2, []float64{0.1, 0, 0, -0.1})
	r2 := mat.NewDense(2, 2, []float64{0.05, 0.02, 0.02, -0.05})
	d.Push(f, r1, nil, nil)
	d.Push(f, r2, nil, nil)

	_, _, ok := d.Extrapolate()
	assert.False(t, ok)
	assert.InDelta(t, math.Sqrt((0.05*0.05+2*0.02*0.02+0.05*0.05)/4), d.DRMS(), 1e-12)
}

func TestDIISRecoversStationaryFock(t *testing.T) {
	d := scf.NewDIIS(0)
	f := mat.NewDense(2, 2, []float64{1, 0.5, 0.5, 2})
	r1 := mat.NewDense(2, 2, []float64{0.1, 0, 0, -0.1})
	r2 := mat.NewDense(2, 2, []float64{0.05, 0.02, 0.02, -0.05})
	d.Push(f, r1, nil, nil)
	d.Push(f, r2, nil, nil)

	// Coefficients sum to one, so a constant history must come back
	// unchanged.
	fa, fb, ok := d.Extrapolate()
	require.True(t, ok)
	assert.Nil(t, fb)
	assert.True(t, mat.EqualApprox(f, fa, 1e-10))
}

func TestDIISSingularHistoryFallsBack(t *testing.T) {
	d := scf.NewDIIS(0)
	f1 := mat.NewDense(2, 2, []float64{1, 0, 0, 2})
	f2 := mat.NewDense(2, 2, []float64{2, 0, 0, 1})
	r := mat.NewDense(2, 2, []float64{0.1, 0, 0, -0.1})
	d.Push(f1, r, nil, nil)
	d.Push(f2, r, nil, nil)

	_, _, ok := d.Extrapolate()
	assert.False(t, ok)
}

func TestDIISResidualVanishesWhenCommuting(t *testing.T) {
	f := mat.NewDense(2, 2, []float64{1, 0, 0, 2})
	dd := mat.NewDense(2, 2, []float64{3, 0, 0, 4})
	s := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	x := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	r := scf.Residual(f, dd, s, x)
	assert.True(t, mat.EqualApprox(r, mat.NewDense(2, 2, nil), 1e-14))
}
