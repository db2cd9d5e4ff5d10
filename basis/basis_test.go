package basis_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcgo/hartree/basis"
)

func TestAtomicNumber(t *testing.T) {
	z, err := basis.AtomicNumber("He")
	require.NoError(t, err)
	assert.Equal(t, 2, z)

	z, err = basis.AtomicNumber("Cu")
	require.NoError(t, err)
	assert.Equal(t, 29, z)

	_, err = basis.AtomicNumber("Xx")
	assert.ErrorIs(t, err, basis.ErrUnknownElement)

	assert.Equal(t, "C", basis.Symbol(6))
	assert.Equal(t, "", basis.Symbol(0))
}

func TestParseGeometry(t *testing.T) {
	mol, err := basis.ParseGeometry([]string{
		"H 0.0 0.0 0.0",
		"H 0.0 0.0 1.4",
	}, false)
	require.NoError(t, err)
	require.Len(t, mol.Atoms, 2)
	assert.Equal(t, 1, mol.Atoms[0].Z)
	assert.InDelta(t, 1.4, mol.Atoms[1].Coords[2], 1e-14)
	assert.Equal(t, 2, mol.NElectrons())

	// angstrom input is converted to bohr
	mol, err = basis.ParseGeometry([]string{"He 0 0 0.52917720859"}, true)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mol.Atoms[0].Coords[2], 1e-12)

	_, err = basis.ParseGeometry([]string{"H 0.0 0.0"}, false)
	assert.ErrorIs(t, err, basis.ErrBadGeometry)

	_, err = basis.ParseGeometry(nil, false)
	assert.ErrorIs(t, err, basis.ErrBadGeometry)
}

func TestSpinCounts(t *testing.T) {
	mol, err := basis.ParseGeometry([]string{"O 0 0 0"}, false)
	require.NoError(t, err)

	mol.Multiplicity = 3 // ground-state triplet oxygen
	na, nb, err := mol.SpinCounts()
	require.NoError(t, err)
	assert.Equal(t, 5, na)
	assert.Equal(t, 3, nb)

	mol.Multiplicity = 2 // wrong parity for 8 electrons
	_, _, err = mol.SpinCounts()
	assert.Error(t, err)
}

func TestNuclearRepulsion(t *testing.T) {
	mol, err := basis.ParseGeometry([]string{
		"H 0 0 0",
		"H 0 0 1.4",
	}, false)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/1.4, mol.NuclearRepulsion(), 1e-14)

	single, err := basis.ParseGeometry([]string{"He 0 0 0"}, false)
	require.NoError(t, err)
	assert.Zero(t, single.NuclearRepulsion())
}

func TestBuildSet(t *testing.T) {
	lib, err := basis.Builtin("sto-3g")
	require.NoError(t, err)

	mol, err := basis.ParseGeometry([]string{
		"O 0 0 0",
		"H 0 0 1.8",
	}, false)
	require.NoError(t, err)

	bs, err := basis.Build(mol, lib)
	require.NoError(t, err)

	// O: 1s + 2s + 2p (5 functions), H: 1s
	assert.Equal(t, 4, bs.NShells())
	assert.Equal(t, 6, bs.NBasis())
	assert.Equal(t, 1, bs.MaxL())

	lo, hi := bs.AtomShells(0)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 3, hi)
	off, size := bs.AtomBlock(1)
	assert.Equal(t, 5, off)
	assert.Equal(t, 1, size)

	assert.True(t, bs.SameCenter(0, 2))
	assert.False(t, bs.SameCenter(2, 3))

	// shell offsets are cumulative cartesian sizes
	assert.Equal(t, 0, bs.Offset(0))
	assert.Equal(t, 1, bs.Offset(1))
	assert.Equal(t, 2, bs.Offset(2))
	assert.Equal(t, 5, bs.Offset(3))
}

func TestBuildUnknownElementBasis(t *testing.T) {
	lib, err := basis.Builtin("sto-3g")
	require.NoError(t, err)
	mol, err := basis.ParseGeometry([]string{"Fe 0 0 0"}, false)
	require.NoError(t, err)
	_, err = basis.Build(mol, lib)
	assert.ErrorIs(t, err, basis.ErrNoBasisForElement)
}

func TestBuiltinUnknown(t *testing.T) {
	_, err := basis.Builtin("cc-pvqz")
	assert.ErrorIs(t, err, basis.ErrUnknownBasis)
}

func TestCartComponents(t *testing.T) {
	s := basis.CartComponents(0)
	require.Len(t, s, 1)
	assert.Equal(t, [3]int{0, 0, 0}, s[0])

	p := basis.CartComponents(1)
	require.Len(t, p, 3)
	assert.Equal(t, [3]int{1, 0, 0}, p[0])
	assert.Equal(t, [3]int{0, 1, 0}, p[1])
	assert.Equal(t, [3]int{0, 0, 1}, p[2])

	d := basis.CartComponents(2)
	require.Len(t, d, 6)
	assert.Equal(t, [3]int{2, 0, 0}, d[0])
	assert.Equal(t, [3]int{0, 0, 2}, d[5])
}

// The (L,0,0) component of every built shell must have unit self-overlap;
// the closed-form same-center overlap below is what newShell normalizes
// against, so we recompute it independently from the raw library data.
func TestShellNormalization(t *testing.T) {
	lib, err := basis.Builtin("sto-3g")
	require.NoError(t, err)
	mol, err := basis.ParseGeometry([]string{"C 0 0 0"}, false)
	require.NoError(t, err)
	bs, err := basis.Build(mol, lib)
	require.NoError(t, err)

	for _, sh := range bs.Shells {
		self := 0.0
		l := float64(sh.L)
		dfact := 1.0
		for k := 2*sh.L - 1; k > 1; k -= 2 {
			dfact *= float64(k)
		}
		for i, ci := range sh.Coefs {
			for j, cj := range sh.Coefs {
				p := sh.Exps[i] + sh.Exps[j]
				self += ci * cj * math.Pow(math.Pi/p, 1.5) * dfact / math.Pow(2*p, l)
			}
		}
		assert.InDelta(t, 1.0, self, 1e-12)
	}
}

func TestTiledSpace(t *testing.T) {
	lib, err := basis.Builtin("sto-3g")
	require.NoError(t, err)

	var lines []string
	for i := 0; i < 8; i++ {
		lines = append(lines, "Ne 0 0 "+string(rune('0'+i)))
	}
	mol, err := basis.ParseGeometry(lines, false)
	require.NoError(t, err)
	bs, err := basis.Build(mol, lib)
	require.NoError(t, err)
	require.Equal(t, 40, bs.NBasis()) // 8 atoms x (1+1+3)

	ts := basis.NewTiledSpace(bs, 0)
	// default target 30 beats the 5% floor (2) here
	assert.Equal(t, 30, ts.Target)

	// tiles cover the AO range exactly, boundaries on shell boundaries
	total := 0
	nextShell := 0
	for _, tile := range ts.Tiles {
		assert.Equal(t, total, tile.AOStart)
		assert.Equal(t, nextShell, tile.ShellLo)
		size := 0
		for s := tile.ShellLo; s < tile.ShellHi; s++ {
			size += bs.Shells[s].Size()
		}
		assert.Equal(t, size, tile.Size)
		total += tile.Size
		nextShell = tile.ShellHi
	}
	assert.Equal(t, bs.NBasis(), total)
	assert.Equal(t, bs.NShells(), nextShell)
	assert.Len(t, ts.TileShells, ts.NTiles())

	// user-supplied size is honored even below the floor
	small := basis.NewTiledSpace(bs, 5)
	assert.Equal(t, 5, small.Target)
	assert.Greater(t, small.NTiles(), ts.NTiles())
}

func TestParseLibraryFile(t *testing.T) {
	content := `**** H
STO-3G hydrogen
1
1 0 3
3.42525091 0.15432897
0.62391373 0.53532814
0.16885540 0.44463454
**** O
STO-3G oxygen
3
1 0 3
130.70932 0.15432897
23.808861 0.53532814
6.4436083 0.44463454
2 0 3
5.0331513 -0.09996723
1.1695961 0.39951283
0.3803890 0.70011547
2 1 3
5.0331513 0.15591627
1.1695961 0.60768372
0.3803890 0.39195739
`
	path := filepath.Join(t.TempDir(), "sto3g.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lib, err := basis.ParseLibraryFile(path)
	require.NoError(t, err)
	require.Len(t, lib, 2)
	require.Len(t, lib["H"], 1)
	require.Len(t, lib["O"], 3)
	assert.Equal(t, 1, lib["O"][2].L)
	assert.InDelta(t, 3.42525091, lib["H"][0].Exps[0], 1e-12)

	_, err = basis.ParseLibraryFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
