// shell.go -- This file is part of the hartree project.
//
//	hartree is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package basis

import (
	"fmt"
	"math"
)

// ErrNoBasisForElement reports an element absent from the basis library.
var ErrNoBasisForElement = fmt.Errorf("basis: no basis functions for element")

// Shell is one contracted Cartesian Gaussian shell. Coefs carry the primitive
// normalization and the contraction renormalization; they are final.
type Shell struct {
	L      int
	Center [3]float64
	Exps   []float64
	Coefs  []float64
	Atom   int
}

// Size is the Cartesian cardinality (L+1)(L+2)/2.
func (s *Shell) Size() int {
	return (s.L + 1) * (s.L + 2) / 2
}

// CartComponents lists the (lx,ly,lz) triples of angular momentum l in
// lexicographically descending order: p -> x,y,z; d -> xx,xy,xz,yy,yz,zz.
func CartComponents(l int) [][3]int {
	out := make([][3]int, 0, (l+1)*(l+2)/2)
	for lx := l; lx >= 0; lx-- {
		for ly := l - lx; ly >= 0; ly-- {
			out = append(out, [3]int{lx, ly, l - lx - ly})
		}
	}
	return out
}

// oddFact2 is the odd double factorial (2n-1)!! with oddFact2(0) = 1.
func oddFact2(n int) float64 {
	r := 1.0
	for k := 2*n - 1; k > 1; k -= 2 {
		r *= float64(k)
	}
	return r
}

// primNorm is the normalization of a primitive Cartesian Gaussian with
// angular momentum (L,0,0).
func primNorm(alpha float64, l int) float64 {
	return math.Pow(2*alpha/math.Pi, 0.75) *
		math.Pow(4*alpha, float64(l)/2) / math.Sqrt(oddFact2(l))
}

// newShell folds primitive norms into the contraction coefficients and
// rescales them so the (L,0,0) component has unit self-overlap.
func newShell(l int, center [3]float64, exps, coefs []float64, atom int) Shell {
	cs := make([]float64, len(coefs))
	for i, c := range coefs {
		cs[i] = c * primNorm(exps[i], l)
	}
	self := 0.0
	for i, ci := range cs {
		for j, cj := range cs {
			p := exps[i] + exps[j]
			self += ci * cj * math.Pow(math.Pi/p, 1.5) * oddFact2(l) / math.Pow(2*p, float64(l))
		}
	}
	scale := 1.0 / math.Sqrt(self)
	for i := range cs {
		cs[i] *= scale
	}
	return Shell{L: l, Center: center, Exps: append([]float64(nil), exps...), Coefs: cs, Atom: atom}
}

// ShellSpec is one shell template of a basis library entry.
type ShellSpec struct {
	L     int
	Exps  []float64
	Coefs []float64
}

// Library maps element symbols to their shell templates.
type Library map[string][]ShellSpec

// Set is the instantiated basis: all shells of the molecule in atom order,
// with the AO offset bookkeeping every integral loop relies on.
type Set struct {
	Shells  []Shell
	offsets []int // AO offset per shell
	nbf     int
	atomLo  []int // first shell index per atom
	atomHi  []int // one past the last shell index per atom
	maxL    int
}

// Build instantiates the library shells on every atom of the molecule.
func Build(mol *Molecule, lib Library) (*Set, error) {
	bs := &Set{}
	for ia, at := range mol.Atoms {
		specs, ok := lib[Symbol(at.Z)]
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrNoBasisForElement, Symbol(at.Z))
		}
		bs.atomLo = append(bs.atomLo, len(bs.Shells))
		for _, sp := range specs {
			sh := newShell(sp.L, at.Coords, sp.Exps, sp.Coefs, ia)
			bs.offsets = append(bs.offsets, bs.nbf)
			bs.nbf += sh.Size()
			if sh.L > bs.maxL {
				bs.maxL = sh.L
			}
			bs.Shells = append(bs.Shells, sh)
		}
		bs.atomHi = append(bs.atomHi, len(bs.Shells))
	}
	return bs, nil
}

// NBasis is the AO dimension.
func (bs *Set) NBasis() int { return bs.nbf }

// NShells is the shell count.
func (bs *Set) NShells() int { return len(bs.Shells) }

// MaxL is the highest angular momentum present.
func (bs *Set) MaxL() int { return bs.maxL }

// Offset is the first AO index of shell s.
func (bs *Set) Offset(s int) int { return bs.offsets[s] }

// AtomShells returns the [lo,hi) shell index range of atom ia.
func (bs *Set) AtomShells(ia int) (lo, hi int) { return bs.atomLo[ia], bs.atomHi[ia] }

// AtomBlock returns the AO offset and width of atom ia's contiguous block.
func (bs *Set) AtomBlock(ia int) (offset, size int) {
	lo, hi := bs.atomLo[ia], bs.atomHi[ia]
	offset = bs.offsets[lo]
	for s := lo; s < hi; s++ {
		size += bs.Shells[s].Size()
	}
	return offset, size
}

// SameCenter reports whether two shells sit on the same atom.
func (bs *Set) SameCenter(i, j int) bool {
	return bs.Shells[i].Atom == bs.Shells[j].Atom
}
