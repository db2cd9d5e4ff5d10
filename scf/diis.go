// diis.go -- This file is part of the hartree project.
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

package scf

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the number of trailing Fock/residual pairs kept for
// extrapolation. A window of 1 disables extrapolation entirely.
const DefaultWindow = 10

// DIIS holds the trailing Fock and residual history for Pulay's direct
// inversion in the iterative subspace. The beta channel stays empty for
// restricted references; for unrestricted ones a single coefficient
// vector, fitted against the summed residual overlaps, extrapolates
// both channels.
type DIIS struct {
	Window int // history length, 0 means DefaultWindow

	fa, fb []*mat.Dense
	ra, rb []*mat.Dense
}

// NewDIIS returns a DIIS accumulator with the given window.
func NewDIIS(window int) *DIIS {
	return &DIIS{Window: window}
}

func (d *DIIS) window() int {
	if d.Window > 0 {
		return d.Window
	}
	return DefaultWindow
}

// Residual forms the orthonormal-basis commutator X^T (F D S - S D F) X.
// It vanishes at self-consistency and is the error vector DIIS minimizes.
func Residual(f, dd, s, x *mat.Dense) *mat.Dense {
	n, _ := f.Dims()
	fds := mat.NewDense(n, n, nil)
	fds.Mul(f, dd)
	fds.Mul(fds, s)
	sdf := mat.NewDense(n, n, nil)
	sdf.Mul(s, dd)
	sdf.Mul(sdf, f)
	fds.Sub(fds, sdf)

	_, k := x.Dims()
	half := mat.NewDense(k, n, nil)
	half.Mul(x.T(), fds)
	r := mat.NewDense(k, k, nil)
	r.Mul(half, x)
	return r
}

// Push appends one iteration's raw Fock matrices and residuals, then
// trims the history to the window. The beta pair may be nil for
// restricted references. Inputs are copied.
func (d *DIIS) Push(fa, ra, fb, rb *mat.Dense) {
	d.fa = append(d.fa, mat.DenseCopyOf(fa))
	d.ra = append(d.ra, mat.DenseCopyOf(ra))
	if fb != nil {
		d.fb = append(d.fb, mat.DenseCopyOf(fb))
		d.rb = append(d.rb, mat.DenseCopyOf(rb))
	}
	for len(d.fa) > d.window() {
		d.fa, d.ra = d.fa[1:], d.ra[1:]
		if len(d.fb) > 0 {
			d.fb, d.rb = d.fb[1:], d.rb[1:]
		}
	}
}

// DRMS is the root-mean-square of the latest residual, the larger
// channel for unrestricted references.
func (d *DIIS) DRMS() float64 {
	if len(d.ra) == 0 {
		return math.Inf(1)
	}
	out := rms(d.ra[len(d.ra)-1])
	if len(d.rb) > 0 {
		out = math.Max(out, rms(d.rb[len(d.rb)-1]))
	}
	return out
}

func rms(r *mat.Dense) float64 {
	n, m := r.Dims()
	sq := mat.NewDense(n, m, nil)
	sq.MulElem(r, r)
	return math.Sqrt(stat.Mean(sq.RawMatrix().Data, nil))
}

// Extrapolate solves the Pulay equations over the stored history and
// returns the combined Fock matrices. ok is false when the history is
// too short or the system is singular; callers then proceed with the
// raw Fock matrix.
func (d *DIIS) Extrapolate() (fa, fb *mat.Dense, ok bool) {
	n := len(d.fa)
	if n < 2 {
		return nil, nil, false
	}

	// Lagrangian system: residual overlaps bordered by the constraint
	// sum(c) = 1.
	b := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := elemSum(d.ra[i], d.ra[j])
			if len(d.rb) > 0 {
				v += elemSum(d.rb[i], d.rb[j])
			}
			b.Set(i, j, v)
			b.Set(j, i, v)
		}
		b.Set(i, n, -1)
		b.Set(n, i, -1)
	}

	rhs := mat.NewVecDense(n+1, nil)
	rhs.SetVec(n, -1)

	var lu mat.LU
	lu.Factorize(b)
	var c mat.VecDense
	if err := lu.SolveVecTo(&c, false, rhs); err != nil {
		return nil, nil, false
	}

	fa = combine(d.fa, &c)
	if len(d.fb) > 0 {
		fb = combine(d.fb, &c)
	}
	return fa, fb, true
}

func combine(hist []*mat.Dense, c *mat.VecDense) *mat.Dense {
	n, m := hist[0].Dims()
	out := mat.NewDense(n, m, nil)
	t := mat.NewDense(n, m, nil)
	for i, f := range hist {
		t.Scale(c.AtVec(i), f)
		out.Add(out, t)
	}
	return out
}

func elemSum(a, b *mat.Dense) float64 {
	n, m := a.Dims()
	t := mat.NewDense(n, m, nil)
	t.MulElem(a, b)
	return mat.Sum(t)
}
