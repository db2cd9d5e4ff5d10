// pair.go -- This file is part of the hartree project.
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
package integral

import (
	"math"

	"github.com/qcgo/hartree/basis"
)

// PrecisionCut converts an integral tolerance to the log-domain primitive
// cut, ten orders below the tolerance so contraction sums cannot creep past
// it. Nonpositive eps disables the cut.
func PrecisionCut(eps float64) float64 {
	if eps <= 0 {
		return math.Inf(-1)
	}
	return math.Log(eps / 1e10)
}

// PrimPair is one surviving primitive pair of a shell pair.
type PrimPair struct {
	A, B  float64    // exponents
	C     float64    // contraction coefficient product
	P     [3]float64 // Gaussian product center
	Alpha float64    // A + B
	Ln    float64    // log of the pair magnitude estimate
}

// ShellPair precomputes the primitive-pair data of two shells. Primitive
// pairs whose estimate ln(|c1 c2| (pi/p)^{3/2} exp(-q |AB|^2)) falls below
// lnCut are dropped; a pair with no surviving primitives contributes
// nothing.
type ShellPair struct {
	A, B  *basis.Shell
	Prims []PrimPair
}

// NewShellPair screens the primitive pairs of a and b at lnCut.
// math.Inf(-1) keeps every pair.
func NewShellPair(a, b *basis.Shell, lnCut float64) *ShellPair {
	sp := &ShellPair{A: a, B: b}
	ab := sub3(a.Center, b.Center)
	ab2 := dot3(ab, ab)
	for i, ai := range a.Exps {
		for j, bj := range b.Exps {
			p := ai + bj
			q := ai * bj / p
			cc := a.Coefs[i] * b.Coefs[j]
			ln := math.Log(math.Abs(cc)*math.Pow(math.Pi/p, 1.5)) - q*ab2
			if ln < lnCut {
				continue
			}
			sp.Prims = append(sp.Prims, PrimPair{
				A: ai, B: bj, C: cc,
				P: [3]float64{
					(ai*a.Center[0] + bj*b.Center[0]) / p,
					(ai*a.Center[1] + bj*b.Center[1]) / p,
					(ai*a.Center[2] + bj*b.Center[2]) / p,
				},
				Alpha: p,
				Ln:    ln,
			})
		}
	}
	return sp
}

func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
