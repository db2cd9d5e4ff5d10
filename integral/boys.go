// boys.go -- This file is part of the hartree project.
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

	"gonum.org/v1/gonum/mathext"
)

// Boys returns F_n(x), the Boys function of order n, through the regularized
// lower incomplete gamma function:
//
//	F_n(x) = Gamma(n+1/2) P(n+1/2, x) / (2 x^{n+1/2}),   F_n(0) = 1/(2n+1).
func Boys(n int, x float64) float64 {
	if x < 1e-13 {
		return 1 / (2*float64(n) + 1)
	}
	nn := float64(n) + 0.5
	return mathext.GammaIncReg(nn, x) * math.Gamma(nn) / (2 * math.Pow(x, nn))
}

// boysArray fills F_0(x) .. F_nmax(x).
func boysArray(nmax int, x float64) []float64 {
	f := make([]float64, nmax+1)
	for n := range f {
		f[n] = Boys(n, x)
	}
	return f
}
