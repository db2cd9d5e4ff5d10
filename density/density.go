// density.go -- This file is part of the hartree project.
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

// Package density forms AO density matrices from occupied orbital
// coefficients and provides the trace invariant tr(D S) = electron count.
package density

import "gonum.org/v1/gonum/mat"

// Build returns D = factor * C_occ C_occ^T over the first nocc columns.
// factor is 2 for a restricted density and 1 per unrestricted spin
// channel. nocc = 0 yields the zero matrix.
func Build(c *mat.Dense, nocc int, factor float64) *mat.Dense {
	n, _ := c.Dims()
	d := mat.NewDense(n, n, nil)
	if nocc == 0 {
		return d
	}
	occ := c.Slice(0, n, 0, nocc)
	d.Mul(occ, occ.T())
	d.Scale(factor, d)
	return d
}

// TraceProduct returns tr(A B).
func TraceProduct(a, b *mat.Dense) float64 {
	n, _ := a.Dims()
	t := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			t += a.At(i, j) * b.At(j, i)
		}
	}
	return t
}
