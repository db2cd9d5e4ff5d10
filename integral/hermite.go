// hermite.go -- This file is part of the hartree project.
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

import "math"

// hermE is the Hermite expansion coefficient E_t^{ij} of the product of two
// 1D Gaussians with exponents a, b separated by qx = Ax - Bx. Recursion over
// i with the j index transferred first:
//
//	E_t^{i j} = (1/2p) E_{t-1}^{i-1 j} - (q qx/a) E_t^{i-1 j} + (t+1) E_{t+1}^{i-1 j}
//	E_t^{i j} = (1/2p) E_{t-1}^{i j-1} + (q qx/b) E_t^{i j-1} + (t+1) E_{t+1}^{i j-1}
//
// with p = a+b, q = ab/p and E_0^{00} = exp(-q qx^2).
func hermE(i, j, t int, qx, a, b float64) float64 {
	if i < 0 || j < 0 || t < 0 || t > i+j {
		return 0
	}
	p := a + b
	q := a * b / p
	if i == 0 && j == 0 {
		return math.Exp(-q * qx * qx)
	}
	if j == 0 {
		return hermE(i-1, j, t-1, qx, a, b)/(2*p) -
			q*qx/a*hermE(i-1, j, t, qx, a, b) +
			float64(t+1)*hermE(i-1, j, t+1, qx, a, b)
	}
	return hermE(i, j-1, t-1, qx, a, b)/(2*p) +
		q*qx/b*hermE(i, j-1, t, qx, a, b) +
		float64(t+1)*hermE(i, j-1, t+1, qx, a, b)
}

// eArray returns E_t^{ij} for t = 0..i+j.
func eArray(i, j int, qx, a, b float64) []float64 {
	e := make([]float64, i+j+1)
	for t := range e {
		e[t] = hermE(i, j, t, qx, a, b)
	}
	return e
}

// hermR is the Hermite Coulomb integral R_{tuv}^n over the composite
// exponent alpha and the separation pc, with the Boys values f precomputed
// at alpha*|pc|^2:
//
//	R_{000}^n = (-2 alpha)^n F_n,
//	R_{tuv}^n = (t-1) R_{t-2,u,v}^{n+1} + pc_x R_{t-1,u,v}^{n+1}
//
// and cyclically for u, v.
func hermR(t, u, v, n int, alpha float64, pc [3]float64, f []float64) float64 {
	if t < 0 || u < 0 || v < 0 {
		return 0
	}
	if t == 0 && u == 0 && v == 0 {
		return math.Pow(-2*alpha, float64(n)) * f[n]
	}
	if t > 0 {
		return float64(t-1)*hermR(t-2, u, v, n+1, alpha, pc, f) +
			pc[0]*hermR(t-1, u, v, n+1, alpha, pc, f)
	}
	if u > 0 {
		return float64(u-1)*hermR(t, u-2, v, n+1, alpha, pc, f) +
			pc[1]*hermR(t, u-1, v, n+1, alpha, pc, f)
	}
	return float64(v-1)*hermR(t, u, v-2, n+1, alpha, pc, f) +
		pc[2]*hermR(t, u, v-1, n+1, alpha, pc, f)
}
