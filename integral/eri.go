// eri.go -- This file is part of the hartree project.
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

// Coulomb implements Engine: the (ab|cd) quartet block in chemists'
// notation.
func (g *GaussianEngine) Coulomb(a, b, c, d *basis.Shell) []float64 {
	return g.CoulombPair(NewShellPair(a, b, g.lnCut), NewShellPair(c, d, g.lnCut))
}

// CoulombPair implements PairEngine: the quartet block over precomputed
// shell pairs. The two Hermite charge distributions are contracted through
// R with the ket side alternating sign:
//
//	(ab|cd) = 2 pi^{5/2} / (p q sqrt(p+q)) sum_tuv sum_TUV
//	          E_tuv^{ab} E_TUV^{cd} (-1)^{T+U+V} R_{t+T,u+U,v+V}(pq/(p+q), P-Q)
func (g *GaussianEngine) CoulombPair(ab, cd *ShellPair) []float64 {
	if len(ab.Prims) == 0 || len(cd.Prims) == 0 {
		return nil
	}
	a, b, c, d := ab.A, ab.B, cd.A, cd.B
	ca, cb := basis.CartComponents(a.L), basis.CartComponents(b.L)
	cc, cd4 := basis.CartComponents(c.L), basis.CartComponents(d.L)
	out := make([]float64, a.Size()*b.Size()*c.Size()*d.Size())
	abv := sub3(a.Center, b.Center)
	cdv := sub3(c.Center, d.Center)
	lsum := a.L + b.L + c.L + d.L
	for _, p1 := range ab.Prims {
		for _, p2 := range cd.Prims {
			alpha := p1.Alpha * p2.Alpha / (p1.Alpha + p2.Alpha)
			pq := sub3(p1.P, p2.P)
			f := boysArray(lsum, alpha*dot3(pq, pq))
			pref := 2 * math.Pow(math.Pi, 2.5) /
				(p1.Alpha * p2.Alpha * math.Sqrt(p1.Alpha+p2.Alpha)) * p1.C * p2.C
			idx := 0
			for _, c1 := range ca {
				n1 := compNorm(c1[0], c1[1], c1[2])
				for _, c2 := range cb {
					n12 := n1 * compNorm(c2[0], c2[1], c2[2])
					e1x := eArray(c1[0], c2[0], abv[0], p1.A, p1.B)
					e1y := eArray(c1[1], c2[1], abv[1], p1.A, p1.B)
					e1z := eArray(c1[2], c2[2], abv[2], p1.A, p1.B)
					for _, c3 := range cc {
						n123 := n12 * compNorm(c3[0], c3[1], c3[2])
						for _, c4 := range cd4 {
							norm := n123 * compNorm(c4[0], c4[1], c4[2])
							e2x := eArray(c3[0], c4[0], cdv[0], p2.A, p2.B)
							e2y := eArray(c3[1], c4[1], cdv[1], p2.A, p2.B)
							e2z := eArray(c3[2], c4[2], cdv[2], p2.A, p2.B)
							s := 0.0
							for t := range e1x {
								for u := range e1y {
									for v := range e1z {
										w1 := e1x[t] * e1y[u] * e1z[v]
										for tt := range e2x {
											for uu := range e2y {
												for vv := range e2z {
													w2 := e2x[tt] * e2y[uu] * e2z[vv]
													if (tt+uu+vv)&1 == 1 {
														w2 = -w2
													}
													s += w1 * w2 * hermR(t+tt, u+uu, v+vv, 0, alpha, pq, f)
												}
											}
										}
									}
								}
							}
							out[idx] += pref * norm * s
							idx++
						}
					}
				}
			}
		}
	}
	return out
}
