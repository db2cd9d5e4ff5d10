// engine.go -- This file is part of the hartree project.
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

// ChargeSite is a point charge felt by the electrons: an atomic nucleus or
// an external embedding charge.
type ChargeSite struct {
	Q      float64
	Center [3]float64
}

// Engine is the integral contract the builders program against. Buffers are
// row-major over Cartesian components, index ((ia*nb+ib)*nc+ic)*nd+id for
// quartets; a nil buffer means the whole block was screened out.
type Engine interface {
	Overlap(a, b *basis.Shell) []float64
	Kinetic(a, b *basis.Shell) []float64
	Nuclear(a, b *basis.Shell, sites []ChargeSite) []float64
	Dipole(a, b *basis.Shell, origin [3]float64) (x, y, z []float64)
	Coulomb(a, b, c, d *basis.Shell) []float64

	// SetPrecision sets the primitive screening tolerance. Zero disables
	// the screen entirely; Schwarz bounds must be computed that way.
	SetPrecision(eps float64)
}

// PairEngine is the optional fast path: quartets over shell pairs whose
// primitive data was precomputed once by the screener.
type PairEngine interface {
	CoulombPair(ab, cd *ShellPair) []float64
}

// DefaultPrecision is the machine epsilon, the default primitive screening
// tolerance.
var DefaultPrecision = math.Nextafter(1, 2) - 1

// GaussianEngine is the native Engine over contracted Cartesian Gaussians.
// The zero value screens nothing; NewGaussian starts at DefaultPrecision.
// Safe for concurrent use once the precision is set.
type GaussianEngine struct {
	lnCut float64
}

// NewGaussian returns an engine with the default primitive screening.
func NewGaussian() *GaussianEngine {
	g := &GaussianEngine{}
	g.SetPrecision(DefaultPrecision)
	return g
}

// SetPrecision implements Engine.
func (g *GaussianEngine) SetPrecision(eps float64) {
	g.lnCut = PrecisionCut(eps)
}

// compNorm is the ratio between the (lx,ly,lz) component normalization and
// the (L,0,0) normalization already folded into the contraction
// coefficients.
func compNorm(lx, ly, lz int) float64 {
	return math.Sqrt(oddFact2(lx+ly+lz) / (oddFact2(lx) * oddFact2(ly) * oddFact2(lz)))
}

func oddFact2(n int) float64 {
	r := 1.0
	for k := 2*n - 1; k > 1; k -= 2 {
		r *= float64(k)
	}
	return r
}

// Overlap implements Engine.
func (g *GaussianEngine) Overlap(a, b *basis.Shell) []float64 {
	sp := NewShellPair(a, b, g.lnCut)
	if len(sp.Prims) == 0 {
		return nil
	}
	ca, cb := basis.CartComponents(a.L), basis.CartComponents(b.L)
	nb := b.Size()
	ab := sub3(a.Center, b.Center)
	out := make([]float64, a.Size()*nb)
	for ia, c1 := range ca {
		for ib, c2 := range cb {
			sum := 0.0
			for _, pp := range sp.Prims {
				sum += pp.C * math.Pow(math.Pi/pp.Alpha, 1.5) *
					hermE(c1[0], c2[0], 0, ab[0], pp.A, pp.B) *
					hermE(c1[1], c2[1], 0, ab[1], pp.A, pp.B) *
					hermE(c1[2], c2[2], 0, ab[2], pp.A, pp.B)
			}
			out[ia*nb+ib] = compNorm(c1[0], c1[1], c1[2]) * compNorm(c2[0], c2[1], c2[2]) * sum
		}
	}
	return out
}

// Kinetic implements Engine. The kinetic integral decomposes into overlaps
// with the bra fixed and the ket angular momentum shifted by 0, +2, -2 in
// each dimension.
func (g *GaussianEngine) Kinetic(a, b *basis.Shell) []float64 {
	sp := NewShellPair(a, b, g.lnCut)
	if len(sp.Prims) == 0 {
		return nil
	}
	ca, cb := basis.CartComponents(a.L), basis.CartComponents(b.L)
	nb := b.Size()
	ab := sub3(a.Center, b.Center)
	out := make([]float64, a.Size()*nb)
	for ia, c1 := range ca {
		for ib, c2 := range cb {
			sum := 0.0
			for _, pp := range sp.Prims {
				sum += pp.C * math.Pow(math.Pi/pp.Alpha, 1.5) * primKinetic(c1, c2, ab, pp.A, pp.B)
			}
			out[ia*nb+ib] = compNorm(c1[0], c1[1], c1[2]) * compNorm(c2[0], c2[1], c2[2]) * sum
		}
	}
	return out
}

func primKinetic(c1, c2 [3]int, ab [3]float64, a, b float64) float64 {
	l2, m2, n2 := c2[0], c2[1], c2[2]
	sx := hermE(c1[0], l2, 0, ab[0], a, b)
	sy := hermE(c1[1], m2, 0, ab[1], a, b)
	sz := hermE(c1[2], n2, 0, ab[2], a, b)
	t := b * float64(2*(l2+m2+n2)+3) * sx * sy * sz
	t -= 2 * b * b * (hermE(c1[0], l2+2, 0, ab[0], a, b)*sy*sz +
		sx*hermE(c1[1], m2+2, 0, ab[1], a, b)*sz +
		sx*sy*hermE(c1[2], n2+2, 0, ab[2], a, b))
	t -= 0.5 * (float64(l2*(l2-1))*hermE(c1[0], l2-2, 0, ab[0], a, b)*sy*sz +
		float64(m2*(m2-1))*sx*hermE(c1[1], m2-2, 0, ab[1], a, b)*sz +
		float64(n2*(n2-1))*sx*sy*hermE(c1[2], n2-2, 0, ab[2], a, b))
	return t
}

// Nuclear implements Engine: the Coulomb field of the given point charges,
// attractive for positive Q.
func (g *GaussianEngine) Nuclear(a, b *basis.Shell, sites []ChargeSite) []float64 {
	sp := NewShellPair(a, b, g.lnCut)
	if len(sp.Prims) == 0 {
		return nil
	}
	ca, cb := basis.CartComponents(a.L), basis.CartComponents(b.L)
	nb := b.Size()
	ab := sub3(a.Center, b.Center)
	out := make([]float64, a.Size()*nb)
	for ia, c1 := range ca {
		for ib, c2 := range cb {
			nmax := c1[0] + c1[1] + c1[2] + c2[0] + c2[1] + c2[2]
			sum := 0.0
			for _, pp := range sp.Prims {
				ex := eArray(c1[0], c2[0], ab[0], pp.A, pp.B)
				ey := eArray(c1[1], c2[1], ab[1], pp.A, pp.B)
				ez := eArray(c1[2], c2[2], ab[2], pp.A, pp.B)
				for _, site := range sites {
					pc := sub3(pp.P, site.Center)
					f := boysArray(nmax, pp.Alpha*dot3(pc, pc))
					s := 0.0
					for t := range ex {
						for u := range ey {
							for v := range ez {
								s += ex[t] * ey[u] * ez[v] * hermR(t, u, v, 0, pp.Alpha, pc, f)
							}
						}
					}
					sum -= site.Q * pp.C * 2 * math.Pi / pp.Alpha * s
				}
			}
			out[ia*nb+ib] = compNorm(c1[0], c1[1], c1[2]) * compNorm(c2[0], c2[1], c2[2]) * sum
		}
	}
	return out
}

// Dipole implements Engine: the three Cartesian moment blocks about origin.
// The 1D moment is E_1 + (P-O) E_0 in the moment dimension.
func (g *GaussianEngine) Dipole(a, b *basis.Shell, origin [3]float64) (x, y, z []float64) {
	sp := NewShellPair(a, b, g.lnCut)
	if len(sp.Prims) == 0 {
		return nil, nil, nil
	}
	ca, cb := basis.CartComponents(a.L), basis.CartComponents(b.L)
	nb := b.Size()
	ab := sub3(a.Center, b.Center)
	x = make([]float64, a.Size()*nb)
	y = make([]float64, a.Size()*nb)
	z = make([]float64, a.Size()*nb)
	for ia, c1 := range ca {
		for ib, c2 := range cb {
			norm := compNorm(c1[0], c1[1], c1[2]) * compNorm(c2[0], c2[1], c2[2])
			var mx, my, mz float64
			for _, pp := range sp.Prims {
				w := pp.C * math.Pow(math.Pi/pp.Alpha, 1.5)
				sx := hermE(c1[0], c2[0], 0, ab[0], pp.A, pp.B)
				sy := hermE(c1[1], c2[1], 0, ab[1], pp.A, pp.B)
				sz := hermE(c1[2], c2[2], 0, ab[2], pp.A, pp.B)
				mx += w * (hermE(c1[0], c2[0], 1, ab[0], pp.A, pp.B) + (pp.P[0]-origin[0])*sx) * sy * sz
				my += w * sx * (hermE(c1[1], c2[1], 1, ab[1], pp.A, pp.B) + (pp.P[1]-origin[1])*sy) * sz
				mz += w * sx * sy * (hermE(c1[2], c2[2], 1, ab[2], pp.A, pp.B) + (pp.P[2]-origin[2])*sz)
			}
			x[ia*nb+ib] = norm * mx
			y[ia*nb+ib] = norm * my
			z[ia*nb+ib] = norm * mz
		}
	}
	return x, y, z
}
