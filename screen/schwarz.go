// schwarz.go -- This file is part of the hartree project.
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
package screen

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/integral"
)

// BuildSchwarz returns the shell-pair bound matrix
// K(s1,s2) = sqrt(max |(s1 s2|s1 s2)|). The engine runs unscreened here
// and is left at precision zero; callers set their working precision
// afterwards. Rows run as parallel tasks.
func BuildSchwarz(ctx context.Context, bs *basis.Set, eng integral.Engine) (*mat.SymDense, error) {
	eng.SetPrecision(0)
	n := bs.NShells()
	k := mat.NewSymDense(n, nil)
	g, ctx := errgroup.WithContext(ctx)
	for s1 := 0; s1 < n; s1++ {
		s1 := s1
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sh1 := &bs.Shells[s1]
			for s2 := 0; s2 <= s1; s2++ {
				sh2 := &bs.Shells[s2]
				buf := eng.Coulomb(sh1, sh2, sh1, sh2)
				if buf == nil {
					continue
				}
				k.SetSym(s1, s2, math.Sqrt(floats.Norm(buf, math.Inf(1))))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return k, nil
}

// ShellBlockNorms returns the nshell x nshell infinity norms of the density
// shell blocks, the density factor of the Fock screening bound.
func ShellBlockNorms(bs *basis.Set, d *mat.Dense) *mat.Dense {
	n := bs.NShells()
	norms := mat.NewDense(n, n, nil)
	for s1 := 0; s1 < n; s1++ {
		o1 := bs.Offset(s1)
		n1 := bs.Shells[s1].Size()
		for s2 := 0; s2 < n; s2++ {
			o2 := bs.Offset(s2)
			n2 := bs.Shells[s2].Size()
			m := 0.0
			for i := 0; i < n1; i++ {
				row := d.RawRowView(o1 + i)[o2 : o2+n2]
				m = math.Max(m, floats.Norm(row, math.Inf(1)))
			}
			norms.Set(s1, s2, m)
		}
	}
	return norms
}
