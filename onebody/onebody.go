// onebody.go -- This file is part of the hartree project.
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

// Package onebody fills the one-electron AO matrices: overlap, kinetic,
// nuclear attraction, dipole moments and the assembled core Hamiltonian.
// Tile pairs run as parallel tasks writing disjoint blocks, so no merge
// step is needed.
package onebody

import (
	"context"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/integral"
	"github.com/qcgo/hartree/screen"
)

// Builder fills one-electron matrices over a tiled basis. A nil Pairs list
// disables shell-pair screening and every block is computed.
type Builder struct {
	Basis  *basis.Set
	Tiles  *basis.TiledSpace
	Engine integral.Engine
	Pairs  screen.PairList
}

// NuclearSites renders the molecule's nuclei as engine point charges,
// extended by any external embedding charges.
func NuclearSites(mol *basis.Molecule, extra ...integral.ChargeSite) []integral.ChargeSite {
	sites := make([]integral.ChargeSite, 0, len(mol.Atoms)+len(extra))
	for _, a := range mol.Atoms {
		sites = append(sites, integral.ChargeSite{Q: float64(a.Z), Center: a.Coords})
	}
	return append(sites, extra...)
}

// blockFn computes the buffers of one shell pair; nil entries are screened
// blocks and leave the matrices untouched.
type blockFn func(sh1, sh2 *basis.Shell) [][]float64

// fill drives count symmetric matrices through op, one task per tile pair
// of the lower triangle. Each task owns its block and its mirror, so
// writes are disjoint across tasks.
func (b *Builder) fill(ctx context.Context, count int, op blockFn) ([]*mat.Dense, error) {
	n := b.Basis.NBasis()
	out := make([]*mat.Dense, count)
	for i := range out {
		out[i] = mat.NewDense(n, n, nil)
	}
	g, ctx := errgroup.WithContext(ctx)
	tiles := b.Tiles.Tiles
	for i1 := range tiles {
		for i2 := 0; i2 <= i1; i2++ {
			t1, t2 := tiles[i1], tiles[i2]
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				b.fillTilePair(t1, t2, out, op)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Builder) fillTilePair(t1, t2 basis.Tile, out []*mat.Dense, op blockFn) {
	for s1 := t1.ShellLo; s1 < t1.ShellHi; s1++ {
		sh1 := &b.Basis.Shells[s1]
		o1, n1 := b.Basis.Offset(s1), sh1.Size()
		hi := min(t2.ShellHi, s1+1)
		for s2 := t2.ShellLo; s2 < hi; s2++ {
			if b.Pairs != nil && !b.Pairs.Contains(s1, s2) {
				continue
			}
			sh2 := &b.Basis.Shells[s2]
			o2, n2 := b.Basis.Offset(s2), sh2.Size()
			bufs := op(sh1, sh2)
			for k, buf := range bufs {
				if buf == nil {
					continue
				}
				for i := 0; i < n1; i++ {
					for j := 0; j < n2; j++ {
						v := buf[i*n2+j]
						out[k].Set(o1+i, o2+j, v)
						if s1 != s2 {
							out[k].Set(o2+j, o1+i, v)
						}
					}
				}
			}
		}
	}
}

// Overlap fills S.
func (b *Builder) Overlap(ctx context.Context) (*mat.Dense, error) {
	ms, err := b.fill(ctx, 1, func(sh1, sh2 *basis.Shell) [][]float64 {
		return [][]float64{b.Engine.Overlap(sh1, sh2)}
	})
	if err != nil {
		return nil, err
	}
	return ms[0], nil
}

// Kinetic fills T.
func (b *Builder) Kinetic(ctx context.Context) (*mat.Dense, error) {
	ms, err := b.fill(ctx, 1, func(sh1, sh2 *basis.Shell) [][]float64 {
		return [][]float64{b.Engine.Kinetic(sh1, sh2)}
	})
	if err != nil {
		return nil, err
	}
	return ms[0], nil
}

// Nuclear fills V for the given charge sites.
func (b *Builder) Nuclear(ctx context.Context, sites []integral.ChargeSite) (*mat.Dense, error) {
	ms, err := b.fill(ctx, 1, func(sh1, sh2 *basis.Shell) [][]float64 {
		return [][]float64{b.Engine.Nuclear(sh1, sh2, sites)}
	})
	if err != nil {
		return nil, err
	}
	return ms[0], nil
}

// Dipole fills the three Cartesian moment matrices about origin.
func (b *Builder) Dipole(ctx context.Context, origin [3]float64) (x, y, z *mat.Dense, err error) {
	ms, err := b.fill(ctx, 3, func(sh1, sh2 *basis.Shell) [][]float64 {
		bx, by, bz := b.Engine.Dipole(sh1, sh2, origin)
		return [][]float64{bx, by, bz}
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return ms[0], ms[1], ms[2], nil
}

// CoreMatrices bundles the one-electron matrices of a run.
type CoreMatrices struct {
	S *mat.Dense
	T *mat.Dense
	V *mat.Dense
	H *mat.Dense // T + V, plus the external ECP matrix when supplied
}

// CoreHamiltonian assembles H = T + V(sites), adding ecp when non-nil.
// ECP integrals themselves are outside the native engine; the matrix
// arrives from the caller.
func (b *Builder) CoreHamiltonian(ctx context.Context, sites []integral.ChargeSite, ecp *mat.Dense) (*CoreMatrices, error) {
	s, err := b.Overlap(ctx)
	if err != nil {
		return nil, err
	}
	t, err := b.Kinetic(ctx)
	if err != nil {
		return nil, err
	}
	v, err := b.Nuclear(ctx, sites)
	if err != nil {
		return nil, err
	}
	n := b.Basis.NBasis()
	h := mat.NewDense(n, n, nil)
	h.Add(t, v)
	if ecp != nil {
		h.Add(h, ecp)
	}
	return &CoreMatrices{S: s, T: t, V: v, H: h}, nil
}
