// blockcyclic.go -- This file is part of the hartree project.
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
package linalg

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// BlockCyclic distributes matrix rows over ranks in cyclic blocks and runs
// the transform products panel-parallel. The eigensolve kernel itself runs
// on the gathered matrix, as the root rank of a distributed solver would,
// and eigenvectors are scattered back block by block.
type BlockCyclic struct {
	Ranks int // worker count; 0 means GOMAXPROCS
	Block int // row-block size; 0 means 64
}

// Name implements Backend.
func (b *BlockCyclic) Name() string { return "blockcyclic" }

func (b *BlockCyclic) nranks() int {
	if b.Ranks > 0 {
		return b.Ranks
	}
	return runtime.GOMAXPROCS(0)
}

func (b *BlockCyclic) nblock() int {
	if b.Block > 0 {
		return b.Block
	}
	return 64
}

// ownRows lists the [lo,hi) row ranges of rank r under the cyclic block
// layout: block k lives on rank k mod nranks.
func (b *BlockCyclic) ownRows(r, n int) [][2]int {
	nb, p := b.nblock(), b.nranks()
	var rs [][2]int
	for blk := r; blk*nb < n; blk += p {
		lo := blk * nb
		rs = append(rs, [2]int{lo, min(lo+nb, n)})
	}
	return rs
}

// forEachPanel runs fn over every rank's row ranges of an n-row matrix,
// one goroutine per rank. Ranges are disjoint, so panels may write their
// rows of a shared destination without coordination.
func (b *BlockCyclic) forEachPanel(ctx context.Context, n int, fn func(lo, hi int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for r := 0; r < b.nranks(); r++ {
		rows := b.ownRows(r, n)
		g.Go(func() error {
			for _, rg := range rows {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(rg[0], rg[1]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Eigh implements Backend. The matrix is scattered into per-rank panels,
// gathered for the kernel, and the eigenvector rows scattered back.
func (b *BlockCyclic) Eigh(ctx context.Context, a *mat.SymDense) ([]float64, *mat.Dense, error) {
	n := a.SymmetricDim()
	local := mat.NewDense(n, n, nil)
	if err := b.forEachPanel(ctx, n, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				local.Set(i, j, a.At(i, j))
			}
		}
		return nil
	}); err != nil {
		return nil, nil, err
	}

	w, vfull, err := eigKernel(Symmetrize(local))
	if err != nil {
		return nil, nil, err
	}

	v := mat.NewDense(n, n, nil)
	if err := b.forEachPanel(ctx, n, func(lo, hi int) error {
		v.Slice(lo, hi, 0, n).(*mat.Dense).Copy(vfull.Slice(lo, hi, 0, n))
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return w, v, nil
}

// TransformedEigh implements Backend. Both transform products run
// panel-parallel: rows of X^T F over the rank dimension, then rows of the
// back-transform C = X V over the AO dimension.
func (b *BlockCyclic) TransformedEigh(ctx context.Context, f, x *mat.Dense) ([]float64, *mat.Dense, error) {
	n, r := x.Dims()

	xtf := mat.NewDense(r, n, nil)
	if err := b.forEachPanel(ctx, r, func(lo, hi int) error {
		xtf.Slice(lo, hi, 0, n).(*mat.Dense).Mul(x.Slice(0, n, lo, hi).T(), f)
		return nil
	}); err != nil {
		return nil, nil, err
	}

	fp := mat.NewDense(r, r, nil)
	if err := b.forEachPanel(ctx, r, func(lo, hi int) error {
		fp.Slice(lo, hi, 0, r).(*mat.Dense).Mul(xtf.Slice(lo, hi, 0, n), x)
		return nil
	}); err != nil {
		return nil, nil, err
	}

	w, v, err := eigKernel(Symmetrize(fp))
	if err != nil {
		return nil, nil, err
	}

	c := mat.NewDense(n, r, nil)
	if err := b.forEachPanel(ctx, n, func(lo, hi int) error {
		c.Slice(lo, hi, 0, r).(*mat.Dense).Mul(x.Slice(lo, hi, 0, r), v)
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return w, c, nil
}
