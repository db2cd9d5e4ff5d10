// ortho.go -- This file is part of the hartree project.
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

// Package ortho builds the canonical orthogonalizer X from the overlap
// matrix, deflating near-linear-dependent combinations, so that
// X^T S X = I on the retained rank.
package ortho

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/linalg"
)

// ErrBasisDegenerate reports an overlap matrix with no retainable
// eigenvalues: the basis is numerically degenerate and the run cannot
// proceed.
var ErrBasisDegenerate = errors.New("ortho: basis numerically degenerate")

// DefaultCondLimit is the largest condition number admitted before
// eigenvalues are deflated.
const DefaultCondLimit = 1e5

// Result is the orthogonalizer and its diagnostics.
type Result struct {
	X        *mat.Dense // nbf x rank, columns scaled by 1/sqrt(lambda)
	Rank     int
	NDropped int
	CondS    float64 // eigenvalue ratio of S as given
	CondX    float64 // eigenvalue ratio over the retained subspace
}

// Builder computes orthogonalizers through a linalg backend.
type Builder struct {
	Backend   linalg.Backend // nil means linalg.DenseLocal
	CondLimit float64        // 0 means DefaultCondLimit
	Logger    *zap.Logger    // nil means zap.NewNop()
}

func (b *Builder) backend() linalg.Backend {
	if b.Backend != nil {
		return b.Backend
	}
	return linalg.DenseLocal{}
}

func (b *Builder) condLimit() float64 {
	if b.CondLimit > 0 {
		return b.CondLimit
	}
	return DefaultCondLimit
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return zap.NewNop()
}

// Build eigendecomposes S, drops eigenvalues below lambda_max/CondLimit and
// returns X = V_kept diag(lambda_kept^{-1/2}).
func (b *Builder) Build(ctx context.Context, s *mat.SymDense) (*Result, error) {
	w, v, err := b.backend().Eigh(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("ortho: overlap eigendecomposition: %w", err)
	}
	n := len(w)
	lmax := w[n-1]
	floor := lmax / b.condLimit()

	first := n
	for i, l := range w {
		if l >= floor {
			first = i
			break
		}
	}
	rank := n - first
	if rank == 0 {
		return nil, fmt.Errorf("%w: all %d overlap eigenvalues below %g", ErrBasisDegenerate, n, floor)
	}

	condS := math.Inf(1)
	if w[0] > 0 {
		condS = lmax / w[0]
	}
	res := &Result{
		Rank:     rank,
		NDropped: first,
		CondS:    condS,
		CondX:    lmax / w[first],
	}

	inv := make([]float64, rank)
	for k := range inv {
		inv[k] = 1 / math.Sqrt(w[first+k])
	}
	res.X = mat.NewDense(n, rank, nil)
	res.X.Mul(v.Slice(0, n, first, n), mat.NewDiagDense(rank, inv))

	b.logger().Info("orthogonalizer",
		zap.Int("nbf", n),
		zap.Int("rank", rank),
		zap.Int("dropped", first),
		zap.Float64("cond_s", res.CondS),
		zap.Float64("cond_x", res.CondX),
	)
	return res, nil
}
