// backend.go -- This file is part of the hartree project.
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
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEigenFailed reports a symmetric eigendecomposition that did not
	// converge.
	ErrEigenFailed = errors.New("linalg: eigendecomposition failed")

	// ErrUnknownBackend reports a backend name outside dense|blockcyclic.
	ErrUnknownBackend = errors.New("linalg: unknown backend")
)

// Backend solves the symmetric eigenproblems of the SCF loop. Eigenvalues
// come back ascending; eigenvectors are the matching columns.
type Backend interface {
	// Eigh solves A V = V diag(w).
	Eigh(ctx context.Context, a *mat.SymDense) (w []float64, v *mat.Dense, err error)

	// TransformedEigh solves the projected problem (X^T F X) V = V diag(w)
	// and returns C = X V, the eigenvectors back in the original basis.
	// F is nbf x nbf, X is nbf x rank, C is nbf x rank.
	TransformedEigh(ctx context.Context, f, x *mat.Dense) (w []float64, c *mat.Dense, err error)

	Name() string
}

// New maps a configured backend name to its implementation. workers and
// block apply to the block-cyclic backend only; zero means default.
func New(name string, workers, block int) (Backend, error) {
	switch name {
	case "", "dense":
		return DenseLocal{}, nil
	case "blockcyclic":
		return &BlockCyclic{Ranks: workers, Block: block}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Symmetrize folds the numerical asymmetry of a matrix product into a
// SymDense, averaging a with its transpose.
func Symmetrize(a *mat.Dense) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}

// eigKernel is the shared serial kernel both backends end in.
func eigKernel(a *mat.SymDense) ([]float64, *mat.Dense, error) {
	var es mat.EigenSym
	if !es.Factorize(a, true) {
		return nil, nil, ErrEigenFailed
	}
	n := a.SymmetricDim()
	v := mat.NewDense(n, n, nil)
	es.VectorsTo(v)
	return es.Values(nil), v, nil
}
