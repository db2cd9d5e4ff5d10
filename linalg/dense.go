// dense.go -- This file is part of the hartree project.
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

	"gonum.org/v1/gonum/mat"
)

// DenseLocal solves every eigenproblem in the calling goroutine.
type DenseLocal struct{}

// Name implements Backend.
func (DenseLocal) Name() string { return "dense" }

// Eigh implements Backend.
func (DenseLocal) Eigh(ctx context.Context, a *mat.SymDense) ([]float64, *mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return eigKernel(a)
}

// TransformedEigh implements Backend.
func (DenseLocal) TransformedEigh(ctx context.Context, f, x *mat.Dense) ([]float64, *mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	n, r := x.Dims()
	xtf := mat.NewDense(r, n, nil)
	xtf.Mul(x.T(), f)
	fp := mat.NewDense(r, r, nil)
	fp.Mul(xtf, x)

	w, v, err := eigKernel(Symmetrize(fp))
	if err != nil {
		return nil, nil, err
	}
	c := mat.NewDense(n, r, nil)
	c.Mul(x, v)
	return w, c, nil
}
