// core.go -- This file is part of the hartree project.
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

package guess

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/density"
	"github.com/qcgo/hartree/linalg"
)

// Core seeds both spin channels from the bare core Hamiltonian: h is
// diagonalized once through the orthogonalizer x and the lowest orbitals
// are filled with nAlpha and nBeta electrons.
func Core(ctx context.Context, be linalg.Backend, h, x *mat.Dense, nAlpha, nBeta int) (*Result, error) {
	if be == nil {
		be = linalg.DenseLocal{}
	}
	_, c, err := be.TransformedEigh(ctx, h, x)
	if err != nil {
		return nil, err
	}
	return &Result{
		Alpha: density.Build(c, nAlpha, 1),
		Beta:  density.Build(c, nBeta, 1),
	}, nil
}
