// diag.go -- This file is part of the hartree project.
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

// Package diag solves the Fock eigenproblem in the orthonormal basis and
// back-transforms the orbitals, fixing column phases so coefficients are
// reproducible across backends.
package diag

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/linalg"
)

// DefaultGapFloor is the HOMO-LUMO gap below which the driver engages the
// level shift.
const DefaultGapFloor = 1e-2

// Result of one Fock diagonalization.
type Result struct {
	Energies []float64  // orbital energies, ascending
	C        *mat.Dense // nbf x rank coefficients, phase-fixed
	Gap      float64    // LUMO-HOMO gap less the applied shift; +Inf off the edge
}

// Solver diagonalizes effective Fock matrices through a linalg backend.
type Solver struct {
	Backend linalg.Backend // nil means linalg.DenseLocal
}

func (s *Solver) backend() linalg.Backend {
	if s.Backend != nil {
		return s.Backend
	}
	return linalg.DenseLocal{}
}

// Solve diagonalizes X^T f X and returns orbital energies, phase-fixed
// coefficients C = X V, and the gap corrected for the level shift already
// folded into f by the caller.
func (s *Solver) Solve(ctx context.Context, f, x *mat.Dense, nocc int, shift float64) (*Result, error) {
	w, c, err := s.backend().TransformedEigh(ctx, f, x)
	if err != nil {
		return nil, err
	}
	fixPhases(c)
	return &Result{Energies: w, C: c, Gap: gap(w, nocc, shift)}, nil
}

// fixPhases negates any column whose largest-magnitude element is
// negative, pinning the arbitrary eigenvector sign.
func fixPhases(c *mat.Dense) {
	n, r := c.Dims()
	for k := 0; k < r; k++ {
		maxv := math.Inf(-1)
		maxabs := 0.0
		for i := 0; i < n; i++ {
			v := c.At(i, k)
			maxv = math.Max(maxv, v)
			maxabs = math.Max(maxabs, math.Abs(v))
		}
		if maxv != maxabs {
			for i := 0; i < n; i++ {
				c.Set(i, k, -c.At(i, k))
			}
		}
	}
}

func gap(w []float64, nocc int, shift float64) float64 {
	if nocc <= 0 || nocc >= len(w) {
		return math.Inf(1)
	}
	return w[nocc] - w[nocc-1] - shift
}
