// output.go -- This file is part of the hartree project.
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

package scf

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/density"
)

// Mulliken assigns gross electron populations to atoms by tracing D*S
// over each atom's contiguous AO block. Charges are the (effective)
// nuclear charge less the population.
func Mulliken(mol *basis.Molecule, bs *basis.Set, dTot, s *mat.Dense) (pops, charges []float64) {
	n, _ := dTot.Dims()
	ds := mat.NewDense(n, n, nil)
	ds.Mul(dTot, s)

	pops = make([]float64, len(mol.Atoms))
	charges = make([]float64, len(mol.Atoms))
	for ia, at := range mol.Atoms {
		off, size := bs.AtomBlock(ia)
		for i := off; i < off+size; i++ {
			pops[ia] += ds.At(i, i)
		}
		charges[ia] = float64(at.Z) - pops[ia]
	}
	return pops, charges
}

// DipoleMoment is the electric dipole in atomic units about the
// integral origin: nuclear point charges minus the density-traced
// dipole matrices.
func DipoleMoment(mol *basis.Molecule, dTot, dx, dy, dz *mat.Dense) [3]float64 {
	var mu [3]float64
	for _, at := range mol.Atoms {
		for k := 0; k < 3; k++ {
			mu[k] += float64(at.Z) * at.Coords[k]
		}
	}
	mu[0] -= density.TraceProduct(dTot, dx)
	mu[1] -= density.TraceProduct(dTot, dy)
	mu[2] -= density.TraceProduct(dTot, dz)
	return mu
}

// FormatMatrix renders a dense block the way the run summaries do.
func FormatMatrix(m mat.Matrix) string {
	return fmt.Sprintf("    %.8f", mat.Formatted(m, mat.Prefix("    "), mat.Squeeze()))
}

// WriteSummary prints a human-readable account of the finished run.
func (r *Result) WriteSummary(w io.Writer) {
	status := "converged"
	if !r.Converged {
		status = "NOT converged"
	}
	fmt.Fprintf(w, "SCF %s in %d iterations\n\n", status, r.Iterations)
	fmt.Fprintf(w, "  %-22s %20.10f\n", "total energy", r.Energy)
	fmt.Fprintf(w, "  %-22s %20.10f\n", "electronic energy", r.Electronic)
	fmt.Fprintf(w, "  %-22s %20.10f\n", "one-electron energy", r.OneElectron)
	fmt.Fprintf(w, "  %-22s %20.10f\n", "two-electron energy", r.TwoElectron)
	fmt.Fprintf(w, "  %-22s %20.10f\n", "nuclear repulsion", r.Nuclear)
	fmt.Fprintf(w, "  %-22s %20.10f\n", "orbital gap", r.Gap)

	fmt.Fprintf(w, "\n  %4s %20s %12s %12s %10s %7s\n",
		"iter", "energy", "delta_e", "drms", "gap", "shift")
	for _, it := range r.History {
		fmt.Fprintf(w, "  %4d %20.10f %12.3e %12.3e %10.4f %7.3f\n",
			it.N, it.Energy, it.DeltaE, it.DRMS, it.Gap, it.Shift)
	}

	fmt.Fprintf(w, "\n  orbital energies (hartree)\n")
	for i, e := range r.Energies {
		if r.EnergiesBeta != nil {
			fmt.Fprintf(w, "  %4d %14.6f %14.6f\n", i+1, e, r.EnergiesBeta[i])
			continue
		}
		fmt.Fprintf(w, "  %4d %14.6f\n", i+1, e)
	}

	fmt.Fprintf(w, "\n  mulliken analysis\n")
	fmt.Fprintf(w, "  %4s %12s %12s\n", "atom", "population", "charge")
	for ia := range r.Populations {
		fmt.Fprintf(w, "  %4d %12.6f %12.6f\n", ia+1, r.Populations[ia], r.Charges[ia])
	}

	mu := r.Dipole
	fmt.Fprintf(w, "\n  dipole moment (a.u.) %10.6f %10.6f %10.6f   norm %10.6f\n",
		mu[0], mu[1], mu[2], floats.Norm(mu[:], 2))
}
