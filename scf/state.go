// state.go -- This file is part of the hartree project.
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

// State names one phase of the SCF cycle. The driver advances through
// the phases in order and loops back to StateBuildFock until either
// terminal state is reached.
type State int

const (
	StateInitializing State = iota
	StateBuildFock
	StateDiagonalize
	StateBuildDensity
	StateCheckConvergence
	StateConverged
	StateMaxIterExceeded
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateBuildFock:
		return "build_fock"
	case StateDiagonalize:
		return "diagonalize"
	case StateBuildDensity:
		return "build_density"
	case StateCheckConvergence:
		return "check_convergence"
	case StateConverged:
		return "converged"
	case StateMaxIterExceeded:
		return "max_iter_exceeded"
	}
	return "unknown"
}

// terminal reports whether the cycle stops in this state.
func (s State) terminal() bool {
	return s == StateConverged || s == StateMaxIterExceeded
}

// Iteration is one line of the convergence history.
type Iteration struct {
	N      int     // 1-based iteration count
	Energy float64 // total energy, electronic plus nuclear repulsion
	DeltaE float64 // change against the previous iteration
	DRMS   float64 // RMS of the orthonormal-basis DIIS residual
	Gap    float64 // orbital gap after this iteration's diagonalization
	Shift  float64 // level shift in effect during the iteration
}
