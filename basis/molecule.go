// molecule.go -- This file is part of the hartree project.
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
package basis

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BohrPerAngstrom converts angstrom to bohr by division.
const BohrPerAngstrom = 0.52917720859

// ErrBadGeometry reports an unparseable geometry line.
var ErrBadGeometry = fmt.Errorf("basis: bad geometry line")

type Atom struct {
	Z      int
	Name   string
	Coords [3]float64 // bohr
}

type Molecule struct {
	Atoms        []Atom
	Charge       int
	Multiplicity int
}

// ParseGeometry builds a molecule from "Symbol x y z" lines. Coordinates are
// converted to bohr when angstrom is true.
func ParseGeometry(lines []string, angstrom bool) (*Molecule, error) {
	mol := &Molecule{Multiplicity: 1}
	for i, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		if len(words) < 4 {
			return nil, fmt.Errorf("%w %d: %q", ErrBadGeometry, i+1, line)
		}
		z, err := AtomicNumber(words[0])
		if err != nil {
			return nil, err
		}
		var coords [3]float64
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(words[k+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w %d: %q: %v", ErrBadGeometry, i+1, line, err)
			}
			if angstrom {
				v /= BohrPerAngstrom
			}
			coords[k] = v
		}
		mol.Atoms = append(mol.Atoms, Atom{
			Z:      z,
			Name:   words[0] + strconv.Itoa(len(mol.Atoms)+1),
			Coords: coords,
		})
	}
	if len(mol.Atoms) == 0 {
		return nil, fmt.Errorf("%w: no atoms", ErrBadGeometry)
	}
	return mol, nil
}

// NElectrons is the total electron count after subtracting the charge.
func (m *Molecule) NElectrons() int {
	n := -m.Charge
	for _, a := range m.Atoms {
		n += a.Z
	}
	return n
}

// SpinCounts splits the electrons into alpha and beta channels according to
// the multiplicity 2S+1. The excess na-nb equals multiplicity-1.
func (m *Molecule) SpinCounts() (na, nb int, err error) {
	nelec := m.NElectrons()
	excess := m.Multiplicity - 1
	if excess < 0 || (nelec-excess)%2 != 0 || excess > nelec {
		return 0, 0, fmt.Errorf("basis: multiplicity %d incompatible with %d electrons",
			m.Multiplicity, nelec)
	}
	nb = (nelec - excess) / 2
	na = nb + excess
	return na, nb, nil
}

// NuclearRepulsion is the pairwise Z_i Z_j / r_ij sum in hartree.
func (m *Molecule) NuclearRepulsion() float64 {
	res := 0.0
	for i := range m.Atoms {
		for j := 0; j < i; j++ {
			dx := m.Atoms[i].Coords[0] - m.Atoms[j].Coords[0]
			dy := m.Atoms[i].Coords[1] - m.Atoms[j].Coords[1]
			dz := m.Atoms[i].Coords[2] - m.Atoms[j].Coords[2]
			res += float64(m.Atoms[i].Z) * float64(m.Atoms[j].Z) /
				math.Sqrt(dx*dx+dy*dy+dz*dz)
		}
	}
	return res
}
