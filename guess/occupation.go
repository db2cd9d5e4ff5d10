// occupation.go -- This file is part of the hartree project.
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
	"errors"
	"fmt"
	"math"
)

// ErrBadECP reports a core-potential electron count with no known
// subshell removal sequence.
var ErrBadECP = errors.New("guess: unsupported ECP core count")

// aufbau tracks the remaining electron pool while subshells fill in the
// periodic-table order.
type aufbau struct {
	occ [4]float64
	ne  int
}

// fill smears up to 2*norb electrons from the pool into a subshell of
// angular momentum l.
func (a *aufbau) fill(l, norb int) {
	n := 2 * norb
	if a.ne < n {
		n = a.ne
	}
	a.ne -= n
	a.occ[l] += float64(n)
}

// place moves exactly n electrons into the l channel.
func (a *aufbau) place(l, n int) {
	a.ne -= n
	a.occ[l] += float64(n)
}

// Occupation returns the electrons of the neutral atom with atomic
// number z summed into the four angular momentum channels s, p, d and f.
// Subshells fill in the periodic-table order with the NIST ground-state
// exceptions: a single s electron in K, Cr, Cu, Rb, Nb, Mo, Ru, Rh, Ag,
// Cs, Pt and Au, an empty 5s in Pd, and the displaced d electrons at the
// start of the lanthanide and actinide rows.
func Occupation(z int) [4]float64 {
	a := aufbau{ne: z}
	a.fill(0, 1) // 1s
	if z > 2 {
		a.fill(0, 1) // 2s
		a.fill(1, 3) // 2p
	}
	if z > 10 {
		a.fill(0, 1) // 3s
		a.fill(1, 3) // 3p
	}
	if z > 18 { // K .. Kr
		n4s := 2
		if z == 19 || z == 24 || z == 29 {
			n4s = 1
		}
		a.place(0, n4s) // 4s
		a.fill(2, 5)    // 3d
		a.fill(1, 3)    // 4p
	}
	if z > 36 { // Rb .. I
		n5s := 2
		switch {
		case z == 37 || z == 41 || z == 42 || z == 44 || z == 45 || z == 47:
			n5s = 1
		case z == 46:
			n5s = 0
		}
		a.place(0, n5s) // 5s
		a.fill(2, 5)    // 4d
		a.fill(1, 3)    // 5p
	}
	if z > 54 { // Cs .. Rn
		n6s := 2
		if z == 55 || z == 78 || z == 79 {
			n6s = 1
		}
		a.place(0, n6s) // 6s
		if z == 57 || z == 58 || z == 64 {
			a.place(2, 1) // 5d before 4f at the head of the lanthanides
		}
		a.fill(3, 7) // 4f
		a.fill(2, 5) // 5d
		a.fill(1, 3) // 6p
	}
	if z > 86 { // Fr .. Og
		a.fill(0, 1) // 7s
		switch {
		case z == 89 || z == 91 || z == 92 || z == 93 || z == 96:
			a.place(2, 1) // 6d before 5f at the head of the actinides
		case z == 90:
			a.place(2, 2)
		}
		a.fill(3, 7) // 5f
		if z == 103 {
			a.place(1, 1) // lawrencium 7p
		}
		a.fill(2, 5) // 6d
		a.fill(1, 3) // 7p
	}
	return a.occ
}

// SplitSpin divides each channel between the spins, pairing as many
// electrons as the channel's orbitals allow and giving alpha the excess.
func SplitSpin(occ [4]float64) (alpha, beta [4]float64) {
	for l := 0; l < 4; l++ {
		norb := float64(2*l + 1)
		ndbl := math.Floor(occ[l] / (2 * norb))
		alpha[l] = ndbl*norb + math.Min(occ[l]-2*ndbl*norb, norb)
		beta[l] = occ[l] - alpha[l]
	}
	return alpha, beta
}

// ecpCores lists the subshell removal order, as angular momenta, for
// every supported effective-core-potential electron count.
var ecpCores = map[int][]int{
	2:  {0},
	10: {0, 0, 1},
	18: {0, 0, 1, 0, 1},
	28: {0, 0, 1, 0, 1, 2},
	36: {0, 0, 1, 0, 1, 2, 0, 1},
	46: {0, 0, 1, 0, 1, 2, 0, 1, 2},
	54: {0, 0, 1, 0, 1, 2, 0, 1, 2, 0, 1},
	60: {0, 0, 1, 0, 1, 2, 0, 1, 2, 3},
	68: {0, 0, 1, 0, 1, 2, 0, 1, 2, 3, 0, 1},
	78: {0, 0, 1, 0, 1, 2, 0, 1, 2, 3, 0, 1, 2},
}

// RemoveCore strips the ncore electrons replaced by an effective core
// potential from the lowest subshells of the occupation vector.
func RemoveCore(occ [4]float64, ncore int) ([4]float64, error) {
	if ncore == 0 {
		return occ, nil
	}
	shells, ok := ecpCores[ncore]
	if !ok {
		return occ, fmt.Errorf("%w %d", ErrBadECP, ncore)
	}
	for _, l := range shells {
		occ[l] -= float64(2 * (2*l + 1))
		ncore -= 2 * (2*l + 1)
		if ncore < 1 {
			break
		}
	}
	return occ, nil
}
