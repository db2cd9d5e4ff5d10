// sto3g.go -- This file is part of the hartree project.
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
	"strings"
)

// ErrUnknownBasis reports a basis name with no built-in data.
var ErrUnknownBasis = fmt.Errorf("basis: unknown basis set")

// STO-3G contraction coefficients are shared across elements; only the
// exponents are element-scaled.
var (
	sto3g1sCoefs = []float64{0.15432897, 0.53532814, 0.44463454}
	sto3g2sCoefs = []float64{-0.09996723, 0.39951283, 0.70011547}
	sto3g2pCoefs = []float64{0.15591627, 0.60768372, 0.39195739}
)

func sto3gRow1(exp1s []float64) []ShellSpec {
	return []ShellSpec{{L: 0, Exps: exp1s, Coefs: sto3g1sCoefs}}
}

func sto3gRow2(exp1s, expSP []float64) []ShellSpec {
	return []ShellSpec{
		{L: 0, Exps: exp1s, Coefs: sto3g1sCoefs},
		{L: 0, Exps: expSP, Coefs: sto3g2sCoefs},
		{L: 1, Exps: expSP, Coefs: sto3g2pCoefs},
	}
}

// sto3g holds the built-in STO-3G exponents for H through Ne. Heavier
// elements come from an external basis file.
var sto3g = Library{
	"H":  sto3gRow1([]float64{3.42525091, 0.62391373, 0.16885540}),
	"He": sto3gRow1([]float64{6.36242139, 1.15892300, 0.31364979}),
	"Li": sto3gRow2([]float64{16.1195750, 2.9362007, 0.7946505}, []float64{0.6362897, 0.1478601, 0.0480887}),
	"Be": sto3gRow2([]float64{30.1678710, 5.4951153, 1.4871927}, []float64{1.3148331, 0.3055389, 0.0993707}),
	"B":  sto3gRow2([]float64{48.7911130, 8.8873622, 2.4052670}, []float64{2.2369561, 0.5198205, 0.1690618}),
	"C":  sto3gRow2([]float64{71.6168370, 13.0450960, 3.5305122}, []float64{2.9412494, 0.6834831, 0.2222899}),
	"N":  sto3gRow2([]float64{99.1061690, 18.0523120, 4.8856602}, []float64{3.7804559, 0.8784966, 0.2857144}),
	"O":  sto3gRow2([]float64{130.7093200, 23.8088610, 6.4436083}, []float64{5.0331513, 1.1695961, 0.3803890}),
	"F":  sto3gRow2([]float64{166.6791300, 30.3608120, 8.2168207}, []float64{6.4648032, 1.5022812, 0.4885885}),
	"Ne": sto3gRow2([]float64{207.0156100, 37.7081510, 10.2052970}, []float64{8.2463151, 1.9162662, 0.6232293}),
}

// Builtin returns a built-in basis library by name.
func Builtin(name string) (Library, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sto-3g", "sto3g":
		return sto3g, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBasis, name)
}
