// pairs.go -- This file is part of the hartree project.
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
package screen

import (
	"context"
	"sync"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/integral"
)

// DefaultThreshold is the Frobenius-norm overlap threshold below which a
// shell pair on different centers is insignificant.
const DefaultThreshold = 1e-12

// PairKey identifies a stored shell pair.
type PairKey struct{ S1, S2 int }

// PairList holds, per shell of the first set, the ascending significant
// partner shells of the second. For a set screened against itself only
// partners s2 <= s1 appear.
type PairList [][]int

// Contains reports whether the pair is significant, in either order.
func (pl PairList) Contains(s1, s2 int) bool {
	if s1 < len(pl) {
		if _, ok := slices.BinarySearch(pl[s1], s2); ok {
			return true
		}
	}
	if s2 < len(pl) {
		_, ok := slices.BinarySearch(pl[s2], s1)
		return ok
	}
	return false
}

// PairData carries the precomputed primitive-pair data of every significant
// pair, screened at the machine-precision cut.
type PairData map[PairKey]*integral.ShellPair

// BuildPairs screens all shell pairs of bs1 against bs2. A pair is
// significant when the shells share a center or the Frobenius norm of
// their overlap block meets the threshold; threshold <= 0 falls back to
// DefaultThreshold. Rows run as parallel tasks; each row comes out
// ascending by construction.
func BuildPairs(ctx context.Context, bs1, bs2 *basis.Set, eng integral.Engine, threshold float64) (PairList, PairData, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	same := bs1 == bs2
	lnCut := integral.PrecisionCut(integral.DefaultPrecision)

	list := make(PairList, bs1.NShells())
	data := make(PairData)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for s1 := 0; s1 < bs1.NShells(); s1++ {
		s1 := s1
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hi := bs2.NShells()
			if same {
				hi = s1 + 1
			}
			var row []int
			var pairs []*integral.ShellPair
			sh1 := &bs1.Shells[s1]
			for s2 := 0; s2 < hi; s2++ {
				sh2 := &bs2.Shells[s2]
				keep := sh1.Center == sh2.Center
				if !keep {
					blk := eng.Overlap(sh1, sh2)
					keep = blk != nil && floats.Norm(blk, 2) >= threshold
				}
				if keep {
					row = append(row, s2)
					pairs = append(pairs, integral.NewShellPair(sh1, sh2, lnCut))
				}
			}
			list[s1] = row
			mu.Lock()
			for i, s2 := range row {
				data[PairKey{S1: s1, S2: s2}] = pairs[i]
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return list, data, nil
}
