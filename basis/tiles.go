// tiles.go -- This file is part of the hartree project.
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

import "math"

// defaultTileTarget is the AO tile size used when the caller gives none.
const defaultTileTarget = 30

// Tile is one contiguous AO range covering whole shells.
type Tile struct {
	Index   int
	AOStart int
	Size    int
	ShellLo int // first shell in the tile
	ShellHi int // one past the last shell
}

// TiledSpace partitions the AO index range into shell-aligned tiles.
// Boundaries always fall on shell boundaries.
type TiledSpace struct {
	Tiles      []Tile
	TileShells []int // last shell id of each tile
	Target     int   // effective tile-size target
}

// NewTiledSpace builds the tile partition. userSize <= 0 selects the default
// target; a default below 5% of the basis size is raised to that floor, a
// user-supplied size is honored as given.
func NewTiledSpace(bs *Set, userSize int) *TiledSpace {
	target := userSize
	if userSize <= 0 {
		target = defaultTileTarget
		if floor := int(math.Ceil(0.05 * float64(bs.NBasis()))); target < floor {
			target = floor
		}
	}
	ts := &TiledSpace{Target: target}
	acc := 0
	lo := 0
	start := 0
	for s := range bs.Shells {
		acc += bs.Shells[s].Size()
		if acc >= target {
			ts.push(Tile{AOStart: start, Size: acc, ShellLo: lo, ShellHi: s + 1}, s)
			start += acc
			acc = 0
			lo = s + 1
		}
	}
	if acc > 0 {
		ts.push(Tile{AOStart: start, Size: acc, ShellLo: lo, ShellHi: len(bs.Shells)}, len(bs.Shells)-1)
	}
	return ts
}

func (ts *TiledSpace) push(t Tile, lastShell int) {
	t.Index = len(ts.Tiles)
	ts.Tiles = append(ts.Tiles, t)
	ts.TileShells = append(ts.TileShells, lastShell)
}

// NTiles is the tile count.
func (ts *TiledSpace) NTiles() int { return len(ts.Tiles) }
