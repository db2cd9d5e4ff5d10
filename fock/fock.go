// fock.go -- This file is part of the hartree project.
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

// Package fock builds the two-electron part of the Fock matrix by direct
// integral evaluation over the canonical shell quartets, screened by the
// Schwarz bound times the density block norm. Tile-pair tasks accumulate
// into private buffers that are merged once the group finishes.
package fock

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/integral"
	"github.com/qcgo/hartree/screen"
)

// Builder assembles G, the two-electron Fock contribution. The zero values
// mean: no quartet screening (nil Schwarz or zero Precision), no pair-list
// restriction (nil Pairs), shell-quadruple integral path (nil PairData),
// GOMAXPROCS workers.
type Builder struct {
	Basis     *basis.Set
	Tiles     *basis.TiledSpace
	Engine    integral.Engine
	Pairs     screen.PairList
	PairData  screen.PairData
	Schwarz   *mat.SymDense
	Precision float64
	Workers   int
}

func (b *Builder) workers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// BuildRestricted returns G for a restricted total density:
// G = J(D) - K(D)/2, assembled with Coulomb weight 0.5 and exchange weight
// 0.125 over the canonical quartets.
func (b *Builder) BuildRestricted(ctx context.Context, d *mat.Dense) (*mat.Dense, error) {
	gs, err := b.build(ctx, d, []*mat.Dense{d}, 0.125)
	if err != nil {
		return nil, err
	}
	return gs[0], nil
}

// BuildUnrestricted returns G per spin channel: both share the Coulomb
// term on D_alpha+D_beta, exchange acts on the channel's own density with
// weight 0.25.
func (b *Builder) BuildUnrestricted(ctx context.Context, da, db *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	n, _ := da.Dims()
	dt := mat.NewDense(n, n, nil)
	dt.Add(da, db)
	gs, err := b.build(ctx, dt, []*mat.Dense{da, db}, 0.25)
	if err != nil {
		return nil, nil, err
	}
	return gs[0], gs[1], nil
}

// tilePair is one unit of work: quartets whose bra pair falls in the two
// tiles.
type tilePair struct{ t1, t2 basis.Tile }

func (b *Builder) build(ctx context.Context, dt *mat.Dense, spins []*mat.Dense, xfac float64) ([]*mat.Dense, error) {
	n := b.Basis.NBasis()
	nch := len(spins)
	b.Engine.SetPrecision(b.Precision)

	var norms *mat.Dense
	if b.Schwarz != nil {
		norms = screen.ShellBlockNorms(b.Basis, dt)
	}

	var tasks []tilePair
	for i1, t1 := range b.Tiles.Tiles {
		for i2 := 0; i2 <= i1; i2++ {
			tasks = append(tasks, tilePair{t1: t1, t2: b.Tiles.Tiles[i2]})
		}
	}

	nw := b.workers()
	parts := make([][]*mat.Dense, nw)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < nw; w++ {
		w := w
		g.Go(func() error {
			mine := make([]*mat.Dense, nch)
			for c := range mine {
				mine[c] = mat.NewDense(n, n, nil)
			}
			parts[w] = mine
			for k := w; k < len(tasks); k += nw {
				if err := ctx.Err(); err != nil {
					return err
				}
				b.runTask(tasks[k], dt, spins, xfac, norms, mine)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*mat.Dense, nch)
	for c := range out {
		sum := mat.NewDense(n, n, nil)
		for w := range parts {
			sum.Add(sum, parts[w][c])
		}
		sym := mat.NewDense(n, n, nil)
		sym.Add(sum, sum.T())
		sym.Scale(0.5, sym)
		out[c] = sym
	}
	return out, nil
}

// runTask walks the canonical quartets (s1 >= s2, s3 <= s1, s4 bounded by
// the quartet symmetry) whose (s1,s2) pair falls inside the task's tiles.
func (b *Builder) runTask(tp tilePair, dt *mat.Dense, spins []*mat.Dense, xfac float64, norms *mat.Dense, gbuf []*mat.Dense) {
	pe, _ := b.Engine.(integral.PairEngine)
	for s1 := tp.t1.ShellLo; s1 < tp.t1.ShellHi; s1++ {
		for _, s2 := range b.partners(s1, s1) {
			if s2 < tp.t2.ShellLo || s2 >= tp.t2.ShellHi {
				continue
			}
			for s3 := 0; s3 <= s1; s3++ {
				s4max := s3
				if s3 == s1 {
					s4max = s2
				}
				for _, s4 := range b.partners(s3, s4max) {
					b.quartet(s1, s2, s3, s4, dt, spins, xfac, norms, gbuf, pe)
				}
			}
		}
	}
}

// partners lists the significant partner shells of s, capped at hi.
func (b *Builder) partners(s, hi int) []int {
	if b.Pairs == nil {
		all := make([]int, 0, hi+1)
		for i := 0; i <= hi; i++ {
			all = append(all, i)
		}
		return all
	}
	row := b.Pairs[s]
	for i, v := range row {
		if v > hi {
			return row[:i]
		}
	}
	return row
}

func (b *Builder) quartet(s1, s2, s3, s4 int, dt *mat.Dense, spins []*mat.Dense, xfac float64, norms *mat.Dense, gbuf []*mat.Dense, pe integral.PairEngine) {
	if norms != nil {
		dn := maxNorm(norms, s1, s2, s3, s4)
		if dn*b.Schwarz.At(s1, s2)*b.Schwarz.At(s3, s4) < b.Precision {
			return
		}
	}

	deg := 1.0
	if s1 != s2 {
		deg *= 2
	}
	if s3 != s4 {
		deg *= 2
	}
	if s1 != s3 || s2 != s4 {
		deg *= 2
	}

	var buf []float64
	if pe != nil && b.PairData != nil {
		ab, ok1 := b.PairData[screen.PairKey{S1: s1, S2: s2}]
		cd, ok2 := b.PairData[screen.PairKey{S1: s3, S2: s4}]
		if !ok1 || !ok2 {
			return
		}
		buf = pe.CoulombPair(ab, cd)
	} else {
		buf = b.Engine.Coulomb(&b.Basis.Shells[s1], &b.Basis.Shells[s2],
			&b.Basis.Shells[s3], &b.Basis.Shells[s4])
	}
	if buf == nil {
		return
	}

	o1, n1 := b.Basis.Offset(s1), b.Basis.Shells[s1].Size()
	o2, n2 := b.Basis.Offset(s2), b.Basis.Shells[s2].Size()
	o3, n3 := b.Basis.Offset(s3), b.Basis.Shells[s3].Size()
	o4, n4 := b.Basis.Offset(s4), b.Basis.Shells[s4].Size()

	idx := 0
	for a := 0; a < n1; a++ {
		i1 := o1 + a
		for bb := 0; bb < n2; bb++ {
			i2 := o2 + bb
			for cc := 0; cc < n3; cc++ {
				i3 := o3 + cc
				for dd := 0; dd < n4; dd++ {
					i4 := o4 + dd
					v := buf[idx] * deg
					idx++
					if v == 0 {
						continue
					}
					for ch, dsp := range spins {
						gm := gbuf[ch]
						gm.Set(i1, i2, gm.At(i1, i2)+0.5*dt.At(i3, i4)*v)
						gm.Set(i3, i4, gm.At(i3, i4)+0.5*dt.At(i1, i2)*v)
						gm.Set(i1, i3, gm.At(i1, i3)-xfac*dsp.At(i2, i4)*v)
						gm.Set(i2, i4, gm.At(i2, i4)-xfac*dsp.At(i1, i3)*v)
						gm.Set(i1, i4, gm.At(i1, i4)-xfac*dsp.At(i2, i3)*v)
						gm.Set(i2, i3, gm.At(i2, i3)-xfac*dsp.At(i1, i4)*v)
					}
				}
			}
		}
	}
}

func maxNorm(norms *mat.Dense, s1, s2, s3, s4 int) float64 {
	m := norms.At(s1, s2)
	for _, v := range [5]float64{
		norms.At(s3, s4),
		norms.At(s1, s3), norms.At(s1, s4),
		norms.At(s2, s3), norms.At(s2, s4),
	} {
		if v > m {
			m = v
		}
	}
	return m
}
