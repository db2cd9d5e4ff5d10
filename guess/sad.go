// sad.go -- This file is part of the hartree project.
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
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/density"
	"github.com/qcgo/hartree/integral"
	"github.com/qcgo/hartree/linalg"
	"github.com/qcgo/hartree/onebody"
	"github.com/qcgo/hartree/ortho"
	"github.com/qcgo/hartree/screen"
)

// Atomic fixed-point knobs. Mix and the sweep cap are tunable on the
// Builder; the rest are fixed.
const (
	DefaultMix       = 0.3 // share of the density step discarded each iteration
	DefaultMaxSweeps = 200

	atomShift   = 0.05 // S D S damping applied to the Fock matrix
	atomTol     = 1e-5 // density rmsd target
	embedCharge = 0.05 // degeneracy-lifting charge placed at foreign nuclei
)

// Override adjusts the atomic sub-problem of one element. The atom is
// solved with the given charge and multiplicity instead of the neutral
// occupation tables.
type Override struct {
	Charge       int
	Multiplicity int
}

// Builder assembles the superposition-of-atomic-densities guess.
type Builder struct {
	Molecule  *basis.Molecule
	Basis     *basis.Set    // molecular set, provides the AO offsets
	Library   basis.Library // shells for the single-atom sub-problems
	Backend   linalg.Backend
	CondLimit float64 // orthogonalizer threshold, 0 means the ortho default
	Mix       float64 // density mixing, 0 means DefaultMix
	MaxSweeps int     // atomic iteration cap, 0 means DefaultMaxSweeps
	Overrides map[string]Override
	ECP       map[string]int // replaced core electrons per element
	Logger    *zap.Logger
}

// Result carries the assembled spin densities. Solved counts the atomic
// problems actually iterated; repeated elements reuse the first block.
type Result struct {
	Alpha  *mat.Dense
	Beta   *mat.Dense
	Solved int
}

// Total is the spin-summed density.
func (r *Result) Total() *mat.Dense {
	n, _ := r.Alpha.Dims()
	t := mat.NewDense(n, n, nil)
	t.Add(r.Alpha, r.Beta)
	return t
}

func (b *Builder) backend() linalg.Backend {
	if b.Backend != nil {
		return b.Backend
	}
	return linalg.DenseLocal{}
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return zap.NewNop()
}

func (b *Builder) mix() float64 {
	if b.Mix > 0 {
		return b.Mix
	}
	return DefaultMix
}

func (b *Builder) maxSweeps() int {
	if b.MaxSweeps > 0 {
		return b.MaxSweeps
	}
	return DefaultMaxSweeps
}

// Density solves every distinct element's atomic problem concurrently and
// places the blocks on the diagonal of the molecular density.
func (b *Builder) Density(ctx context.Context) (*Result, error) {
	n := b.Basis.NBasis()
	res := &Result{
		Alpha: mat.NewDense(n, n, nil),
		Beta:  mat.NewDense(n, n, nil),
	}

	sol := &sadSolver{b: b, memo: map[string]*atomDensity{}}
	blocks := make([]*atomDensity, len(b.Molecule.Atoms))
	g, gctx := errgroup.WithContext(ctx)
	for ia := range b.Molecule.Atoms {
		ia := ia
		g.Go(func() error {
			d, err := sol.forElement(gctx, ia)
			if err != nil {
				return err
			}
			blocks[ia] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for ia := range b.Molecule.Atoms {
		off, _ := b.Basis.AtomBlock(ia)
		placeBlock(res.Alpha, off, blocks[ia].a)
		placeBlock(res.Beta, off, blocks[ia].b)
	}
	res.Solved = sol.solves

	b.logger().Info("initial density assembled",
		zap.Int("atoms", len(b.Molecule.Atoms)),
		zap.Int("atomic_solves", res.Solved),
	)
	return res, nil
}

func placeBlock(dst *mat.Dense, off int, src *mat.Dense) {
	n, _ := src.Dims()
	dst.Slice(off, off+n, off, off+n).(*mat.Dense).Copy(src)
}

type atomDensity struct {
	a, b *mat.Dense
}

// sadSolver deduplicates the per-element solves: a memo for repeats and a
// singleflight group so concurrent requests for one element run once.
type sadSolver struct {
	b      *Builder
	flight singleflight.Group
	mu     sync.Mutex
	memo   map[string]*atomDensity
	solves int
}

func (s *sadSolver) forElement(ctx context.Context, ia int) (*atomDensity, error) {
	sym := basis.Symbol(s.b.Molecule.Atoms[ia].Z)
	s.mu.Lock()
	d, ok := s.memo[sym]
	s.mu.Unlock()
	if ok {
		return d, nil
	}
	v, err, _ := s.flight.Do(sym, func() (interface{}, error) {
		d, err := s.b.solveAtom(ctx, sym, ia)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.memo[sym] = d
		s.solves++
		s.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*atomDensity), nil
}

// solveAtom runs the damped fixed-point iteration for one isolated atom
// and returns its spin density blocks.
func (b *Builder) solveAtom(ctx context.Context, sym string, ia int) (*atomDensity, error) {
	at := b.Molecule.Atoms[ia]
	occ := Occupation(at.Z)
	ncore := b.ECP[sym]
	if ncore > 0 {
		var err error
		occ, err = RemoveCore(occ, ncore)
		if err != nil {
			return nil, err
		}
	}

	amol := &basis.Molecule{Atoms: []basis.Atom{at}, Multiplicity: 1}
	abs, err := basis.Build(amol, b.Library)
	if err != nil {
		return nil, err
	}
	nao := abs.NBasis()

	// A per-element override switches the occupation to an aufbau fill of
	// the adjusted electron count, with weak charges embedded at the other
	// nuclei to lift degeneracies.
	var (
		custom             bool
		naCustom, nbCustom int
		embed              []integral.ChargeSite
	)
	if ov, ok := b.Overrides[sym]; ok {
		custom = true
		nelec := at.Z - ov.Charge - ncore
		naCustom = (nelec + ov.Multiplicity - 1) / 2
		nbCustom = nelec - naCustom
		for j, other := range b.Molecule.Atoms {
			if j == ia {
				continue
			}
			embed = append(embed, integral.ChargeSite{Q: embedCharge, Center: other.Coords})
		}
	}

	occA, occB := SplitSpin(occ)
	da, db := seedDensity(abs, occA, occB)

	eng := integral.NewGaussian()
	pairs, _, err := screen.BuildPairs(ctx, abs, abs, eng, screen.DefaultThreshold)
	if err != nil {
		return nil, err
	}
	tiles := basis.NewTiledSpace(abs, 0)
	ob := &onebody.Builder{Basis: abs, Tiles: tiles, Engine: eng, Pairs: pairs}
	sites := onebody.NuclearSites(amol, embed...)
	sites[0].Q = float64(at.Z - ncore)
	hm, err := ob.CoreHamiltonian(ctx, sites, nil)
	if err != nil {
		return nil, err
	}

	ox := &ortho.Builder{Backend: b.Backend, CondLimit: b.CondLimit, Logger: b.Logger}
	xres, err := ox.Build(ctx, linalg.Symmetrize(hm.S))
	if err != nil {
		return nil, err
	}

	schwarz, err := screen.BuildSchwarz(ctx, abs, eng)
	if err != nil {
		return nil, err
	}

	be := b.backend()
	lastA := mat.NewDense(nao, nao, nil)
	lastB := mat.NewDense(nao, nao, nil)
	diffA := mat.NewDense(nao, nao, nil)
	diffB := mat.NewDense(nao, nao, nil)
	rmsd := 1.0
	iter := 0
	for rmsd > atomTol {
		iter++
		lastA.Copy(da)
		lastB.Copy(db)

		ga, gb := atomFock(abs, pairs, schwarz, eng, da, db)

		fa := mat.NewDense(nao, nao, nil)
		fa.Add(hm.H, ga)
		if iter > 1 {
			dampFock(fa, hm.S, da)
		}
		_, ca, err := be.TransformedEigh(ctx, fa, xres.X)
		if err != nil {
			return nil, err
		}
		cb := ca
		if custom {
			fb := mat.NewDense(nao, nao, nil)
			fb.Add(hm.H, gb)
			if iter > 1 {
				dampFock(fb, hm.S, db)
			}
			if _, cb, err = be.TransformedEigh(ctx, fb, xres.X); err != nil {
				return nil, err
			}
		}

		if custom {
			da = density.Build(ca, naCustom, 1)
			db = density.Build(cb, nbCustom, 1)
		} else {
			da = occupyByShell(abs, ca, occA)
			db = occupyByShell(abs, cb, occB)
			avg := mat.NewDense(nao, nao, nil)
			avg.Add(da, db)
			avg.Scale(0.5, avg)
			da, db = avg, mat.DenseCopyOf(avg)
		}

		diffA.Sub(da, lastA)
		diffB.Sub(db, lastB)
		rmsd = math.Max(mat.Norm(diffA, 2), mat.Norm(diffB, 2))
		diffA.Scale(b.mix(), diffA)
		diffB.Scale(b.mix(), diffB)
		da.Sub(da, diffA)
		db.Sub(db, diffB)

		if iter > b.maxSweeps() {
			break
		}
	}

	// Cap exhaustion is not fatal; the best available density seeds the
	// molecular loop.
	if rmsd > atomTol {
		b.logger().Warn("atomic solve hit the iteration cap",
			zap.String("element", sym),
			zap.Float64("rmsd", rmsd),
		)
	}
	b.logger().Info("atomic density solved",
		zap.String("element", sym),
		zap.Int("nbf", nao),
		zap.Int("iterations", iter),
	)
	return &atomDensity{a: da, b: db}, nil
}

// seedDensity spreads the channel occupations over the shell diagonals,
// spherically averaged between the spins.
func seedDensity(bs *basis.Set, occA, occB [4]float64) (da, db *mat.Dense) {
	nao := bs.NBasis()
	da = mat.NewDense(nao, nao, nil)
	db = mat.NewDense(nao, nao, nil)
	remA, remB := occA, occB
	for is := 0; is < bs.NShells(); is++ {
		sh := &bs.Shells[is]
		if sh.L > 3 || remA[sh.L] < 0.1 {
			continue
		}
		norb := float64(2*sh.L + 1)
		na := math.Min(remA[sh.L]/norb, 1)
		nb := math.Min(remB[sh.L]/norb, 1)
		remA[sh.L] -= na * norb
		remB[sh.L] -= nb * norb
		off := bs.Offset(is)
		for i := 0; i < sh.Size(); i++ {
			da.Set(off+i, off+i, na)
			db.Set(off+i, off+i, nb)
		}
	}
	avg := mat.NewDense(nao, nao, nil)
	avg.Add(da, db)
	avg.Scale(0.5, avg)
	da.Copy(avg)
	db.Copy(avg)
	return da, db
}

// dampFock subtracts the atomShift-weighted S D S term.
func dampFock(f, s, d *mat.Dense) {
	n, _ := f.Dims()
	sd := mat.NewDense(n, n, nil)
	sd.Mul(s, d)
	sds := mat.NewDense(n, n, nil)
	sds.Mul(sd, s)
	sds.Scale(atomShift, sds)
	f.Sub(f, sds)
}

// occupyByShell fills the orbitals with the per-channel occupations. Each
// orbital's angular momentum is read off the shells carrying most of its
// coefficient weight, and electrons spread evenly over the 2l+1 degenerate
// partners.
func occupyByShell(bs *basis.Set, c *mat.Dense, occ [4]float64) *mat.Dense {
	nao, nmo := c.Dims()
	occMO := make([]float64, nmo)
	rem := occ
	for imo := 0; imo < nmo; imo++ {
		if rem[0]+rem[1]+rem[2]+rem[3] < 0.1 {
			break
		}
		lang := -1
		var weight [4]float64
		for is := 0; is < bs.NShells() && lang < 0; is++ {
			sh := &bs.Shells[is]
			if sh.L > 3 {
				continue
			}
			off := bs.Offset(is)
			for i := 0; i < sh.Size(); i++ {
				weight[sh.L] += c.At(off+i, imo) * c.At(off+i, imo)
			}
			if weight[sh.L] > 0.1 {
				lang = sh.L
			}
		}
		if lang < 0 || rem[lang] < 0.1 {
			continue
		}
		norb := 2*lang + 1
		frac := math.Min(rem[lang]/float64(norb), 1)
		for j := 0; j < norb && imo+j < nmo; j++ {
			rem[lang] -= frac
			occMO[imo+j] = frac
		}
		imo += norb - 1
	}

	cw := mat.NewDense(nao, nmo, nil)
	cw.Mul(c, mat.NewDiagDense(nmo, occMO))
	d := mat.NewDense(nao, nao, nil)
	d.Mul(cw, c.T())
	return d
}

// atomFock builds the per-spin two-electron matrices of one atom over the
// canonical quartets. An atomic density couples equal angular momenta
// only, so quartets are filtered by l match and the Coulomb and exchange
// parts accumulate only where their density blocks can be nonzero.
func atomFock(bs *basis.Set, pairs screen.PairList, schwarz *mat.SymDense, eng integral.Engine, da, db *mat.Dense) (ga, gb *mat.Dense) {
	nao := bs.NBasis()
	ga = mat.NewDense(nao, nao, nil)
	gb = mat.NewDense(nao, nao, nil)

	norms := screen.ShellBlockNorms(bs, da)
	nrmB := screen.ShellBlockNorms(bs, db)
	norms.Add(norms, nrmB)

	for s1 := 0; s1 < bs.NShells(); s1++ {
		l1 := bs.Shells[s1].L
		for _, s2 := range pairs[s1] {
			l2 := bs.Shells[s2].L
			for s3 := 0; s3 <= s1; s3++ {
				l3 := bs.Shells[s3].L
				s4max := s3
				if s3 == s1 {
					s4max = s2
				}
				for _, s4 := range pairs[s3] {
					if s4 > s4max {
						break
					}
					l4 := bs.Shells[s4].L
					coul := l1 == l2 || l3 == l4
					exch := (l1 == l3 && l2 == l4) || (l1 == l4 && l2 == l3)
					if !coul && !exch {
						continue
					}

					dn := norms.At(s1, s2)
					for _, v := range [5]float64{
						norms.At(s3, s4),
						norms.At(s1, s3), norms.At(s1, s4),
						norms.At(s2, s3), norms.At(s2, s4),
					} {
						if v > dn {
							dn = v
						}
					}
					if dn*schwarz.At(s1, s2)*schwarz.At(s3, s4) < integral.DefaultPrecision {
						continue
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

					buf := eng.Coulomb(&bs.Shells[s1], &bs.Shells[s2],
						&bs.Shells[s3], &bs.Shells[s4])
					if buf == nil {
						continue
					}
					accumulate(bs, s1, s2, s3, s4, deg, coul, exch, buf, da, db, ga, gb)
				}
			}
		}
	}

	for _, g := range []*mat.Dense{ga, gb} {
		t := mat.NewDense(nao, nao, nil)
		t.Add(g, g.T())
		t.Scale(0.5, t)
		g.Copy(t)
	}
	return ga, gb
}

func accumulate(bs *basis.Set, s1, s2, s3, s4 int, deg float64, coul, exch bool, buf []float64, da, db, ga, gb *mat.Dense) {
	o1, n1 := bs.Offset(s1), bs.Shells[s1].Size()
	o2, n2 := bs.Offset(s2), bs.Shells[s2].Size()
	o3, n3 := bs.Offset(s3), bs.Shells[s3].Size()
	o4, n4 := bs.Offset(s4), bs.Shells[s4].Size()

	idx := 0
	for p := 0; p < n1; p++ {
		i1 := o1 + p
		for q := 0; q < n2; q++ {
			i2 := o2 + q
			for r := 0; r < n3; r++ {
				i3 := o3 + r
				for t := 0; t < n4; t++ {
					i4 := o4 + t
					v := buf[idx] * deg
					idx++
					if v == 0 {
						continue
					}
					if coul {
						j12 := 0.5 * (da.At(i3, i4) + db.At(i3, i4)) * v
						j34 := 0.5 * (da.At(i1, i2) + db.At(i1, i2)) * v
						ga.Set(i1, i2, ga.At(i1, i2)+j12)
						ga.Set(i3, i4, ga.At(i3, i4)+j34)
						gb.Set(i1, i2, gb.At(i1, i2)+j12)
						gb.Set(i3, i4, gb.At(i3, i4)+j34)
					}
					if exch {
						ga.Set(i1, i3, ga.At(i1, i3)-0.25*da.At(i2, i4)*v)
						ga.Set(i2, i4, ga.At(i2, i4)-0.25*da.At(i1, i3)*v)
						ga.Set(i1, i4, ga.At(i1, i4)-0.25*da.At(i2, i3)*v)
						ga.Set(i2, i3, ga.At(i2, i3)-0.25*da.At(i1, i4)*v)
						gb.Set(i1, i3, gb.At(i1, i3)-0.25*db.At(i2, i4)*v)
						gb.Set(i2, i4, gb.At(i2, i4)-0.25*db.At(i1, i3)*v)
						gb.Set(i1, i4, gb.At(i1, i4)-0.25*db.At(i2, i3)*v)
						gb.Set(i2, i3, gb.At(i2, i3)-0.25*db.At(i1, i4)*v)
					}
				}
			}
		}
	}
}
