// driver.go -- This file is part of the hartree project.
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
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/density"
	"github.com/qcgo/hartree/diag"
	"github.com/qcgo/hartree/fock"
	"github.com/qcgo/hartree/guess"
	"github.com/qcgo/hartree/integral"
	"github.com/qcgo/hartree/linalg"
	"github.com/qcgo/hartree/onebody"
	"github.com/qcgo/hartree/ortho"
	"github.com/qcgo/hartree/screen"
)

// Iteration defaults.
const (
	DefaultMaxIter   = 50
	DefaultTolEnergy = 1e-8
	DefaultTolDRMS   = 1e-6

	// DefaultResetShift engages when the orbital gap falls below the
	// gap floor and no explicit shift was requested.
	DefaultResetShift = 0.5
)

// Seed density selectors for Options.Guess.
const (
	GuessSAD  = "sad"
	GuessCore = "core"
)

// ErrUnknownGuess reports a guess selector outside sad|core.
var ErrUnknownGuess = errors.New("scf: unknown guess")

// Options tune one SCF run. The zero value is a sensible unrestricted
// calculation with SAD seeding and DIIS.
type Options struct {
	Restricted bool    // closed-shell spin-restricted reference
	MaxIter    int     // 0 means DefaultMaxIter
	TolEnergy  float64 // energy change threshold, 0 means DefaultTolEnergy
	TolDRMS    float64 // residual RMS threshold, 0 means DefaultTolDRMS
	DIISWindow int     // Fock history length, 0 means DefaultWindow, 1 disables
	Shift      float64 // static level shift; 0 arms the automatic reset
	GapFloor   float64 // gap that triggers the reset, 0 means diag.DefaultGapFloor
	ResetShift float64 // shift applied by the reset, 0 means DefaultResetShift
	CondLimit  float64 // orthogonalizer condition cap, 0 means ortho.DefaultCondLimit
	Precision  float64 // quartet screening cutoff, 0 means integral.DefaultPrecision
	TileSize   int     // AO tile target, 0 picks the adaptive default
	Workers    int     // Fock build parallelism, 0 means GOMAXPROCS

	Guess        string                    // GuessSAD (default) or GuessCore
	SADMix       float64                   // atomic density mixing, 0 means guess.DefaultMix
	SADMaxSweeps int                       // atomic iteration cap, 0 means guess.DefaultMaxSweeps
	Overrides    map[string]guess.Override // per-element SAD charge/multiplicity
	ECP          map[string]int            // element symbol -> core electrons replaced
	ECPMatrix    *mat.Dense                // externally computed ECP integrals, folded into H
	PointCharges []integral.ChargeSite     // external embedding charges in the core Hamiltonian

	Backend linalg.Backend // nil means linalg.DenseLocal
	Logger  *zap.Logger    // nil means zap.NewNop
}

// Driver owns one molecule/basis pair and runs the SCF cycle on it.
type Driver struct {
	Molecule *basis.Molecule
	Basis    *basis.Set
	Library  basis.Library // consulted by the SAD guess for single-atom sets
	Opts     Options
}

// Result of a finished (converged or capped) SCF cycle. Beta fields stay
// nil for restricted references, where D holds the total density.
type Result struct {
	Converged  bool
	State      State
	Iterations int

	Energy      float64 // electronic + nuclear repulsion, hartree
	Electronic  float64
	Nuclear     float64
	OneElectron float64 // tr(D H)
	TwoElectron float64
	Gap         float64

	Energies     []float64
	EnergiesBeta []float64
	C, CBeta     *mat.Dense
	D, DBeta     *mat.Dense
	F, FBeta     *mat.Dense

	Populations []float64 // Mulliken, per atom
	Charges     []float64
	Dipole      [3]float64 // a.u., origin at (0,0,0)

	Rank  int
	CondS float64
	CondX float64

	History []Iteration
}

func (d *Driver) logger() *zap.Logger {
	if d.Opts.Logger != nil {
		return d.Opts.Logger
	}
	return zap.NewNop()
}

func (d *Driver) backend() linalg.Backend {
	if d.Opts.Backend != nil {
		return d.Opts.Backend
	}
	return linalg.DenseLocal{}
}

func (d *Driver) maxIter() int {
	if d.Opts.MaxIter > 0 {
		return d.Opts.MaxIter
	}
	return DefaultMaxIter
}

func (d *Driver) tolEnergy() float64 {
	if d.Opts.TolEnergy > 0 {
		return d.Opts.TolEnergy
	}
	return DefaultTolEnergy
}

func (d *Driver) tolDRMS() float64 {
	if d.Opts.TolDRMS > 0 {
		return d.Opts.TolDRMS
	}
	return DefaultTolDRMS
}

func (d *Driver) precision() float64 {
	if d.Opts.Precision > 0 {
		return d.Opts.Precision
	}
	return integral.DefaultPrecision
}

func (d *Driver) gapFloor() float64 {
	if d.Opts.GapFloor > 0 {
		return d.Opts.GapFloor
	}
	return diag.DefaultGapFloor
}

func (d *Driver) resetShift() float64 {
	if d.Opts.ResetShift > 0 {
		return d.Opts.ResetShift
	}
	return DefaultResetShift
}

// effectiveMolecule folds ECP-replaced core electrons into the nuclear
// charges, so electron counts, nuclear attraction and repulsion all see
// the screened nuclei.
func (d *Driver) effectiveMolecule() *basis.Molecule {
	if len(d.Opts.ECP) == 0 {
		return d.Molecule
	}
	m := *d.Molecule
	m.Atoms = slices.Clone(d.Molecule.Atoms)
	for i := range m.Atoms {
		m.Atoms[i].Z -= d.Opts.ECP[basis.Symbol(m.Atoms[i].Z)]
	}
	return &m
}

// Run drives the state machine to a terminal state. A hit iteration cap
// is not an error; inspect Result.Converged.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	r := &run{drv: d, log: d.logger(), mol: d.effectiveMolecule()}
	st := StateInitializing
	for !st.terminal() {
		var err error
		switch st {
		case StateInitializing:
			err = r.initialize(ctx)
			st = StateBuildFock
		case StateBuildFock:
			err = r.buildFock(ctx)
			st = StateDiagonalize
		case StateDiagonalize:
			err = r.diagonalize(ctx)
			st = StateBuildDensity
		case StateBuildDensity:
			r.buildDensity()
			st = StateCheckConvergence
		case StateCheckConvergence:
			st = r.checkConvergence()
		}
		if err != nil {
			return nil, err
		}
	}
	return r.finish(ctx, st)
}

// run carries the mutable state threaded through the cycle phases.
type run struct {
	drv *Driver
	log *zap.Logger
	mol *basis.Molecule // effective nuclear charges

	restricted bool
	na, nb     int
	nre        float64

	hm    *onebody.CoreMatrices
	x     *mat.Dense
	orth  *ortho.Result
	ob    *onebody.Builder
	fockB *fock.Builder
	diis  *DIIS
	sol   diag.Solver

	iter  int
	shift float64
	reset bool

	da, db *mat.Dense // total density when restricted, else per channel
	fa, fb *mat.Dense // raw Fock matrices of the current iteration
	ua, ub *mat.Dense // matrices handed to the diagonalizer
	ea, eb *diag.Result

	energy, prev, dE, drms, gap float64

	history []Iteration
}

func (r *run) initialize(ctx context.Context) error {
	d := r.drv
	r.restricted = d.Opts.Restricted
	na, nb, err := r.mol.SpinCounts()
	if err != nil {
		return err
	}
	if r.restricted && na != nb {
		return fmt.Errorf("scf: restricted reference needs paired electrons, have %d alpha, %d beta", na, nb)
	}
	r.na, r.nb = na, nb
	r.nre = r.mol.NuclearRepulsion()

	eng := integral.NewGaussian()
	tiles := basis.NewTiledSpace(d.Basis, d.Opts.TileSize)
	pairs, pdata, err := screen.BuildPairs(ctx, d.Basis, d.Basis, eng, screen.DefaultThreshold)
	if err != nil {
		return err
	}

	r.ob = &onebody.Builder{Basis: d.Basis, Tiles: tiles, Engine: eng, Pairs: pairs}
	hm, err := r.ob.CoreHamiltonian(ctx, onebody.NuclearSites(r.mol, d.Opts.PointCharges...), d.Opts.ECPMatrix)
	if err != nil {
		return err
	}
	r.hm = hm

	orth, err := (&ortho.Builder{
		Backend:   d.backend(),
		CondLimit: d.Opts.CondLimit,
		Logger:    r.log,
	}).Build(ctx, linalg.Symmetrize(hm.S))
	if err != nil {
		return err
	}
	r.orth, r.x = orth, orth.X

	schwarz, err := screen.BuildSchwarz(ctx, d.Basis, eng)
	if err != nil {
		return err
	}
	r.fockB = &fock.Builder{
		Basis:     d.Basis,
		Tiles:     tiles,
		Engine:    eng,
		Pairs:     pairs,
		PairData:  pdata,
		Schwarz:   schwarz,
		Precision: d.precision(),
		Workers:   d.Opts.Workers,
	}

	seed, err := r.seedDensity(ctx)
	if err != nil {
		return err
	}
	if r.restricted {
		r.da = seed.Total()
	} else {
		r.da, r.db = seed.Alpha, seed.Beta
	}

	r.diis = NewDIIS(d.Opts.DIISWindow)
	r.sol = diag.Solver{Backend: d.backend()}
	r.shift = d.Opts.Shift

	r.log.Info("scf initialized",
		zap.Int("nbf", d.Basis.NBasis()),
		zap.Int("rank", orth.Rank),
		zap.Int("alpha", na),
		zap.Int("beta", nb),
		zap.Bool("restricted", r.restricted),
		zap.Float64("electrons", density.TraceProduct(r.totalDensity(), hm.S)),
		zap.Float64("nuclear_repulsion", r.nre))
	return nil
}

func (r *run) seedDensity(ctx context.Context) (*guess.Result, error) {
	d := r.drv
	switch d.Opts.Guess {
	case "", GuessSAD:
		gb := &guess.Builder{
			Molecule:  d.Molecule,
			Basis:     d.Basis,
			Library:   d.Library,
			Backend:   d.backend(),
			CondLimit: d.Opts.CondLimit,
			Mix:       d.Opts.SADMix,
			MaxSweeps: d.Opts.SADMaxSweeps,
			Overrides: d.Opts.Overrides,
			ECP:       d.Opts.ECP,
			Logger:    r.log,
		}
		return gb.Density(ctx)
	case GuessCore:
		return guess.Core(ctx, d.backend(), r.hm.H, r.x, r.na, r.nb)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownGuess, d.Opts.Guess)
}

func (r *run) totalDensity() *mat.Dense {
	if r.db == nil {
		return r.da
	}
	n, _ := r.da.Dims()
	t := mat.NewDense(n, n, nil)
	t.Add(r.da, r.db)
	return t
}

func (r *run) buildFock(ctx context.Context) error {
	r.iter++
	h := r.hm.H
	if r.restricted {
		g, err := r.fockB.BuildRestricted(ctx, r.da)
		if err != nil {
			return err
		}
		fa := mat.DenseCopyOf(h)
		fa.Add(fa, g)
		r.fa, r.fb = fa, nil
		r.energy = electronic(h, fa, r.da)
		r.diis.Push(fa, Residual(fa, r.da, r.hm.S, r.x), nil, nil)
	} else {
		ga, gb, err := r.fockB.BuildUnrestricted(ctx, r.da, r.db)
		if err != nil {
			return err
		}
		fa := mat.DenseCopyOf(h)
		fa.Add(fa, ga)
		fb := mat.DenseCopyOf(h)
		fb.Add(fb, gb)
		r.fa, r.fb = fa, fb
		r.energy = electronic(h, fa, r.da) + electronic(h, fb, r.db)
		r.diis.Push(fa, Residual(fa, r.da, r.hm.S, r.x), fb, Residual(fb, r.db, r.hm.S, r.x))
	}
	r.drms = r.diis.DRMS()

	// The extrapolated matrix feeds the diagonalizer only; energy and
	// convergence always come from the raw Fock of the current density.
	r.ua, r.ub = r.fa, r.fb
	if fa, fb, ok := r.diis.Extrapolate(); ok {
		r.ua = fa
		if fb != nil {
			r.ub = fb
		}
	}
	return nil
}

func (r *run) diagonalize(ctx context.Context) error {
	fa := r.ua
	if r.shift > 0 {
		fa = shiftFock(r.ua, r.hm.S, r.alphaDensity(), r.shift)
	}
	ea, err := r.sol.Solve(ctx, fa, r.x, r.na, r.shift)
	if err != nil {
		return err
	}
	r.ea = ea
	r.gap = ea.Gap

	if !r.restricted {
		fb := r.ub
		if r.shift > 0 {
			fb = shiftFock(r.ub, r.hm.S, r.db, r.shift)
		}
		eb, err := r.sol.Solve(ctx, fb, r.x, r.nb, r.shift)
		if err != nil {
			return err
		}
		r.eb = eb
		r.gap = math.Min(r.gap, eb.Gap)
	}

	if !r.reset && r.drv.Opts.Shift == 0 && r.gap < r.drv.gapFloor() {
		r.reset = true
		r.shift = r.drv.resetShift()
		r.log.Info("small orbital gap, engaging level shift",
			zap.Float64("gap", r.gap),
			zap.Float64("shift", r.shift))
	}
	return nil
}

// alphaDensity is the single-channel density the level shift acts on.
func (r *run) alphaDensity() *mat.Dense {
	if !r.restricted {
		return r.da
	}
	n, _ := r.da.Dims()
	half := mat.NewDense(n, n, nil)
	half.Scale(0.5, r.da)
	return half
}

func (r *run) buildDensity() {
	if r.restricted {
		r.da = density.Build(r.ea.C, r.na, 2)
		return
	}
	r.da = density.Build(r.ea.C, r.na, 1)
	r.db = density.Build(r.eb.C, r.nb, 1)
}

func (r *run) checkConvergence() State {
	total := r.energy + r.nre
	r.dE = total - r.prev
	r.prev = total

	it := Iteration{
		N:      r.iter,
		Energy: total,
		DeltaE: r.dE,
		DRMS:   r.drms,
		Gap:    r.gap,
		Shift:  r.shift,
	}
	r.history = append(r.history, it)
	r.log.Info("scf iteration",
		zap.Int("iter", it.N),
		zap.Float64("energy", it.Energy),
		zap.Float64("delta_e", it.DeltaE),
		zap.Float64("drms", it.DRMS),
		zap.Float64("gap", it.Gap),
		zap.Float64("shift", it.Shift))

	switch {
	case math.Abs(r.dE) < r.drv.tolEnergy() && r.drms < r.drv.tolDRMS():
		return StateConverged
	case r.iter >= r.drv.maxIter():
		return StateMaxIterExceeded
	}
	return StateBuildFock
}

func (r *run) finish(ctx context.Context, st State) (*Result, error) {
	res := &Result{
		Converged:  st == StateConverged,
		State:      st,
		Iterations: r.iter,
		Electronic: r.energy,
		Nuclear:    r.nre,
		Energy:     r.energy + r.nre,
		Gap:        r.gap,
		Energies:   r.ea.Energies,
		C:          r.ea.C,
		D:          r.da,
		F:          r.fa,
		Rank:       r.orth.Rank,
		CondS:      r.orth.CondS,
		CondX:      r.orth.CondX,
		History:    r.history,
	}
	if !r.restricted {
		res.EnergiesBeta = r.eb.Energies
		res.CBeta = r.eb.C
		res.DBeta = r.db
		res.FBeta = r.fb
	}

	dt := r.totalDensity()
	res.OneElectron = density.TraceProduct(dt, r.hm.H)
	res.TwoElectron = res.Electronic - res.OneElectron
	res.Populations, res.Charges = Mulliken(r.mol, r.drv.Basis, dt, r.hm.S)
	if r.log.Core().Enabled(zap.DebugLevel) {
		r.log.Debug("final fock matrix\n" + FormatMatrix(r.fa))
		r.log.Debug("total density matrix\n" + FormatMatrix(dt))
	}

	dx, dy, dz, err := r.ob.Dipole(ctx, [3]float64{})
	if err != nil {
		return nil, err
	}
	res.Dipole = DipoleMoment(r.mol, dt, dx, dy, dz)

	if res.Converged {
		r.log.Info("scf converged",
			zap.Int("iterations", res.Iterations),
			zap.Float64("energy", res.Energy),
			zap.Float64("gap", res.Gap))
	} else {
		r.log.Warn("scf hit the iteration cap",
			zap.Int("iterations", res.Iterations),
			zap.Float64("energy", res.Energy),
			zap.Float64("drms", r.drms))
	}
	return res, nil
}

// electronic is the channel energy 1/2 tr D (H + F).
func electronic(h, f, dd *mat.Dense) float64 {
	return 0.5 * (density.TraceProduct(dd, h) + density.TraceProduct(dd, f))
}

// shiftFock returns f - shift * S Dsigma S, leaving f untouched.
func shiftFock(f, s, dsigma *mat.Dense, shift float64) *mat.Dense {
	n, _ := f.Dims()
	sds := mat.NewDense(n, n, nil)
	sds.Mul(s, dsigma)
	sds.Mul(sds, s)
	sds.Scale(shift, sds)
	out := mat.DenseCopyOf(f)
	out.Sub(out, sds)
	return out
}
