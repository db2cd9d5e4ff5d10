// config.go -- This file is part of the hartree project.
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

// Package config loads, validates and maps the YAML run input onto the
// engine's option structs.
package config

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/guess"
	"github.com/qcgo/hartree/integral"
	"github.com/qcgo/hartree/internal/logging"
	"github.com/qcgo/hartree/linalg"
	"github.com/qcgo/hartree/scf"
)

// Sentinel validation errors.
var (
	ErrNoGeometry      = errors.New("config: no geometry")
	ErrBadMultiplicity = errors.New("config: bad charge/multiplicity")
	ErrUnsupportedMode = errors.New("config: unsupported mode")
)

// Config is one run input document.
type Config struct {
	Geometry     GeometryConfig `mapstructure:"geometry"`
	Basis        BasisConfig    `mapstructure:"basis"`
	SCF          SCFConfig      `mapstructure:"scf"`
	Guess        GuessConfig    `mapstructure:"guess"`
	ECP          ECPConfig      `mapstructure:"ecp"`
	Backend      BackendConfig  `mapstructure:"backend"`
	PointCharges []PointCharge  `mapstructure:"point_charges"`
	Logging      logging.Config `mapstructure:"logging"`
}

// GeometryConfig holds the molecule: one "Sym x y z" line per atom.
type GeometryConfig struct {
	Atoms        []string `mapstructure:"atoms"`
	Units        string   `mapstructure:"units"` // angstrom|bohr
	Charge       int      `mapstructure:"charge"`
	Multiplicity int      `mapstructure:"multiplicity"`
}

// BasisConfig names a builtin set or points at a library file; the path
// wins when both are given.
type BasisConfig struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

type SCFConfig struct {
	Type       string  `mapstructure:"type"`      // direct only
	Reference  string  `mapstructure:"reference"` // restricted|unrestricted
	MaxIter    int     `mapstructure:"max_iter"`
	TolEnergy  float64 `mapstructure:"tol_energy"`
	TolDRMS    float64 `mapstructure:"tol_drms"`
	DIISWindow int     `mapstructure:"diis_window"`
	LevelShift float64 `mapstructure:"level_shift"`
	GapFloor   float64 `mapstructure:"gap_floor"`
	ResetShift float64 `mapstructure:"reset_shift"`
	CondLimit  float64 `mapstructure:"cond_limit"`
	Precision  float64 `mapstructure:"precision"`
	TileSize   int     `mapstructure:"tile_size"`
	Workers    int     `mapstructure:"workers"`
}

type GuessConfig struct {
	Type      string                    `mapstructure:"type"`       // sad|core
	Mix       float64                   `mapstructure:"mix"`        // atomic density mixing
	MaxSweeps int                       `mapstructure:"max_sweeps"` // atomic iteration cap
	Overrides map[string]OverrideConfig `mapstructure:"overrides"`
}

// OverrideConfig charges a single SAD atom type.
type OverrideConfig struct {
	Charge       int `mapstructure:"charge"`
	Multiplicity int `mapstructure:"multiplicity"`
}

// ECPConfig names the core electrons replaced per element. The integral
// source must stay external; the native engine computes no ECP blocks.
type ECPConfig struct {
	Cores  map[string]int `mapstructure:"cores"`
	Source string         `mapstructure:"source"` // external
}

// BackendConfig selects the linear-algebra backend and its grid.
type BackendConfig struct {
	Name    string `mapstructure:"name"` // dense|blockcyclic
	Workers int    `mapstructure:"workers"`
	Block   int    `mapstructure:"block"`
}

// PointCharge embeds an external charge, positions in geometry units.
type PointCharge struct {
	Q float64 `mapstructure:"q"`
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}

// Validate checks the document against the supported feature set.
// Violations surface as sentinel errors so callers can branch on them.
func (c *Config) Validate() error {
	if len(c.Geometry.Atoms) == 0 {
		return ErrNoGeometry
	}
	switch c.Geometry.Units {
	case "angstrom", "bohr":
	default:
		return fmt.Errorf("%w: units %q", ErrUnsupportedMode, c.Geometry.Units)
	}
	mol, err := c.Molecule()
	if err != nil {
		return err
	}
	if _, _, err := mol.SpinCounts(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMultiplicity, err)
	}

	if c.SCF.Type != "direct" {
		return fmt.Errorf("%w: scf type %q", ErrUnsupportedMode, c.SCF.Type)
	}
	switch c.SCF.Reference {
	case "restricted":
		if c.Geometry.Multiplicity != 1 {
			return fmt.Errorf("%w: restricted reference with multiplicity %d",
				ErrBadMultiplicity, c.Geometry.Multiplicity)
		}
	case "unrestricted":
	default:
		return fmt.Errorf("%w: reference %q", ErrUnsupportedMode, c.SCF.Reference)
	}

	switch c.Guess.Type {
	case scf.GuessSAD, scf.GuessCore:
	default:
		return fmt.Errorf("%w: guess %q", ErrUnsupportedMode, c.Guess.Type)
	}
	if c.Guess.Mix <= 0 || c.Guess.Mix >= 1 {
		return fmt.Errorf("config: guess mix must sit in (0, 1), got %g", c.Guess.Mix)
	}
	if c.Guess.MaxSweeps < 1 {
		return fmt.Errorf("config: guess max_sweeps must be at least 1, got %d", c.Guess.MaxSweeps)
	}

	switch c.ECP.Source {
	case "", "external":
	case "engine":
		return fmt.Errorf("%w: the native engine computes no ECP integrals", ErrUnsupportedMode)
	default:
		return fmt.Errorf("%w: ecp source %q", ErrUnsupportedMode, c.ECP.Source)
	}
	for sym, n := range c.ECP.Cores {
		if n < 0 {
			return fmt.Errorf("config: negative ECP core count %d for %s", n, sym)
		}
	}

	if c.SCF.MaxIter <= 0 {
		return fmt.Errorf("config: max_iter must be positive, got %d", c.SCF.MaxIter)
	}
	if c.SCF.TolEnergy <= 0 || c.SCF.TolDRMS <= 0 {
		return fmt.Errorf("config: tolerances must be positive")
	}
	if c.SCF.DIISWindow < 1 {
		return fmt.Errorf("config: diis_window must be at least 1, got %d", c.SCF.DIISWindow)
	}
	if c.SCF.LevelShift < 0 {
		return fmt.Errorf("config: level_shift must be nonnegative")
	}
	if c.SCF.GapFloor <= 0 {
		return fmt.Errorf("config: gap_floor must be positive")
	}
	if c.SCF.ResetShift <= 0 {
		return fmt.Errorf("config: reset_shift must be positive")
	}
	if c.SCF.CondLimit <= 0 {
		return fmt.Errorf("config: cond_limit must be positive")
	}
	if c.SCF.Precision < 0 {
		return fmt.Errorf("config: precision must be nonnegative")
	}
	if c.SCF.TileSize < 0 {
		return fmt.Errorf("config: tile_size must be nonnegative")
	}
	if c.SCF.Workers < 0 || c.Backend.Workers < 0 {
		return fmt.Errorf("config: workers must be nonnegative")
	}
	return nil
}

// Molecule parses the geometry block into bohr coordinates.
func (c *Config) Molecule() (*basis.Molecule, error) {
	mol, err := basis.ParseGeometry(c.Geometry.Atoms, c.Geometry.Units != "bohr")
	if err != nil {
		return nil, err
	}
	mol.Charge = c.Geometry.Charge
	mol.Multiplicity = c.Geometry.Multiplicity
	return mol, nil
}

// Library loads the basis set named or pointed at by the document.
func (c *Config) Library() (basis.Library, error) {
	if c.Basis.Path != "" {
		return basis.ParseLibraryFile(c.Basis.Path)
	}
	return basis.Builtin(c.Basis.Name)
}

// SCFOptions maps the document onto driver options, constructing the
// selected backend and converting point-charge positions to bohr.
func (c *Config) SCFOptions(logger *zap.Logger) (scf.Options, error) {
	be, err := linalg.New(c.Backend.Name, c.Backend.Workers, c.Backend.Block)
	if err != nil {
		return scf.Options{}, err
	}
	opts := scf.Options{
		Restricted: c.SCF.Reference == "restricted",
		MaxIter:    c.SCF.MaxIter,
		TolEnergy:  c.SCF.TolEnergy,
		TolDRMS:    c.SCF.TolDRMS,
		DIISWindow: c.SCF.DIISWindow,
		Shift:      c.SCF.LevelShift,
		GapFloor:   c.SCF.GapFloor,
		ResetShift: c.SCF.ResetShift,
		CondLimit:  c.SCF.CondLimit,
		Precision:  c.SCF.Precision,
		TileSize:   c.SCF.TileSize,
		Workers:    c.SCF.Workers,

		Guess:        c.Guess.Type,
		SADMix:       c.Guess.Mix,
		SADMaxSweeps: c.Guess.MaxSweeps,
		ECP:          c.ECP.Cores,

		Backend: be,
		Logger:  logger,
	}
	if len(c.Guess.Overrides) > 0 {
		opts.Overrides = make(map[string]guess.Override, len(c.Guess.Overrides))
		for sym, o := range c.Guess.Overrides {
			opts.Overrides[sym] = guess.Override{Charge: o.Charge, Multiplicity: o.Multiplicity}
		}
	}
	if len(c.PointCharges) > 0 {
		scale := 1.0
		if c.Geometry.Units != "bohr" {
			scale = 1.0 / basis.BohrPerAngstrom
		}
		opts.PointCharges = make([]integral.ChargeSite, len(c.PointCharges))
		for i, q := range c.PointCharges {
			opts.PointCharges[i] = integral.ChargeSite{
				Q:      q.Q,
				Center: [3]float64{q.X * scale, q.Y * scale, q.Z * scale},
			}
		}
	}
	return opts, nil
}
