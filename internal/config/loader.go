// loader.go -- This file is part of the hartree project.
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

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/diag"
	"github.com/qcgo/hartree/guess"
	"github.com/qcgo/hartree/ortho"
	"github.com/qcgo/hartree/scf"
)

const envPrefix = "HARTREE"

// newViper builds a viper instance with the project conventions: YAML
// input, HARTREE_ environment prefix, and a dot-to-underscore replacer
// so "scf.max_iter" resolves from HARTREE_SCF_MAX_ITER.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults registers defaults before unmarshal, reusing the engine
// packages' constants so the file and the API stay in step.
func setDefaults(v *viper.Viper) {
	v.SetDefault("geometry.units", "angstrom")
	v.SetDefault("geometry.multiplicity", 1)
	v.SetDefault("basis.name", "sto-3g")
	v.SetDefault("scf.type", "direct")
	v.SetDefault("scf.reference", "restricted")
	v.SetDefault("scf.max_iter", scf.DefaultMaxIter)
	v.SetDefault("scf.tol_energy", scf.DefaultTolEnergy)
	v.SetDefault("scf.tol_drms", scf.DefaultTolDRMS)
	v.SetDefault("scf.diis_window", scf.DefaultWindow)
	v.SetDefault("scf.gap_floor", diag.DefaultGapFloor)
	v.SetDefault("scf.reset_shift", scf.DefaultResetShift)
	v.SetDefault("scf.cond_limit", ortho.DefaultCondLimit)
	v.SetDefault("guess.type", scf.GuessSAD)
	v.SetDefault("guess.mix", guess.DefaultMix)
	v.SetDefault("guess.max_sweeps", guess.DefaultMaxSweeps)
	v.SetDefault("ecp.source", "external")
	v.SetDefault("backend.name", "dense")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads the YAML document at path, merges HARTREE_* overrides,
// applies defaults, and validates.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return finalize(v)
}

// LoadFromEnv builds the configuration from environment variables and
// defaults alone, with no file.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	setDefaults(v)
	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize restores canonical element spellings in symbol-keyed maps;
// viper lowercases keys on the way in.
func (c *Config) normalize() error {
	var err error
	if c.ECP.Cores, err = canonicalKeys(c.ECP.Cores, "ecp.cores"); err != nil {
		return err
	}
	c.Guess.Overrides, err = canonicalKeys(c.Guess.Overrides, "guess.overrides")
	return err
}

func canonicalKeys[V any](in map[string]V, section string) (map[string]V, error) {
	if len(in) == 0 {
		return in, nil
	}
	out := make(map[string]V, len(in))
	for k, v := range in {
		sym := basis.CanonicalSymbol(k)
		if sym == "" {
			return nil, fmt.Errorf("%w: %s: %q", basis.ErrUnknownElement, section, k)
		}
		out[sym] = v
	}
	return out, nil
}
