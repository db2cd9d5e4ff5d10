// run.go -- This file is part of the hartree project.
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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qcgo/hartree/basis"
	"github.com/qcgo/hartree/internal/config"
	"github.com/qcgo/hartree/internal/logging"
	"github.com/qcgo/hartree/scf"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input.yaml>",
		Short: "Run the SCF cycle described by an input document",
		Args:  cobra.ExactArgs(1),
		RunE:  runE,
	}
	f := cmd.Flags()
	f.String("basis", "", "basis set name, overrides the file")
	f.String("reference", "", "restricted|unrestricted, overrides the file")
	f.String("guess", "", "seed density (sad|core), overrides the file")
	f.String("backend", "", "linear-algebra backend (dense|blockcyclic), overrides the file")
	f.Int("max-iter", 0, "iteration cap, overrides the file")
	f.Int("workers", 0, "Fock build parallelism, overrides the file")
	f.Float64("shift", 0, "static level shift, overrides the file")
	return cmd
}

func runE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	mol, err := cfg.Molecule()
	if err != nil {
		return err
	}
	lib, err := cfg.Library()
	if err != nil {
		return err
	}
	bs, err := basis.Build(mol, lib)
	if err != nil {
		return err
	}
	opts, err := cfg.SCFOptions(logger)
	if err != nil {
		return err
	}

	drv := &scf.Driver{Molecule: mol, Basis: bs, Library: lib, Opts: opts}
	res, err := drv.Run(cmd.Context())
	if err != nil {
		return err
	}
	res.WriteSummary(cmd.OutOrStdout())
	if !res.Converged {
		return fmt.Errorf("scf did not converge within %d iterations", res.Iterations)
	}
	return nil
}

// applyOverrides folds changed command-line flags over the file values,
// then re-validates the merged document.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("basis") {
		cfg.Basis.Name, _ = f.GetString("basis")
		cfg.Basis.Path = ""
	}
	if f.Changed("reference") {
		cfg.SCF.Reference, _ = f.GetString("reference")
	}
	if f.Changed("guess") {
		cfg.Guess.Type, _ = f.GetString("guess")
	}
	if f.Changed("backend") {
		cfg.Backend.Name, _ = f.GetString("backend")
	}
	if f.Changed("max-iter") {
		cfg.SCF.MaxIter, _ = f.GetInt("max-iter")
	}
	if f.Changed("workers") {
		cfg.SCF.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("shift") {
		cfg.SCF.LevelShift, _ = f.GetFloat64("shift")
	}
	if f.Changed("log-level") {
		cfg.Logging.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Logging.Format, _ = f.GetString("log-format")
	}
	return cfg.Validate()
}
