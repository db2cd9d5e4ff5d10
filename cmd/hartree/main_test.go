package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func writeInput(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

const heliumDoc = `
geometry:
  units: bohr
  atoms:
    - He 0.0 0.0 0.0
logging:
  level: error
`

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hartree")
}

func TestRunHelium(t *testing.T) {
	out, err := execute(t, "run", writeInput(t, heliumDoc))
	require.NoError(t, err)
	assert.Contains(t, out, "SCF converged")
	assert.Contains(t, out, "-2.80778")
}

func TestRunMissingInput(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestRunCapOverrideFails(t *testing.T) {
	out, err := execute(t, "run", writeInput(t, heliumDoc), "--max-iter", "1")
	require.Error(t, err)
	assert.Contains(t, out, "SCF NOT converged")
}

func TestRunFlagOverridesReference(t *testing.T) {
	out, err := execute(t, "run", writeInput(t, heliumDoc), "--reference", "unrestricted", "--guess", "core")
	require.NoError(t, err)
	assert.Contains(t, out, "SCF converged")
}
