package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracbench/internal/testutil"
)

// Script bodies standing in for implementations. Argument $4 is the
// max_dist value.
const (
	echoMaxDist   = `echo "$4"`
	wrongOnTen    = `if [ "$4" = "10" ]; then echo wrong; else echo "$4"; fi`
	defaultImpls  = "  - {name: py, command: [{{py}}]}\n  - {name: rs, command: [{{rs}}]}\n"
	defaultConfig = `dataset_root: data
sweep:
  max_dist: [5, 10]
  path: [a.txt]
implementations:
`
)

type workspace struct {
	dir    string
	config string
	db     string
}

// newWorkspace writes a dataset, the py and rs scripts and a session file
// whose implementations section is impls with {{py}} and {{rs}} replaced
// by the script paths.
func newWorkspace(t *testing.T, rsBody, impls string) workspace {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "a.txt"), []byte("0 0 1 1\n"), 0o644))

	py := testutil.WriteScript(t, dir, "py.sh", echoMaxDist)
	rs := testutil.WriteScript(t, dir, "rs.sh", rsBody)

	body := defaultConfig + strings.NewReplacer("{{py}}", py, "{{rs}}", rs).Replace(impls)
	path := filepath.Join(dir, "tracbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return workspace{dir: dir, config: path, db: filepath.Join(dir, "tracbench.db")}
}

// execute runs cmd with args, returning stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
