package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteScript writes an executable /bin/sh script named name into dir and
// returns its absolute path. body is everything after the shebang line.
//
// Scripts stand in for the implementations under test.
func WriteScript(tb testing.TB, dir, name, body string) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	content := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		tb.Fatalf("write script %s: %v", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		tb.Fatalf("abs %s: %v", path, err)
	}
	return abs
}

// EchoArgsScript prints its arguments on one line.
const EchoArgsScript = `echo "$@"`

// CorridorArtifactScript writes "<dir of --infile>/<infile name>.corridorlist.txt"
// containing the max_dist value and the mode (if any), mimicking an
// implementation that reports through an artifact file.
//
// Expected argv: --infile <path> --max_dist <v> --min_density <v>
// --max_angle <v> --segment_size <v> [--mode <m>]
const CorridorArtifactScript = `infile="$2"
dir=$(dirname "$infile")
base=$(basename "$infile")
printf 'name\tweight\tcoordinates\n%s\t%s\tLINESTRING(0 0, 3 4)\n' "$4" "${12:-none}" > "$dir/$base.corridorlist.txt"`
