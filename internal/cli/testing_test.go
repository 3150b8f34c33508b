package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testCLI runs commands against a temp directory holding an ffopts.yaml that
// points the snapshot store at a SQLite file.
type testCLI struct {
	t      *testing.T
	Dir    string
	Config string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "ffopts.yaml")
	body := "log:\n  level: disabled\nstore:\n  type: sqlite\n  sqlite:\n    path: " +
		filepath.Join(dir, "snapshots.db") + "\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o600))
	return &testCLI{t: t, Dir: dir, Config: cfg}
}

func (c *testCLI) Run(args ...string) (string, string, int) {
	var out, errOut bytes.Buffer
	full := append([]string{"ffopts", "--config", c.Config}, args...)
	code := Run(full, &out, &errOut)
	return out.String(), errOut.String(), code
}

func (c *testCLI) MustRun(args ...string) string {
	c.t.Helper()
	out, errOut, code := c.Run(args...)
	if code != 0 {
		c.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, errOut)
	}
	return strings.TrimSpace(out)
}

func (c *testCLI) MustFail(args ...string) string {
	c.t.Helper()
	_, errOut, code := c.Run(args...)
	if code == 0 {
		c.t.Fatalf("command %v succeeded, expected failure", args)
	}
	return strings.TrimSpace(errOut)
}

func (c *testCLI) WritePreset(name, body string) string {
	c.t.Helper()
	path := filepath.Join(c.Dir, name)
	require.NoError(c.t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const livePreset = `{
	// live streams on constrained devices
	"name": "live",
	"options": {
		"player": {"framedrop": 1},
		"codec": {"skip_loop_filter": 48},
	},
	"rules": [
		{"name": "cellular", "when": "args.network == \"cellular\"", "category": "format", "key": "timeout", "value": 60000000},
	],
}`
