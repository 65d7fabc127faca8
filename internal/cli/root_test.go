package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const docV1 = `[{"page": 1, "blocks": [
  {"type": "text", "block_id": 1, "markdown": "The OBS.R01 message is used to send observations from device to host."},
  {"type": "text", "block_id": 2, "markdown": "Unrecognized segment XYZ.R99 for testing."}
]}]`

const docV2 = `[{"page": 1, "blocks": [
  {"type": "text", "block_id": 1, "markdown": "The OBS.R01 message is used to send results from device to host."},
  {"type": "text", "block_id": 2, "markdown": "Unrecognized segment XYZ.R99 for testing."}
]}]`

const removalPatch = `diff --git a/spec/roche.md b/spec/roche.md
--- a/spec/roche.md
+++ b/spec/roche.md
@@ -1,3 +1,2 @@
 # Page 2
-Message OBS.R01 definition
 Intro paragraph.
`

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"onboard", "update", "compare", "check", "inventory", "review-message",
		"pending", "review", "list", "export", "report", "serve", "version",
	} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	if version != "dev" {
		t.Errorf("expected default version %q, got %q", "dev", version)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(&exitError{code: 2}))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("wrapped: %w", &exitError{code: 2})))
	assert.Equal(t, "exit status 3", (&exitError{code: 3}).Error())
}

// resetFlags restores every flag in the tree to its default so runs do not
// leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !strings.HasSuffix(f.Value.Type(), "Slice") {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// workspace writes a config rooted in a temp dir and returns a runner for
// the root command.
func workspace(t *testing.T) (dir string, run func(args ...string) (string, error)) {
	t.Helper()
	dir = t.TempDir()
	data := filepath.Join(dir, "data")
	conf := fmt.Sprintf("data_dir = %q\noutput_dir = %q\ncustom_messages_path = %q\nregistry_path = %q\n",
		data,
		filepath.Join(data, "spec_output"),
		filepath.Join(data, "custom_messages.json"),
		filepath.Join(data, "device_registry.json"),
	)
	confPath := filepath.Join(dir, "specgate.toml")
	require.NoError(t, os.WriteFile(confPath, []byte(conf), 0o644))

	run = func(args ...string) (string, error) {
		resetFlags(rootCmd)
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(append([]string{"--config", confPath}, args...))
		err := rootCmd.Execute()
		return out.String(), err
	}
	return dir, run
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheckPatch(t *testing.T) {
	dir, run := workspace(t)
	patch := writeFile(t, dir, "change.diff", removalPatch)

	out, err := run("check", "--patch", patch)
	assert.Equal(t, 2, ExitCode(err))
	assert.Contains(t, out, "1 file(s) changed, +0 -1")
	assert.Contains(t, out, "Rebuild required: YES")
	assert.Contains(t, out, "[HIGH]")

	out, err = run("check", "--patch", writeFile(t, dir, "empty.diff", ""))
	require.NoError(t, err)
	assert.Contains(t, out, "No changes to check.")
}

func TestDeviceLifecycle(t *testing.T) {
	dir, run := workspace(t)
	pdf1 := writeFile(t, dir, "v1.pdf", "%PDF v1")
	doc1 := writeFile(t, dir, "v1.json", docV1)
	pdf2 := writeFile(t, dir, "v2.pdf", "%PDF v2")
	doc2 := writeFile(t, dir, "v2.json", docV2)

	out, err := run("onboard", "--vendor", "Roche", "--model", "CobasLiat", "--version", "1.0",
		"--pdf", pdf1, "--document", doc1)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Device:   Roche_CobasLiat")
	assert.Contains(t, out, "Outcome:  BASELINE")

	update := []string{"update", "--device-type", "Roche_CobasLiat", "--version", "1.1", "--pdf", pdf2, "--document", doc2}
	out, err = run(update...)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, out, "Outcome:  REBUILD_REQUIRED")
	assert.Contains(t, out, "re-run with --approve")

	out, err = run(append(update, "--approve", "new assay firmware")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Outcome:  REBUILD_APPROVED")

	out, err = run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "Roche_CobasLiat")

	out, err = run("list", "Roche_CobasLiat")
	require.NoError(t, err)
	assert.Contains(t, out, "new assay firmware")
	assert.Contains(t, out, "baseline")

	xlsx := filepath.Join(dir, "inventory.xlsx")
	md := filepath.Join(dir, "liat.md")
	out, err = run("export", "--device-type", "Roche_CobasLiat", "-o", xlsx, "--markdown", md)
	require.NoError(t, err, out)
	exported, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(exported), "# Page 1\n\nThe OBS.R01 message is used to send results"))
	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Changes")

	_, err = run("update", "--device-type", "Nope_Device", "--version", "1.0", "--pdf", pdf1, "--document", doc1)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, err.Error(), "device type not found")
}

func TestVersionCommand(t *testing.T) {
	_, run := workspace(t)
	out, err := run("version")
	require.NoError(t, err)
	assert.Equal(t, "specgate dev (commit none, built unknown)\n", out)
}
