// Package cli implements the specgate command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/config"
	"github.com/sprite-ai/specgate/internal/logger"
)

var (
	cfgFile string
	verbose bool
	cfg     = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "specgate",
	Short: "Track device interface spec versions and gate parser rebuilds",
	Long: `specgate keeps a registry of device types and the versions of their
POCT1 interface specifications. Each new version is compared with the
current one; changes that reach into message or field definitions block the
update until a rebuild is approved.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "specgate.toml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		onboardCmd,
		updateCmd,
		compareCmd,
		checkCmd,
		inventoryCmd,
		reviewMessageCmd,
		pendingCmd,
		reviewCmd,
		listCmd,
		exportCmd,
		reportCmd,
		serveCmd,
		versionCmd,
	)
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	lc := c.Log
	if verbose {
		lc.Debug = true
	}
	if err := logger.Init(lc); err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	cfg = c
	return nil
}

// exitError ends the process with a specific status without being an
// operational failure. Commands return it after printing their output.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("exit status %d", e.code)
}

// ExitCode maps an Execute error to a process status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		} else if ee.msg != "" {
			fmt.Fprintln(os.Stderr, ee.msg)
		}
	}
	return err
}
