// credcheck bootstraps API credentials into the environment and verifies
// that each one can reach its service.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jkaninda/credcheck/internal/config"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "credcheck",
	Short: "credcheck loads, decodes and verifies API credentials.",
	Long: `credcheck resolves API keys from the environment or a mounted secrets file,
decodes base64-encoded values, exports them for the shell, and probes each
external API (LLM providers, GitHub, Terraform Cloud, Docker Hub, PyPI) to
confirm the credential works.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "path to config file")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flags.StringVar(&logFormat, "log-format", "", "log format: text or json (overrides config)")

	rootCmd.AddCommand(loadCmd, decodeCmd, probeCmd, checkCmd, envCmd, serveCmd, versionCmd)
	_ = godotenv.Load()
}

// exitError carries a process exit code other than 1.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode maps a command error to the process status. Anything that is not
// an *exitError exits 1.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(exitCode(err))
	}
}
