package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jkaninda/credcheck/internal/secrets"
)

var (
	loadOutput        string
	loadStyle         string
	loadStripNonASCII bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Resolve, validate and export secrets as a shell script",
	Long: `Resolve every known secret from the environment or the secrets file,
decode it, and print export statements for the loaded variables.

  eval "$(credcheck load)"

Exits 1 when a required secret is missing or no source provides any secret.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVarP(&loadOutput, "output", "o", "", "write the export script to this file (mode 0600) instead of stdout")
	loadCmd.Flags().StringVar(&loadStyle, "style", "", "quoting style: double, single or dotenv (overrides config)")
	loadCmd.Flags().BoolVar(&loadStripNonASCII, "strip-non-ascii", false, "drop non-ASCII characters from exported values")
}

func runLoad(cmd *cobra.Command, _ []string) error {
	sc, err := initShared()
	if err != nil {
		return err
	}
	defer sc.Cleanup()

	opts, err := shellOptions(sc, loadStyle, loadStripNonASCII)
	if err != nil {
		return err
	}

	if _, err := resolveAndExport(cmd.Context(), sc); err != nil {
		return err
	}

	if loadOutput != "" {
		opts.Script = true
		n, err := secrets.WriteShellFile(loadOutput, sc.Env, secrets.ExportNames, opts)
		if err != nil {
			return err
		}
		sc.Logger.Info("export script written", slog.String("path", loadOutput), slog.Int("vars", n))
		return nil
	}

	_, err = secrets.WriteShell(cmd.OutOrStdout(), sc.Env, secrets.ExportNames, opts)
	return err
}

// shellOptions merges the --style flag with the configured export style.
func shellOptions(sc *SharedComponents, flagStyle string, strip bool) (secrets.ShellOptions, error) {
	style := sc.Config.Secrets.Style()
	if flagStyle != "" {
		style = flagStyle
	}
	qs, err := secrets.ParseQuoteStyle(style)
	if err != nil {
		return secrets.ShellOptions{}, fmt.Errorf("--style: %w", err)
	}
	return secrets.ShellOptions{Style: qs, StripNonASCII: strip}, nil
}
