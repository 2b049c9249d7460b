package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jkaninda/credcheck/internal/secrets"
)

var decodeExport bool

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode base64-encoded credential variables in place",
	Long: `Decode every known credential variable that holds base64 text.
With --export, print a single-quoted bash script that re-exports the
decoded values:

  eval "$(credcheck decode --export)"`,
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeExport, "export", false, "print a bash export script for the decoded variables")
}

func runDecode(cmd *cobra.Command, _ []string) error {
	sc, err := initShared()
	if err != nil {
		return err
	}
	defer sc.Cleanup()

	updated, err := secrets.DecodeInPlace(sc.Env, secrets.DecodeNames)
	if err != nil {
		return err
	}
	for _, name := range updated {
		sc.Logger.Debug("decoded variable", slog.String("var", name))
	}

	if decodeExport {
		_, err := secrets.WriteShell(cmd.OutOrStdout(), sc.Env, secrets.DecodeNames, secrets.ShellOptions{
			Style:         secrets.StyleSingle,
			Script:        true,
			StripNonASCII: true,
		})
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Decoded %d environment variables\n", len(updated))
	return nil
}
