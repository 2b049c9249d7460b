package main

import (
	"github.com/spf13/cobra"
)

var checkOpts probeFlags

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load secrets, then probe every provider",
	Long: `Resolve and export secrets into this process, then run the probes against
them. Exits 1 on a resolution failure; probe failures only change the exit
status with --strict.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sc, err := initShared()
		if err != nil {
			return err
		}
		defer sc.Cleanup()

		if _, err := resolveAndExport(cmd.Context(), sc); err != nil {
			return err
		}
		return runProbe(cmd.Context(), cmd.OutOrStdout(), sc, checkOpts)
	},
}

func init() {
	addProbeFlags(checkCmd, &checkOpts)
}
