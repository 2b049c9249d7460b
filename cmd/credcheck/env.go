package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jkaninda/credcheck/internal/secrets"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List credential variables with masked values",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sc, err := initShared()
		if err != nil {
			return err
		}
		defer sc.Cleanup()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		set := 0
		for _, name := range secrets.ExportNames {
			if v, ok := sc.Env.Lookup(name); ok {
				set++
				fmt.Fprintf(tw, "%s\tset\t%s\n", name, secrets.Mask(v))
				continue
			}
			fmt.Fprintf(tw, "%s\tmissing\t\n", name)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d variables set\n", set, len(secrets.ExportNames))
		return nil
	},
}
