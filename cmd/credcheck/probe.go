package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jkaninda/credcheck/internal/probe"
)

// probeFlags are shared by the probe and check commands.
type probeFlags struct {
	only        []string
	strict      bool
	json        bool
	metricsFile string
}

var probeOpts probeFlags

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Verify each configured credential against its API",
	Long: `Run one connectivity check per provider, each bounded by its own timeout,
and print an ordered report. Probe failures do not change the exit status
unless --strict is set, in which case any failure exits 2.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sc, err := initShared()
		if err != nil {
			return err
		}
		defer sc.Cleanup()
		return runProbe(cmd.Context(), cmd.OutOrStdout(), sc, probeOpts)
	},
}

func init() {
	addProbeFlags(probeCmd, &probeOpts)
}

func addProbeFlags(cmd *cobra.Command, f *probeFlags) {
	cmd.Flags().StringSliceVar(&f.only, "only", nil, "probe only these providers (comma-separated)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "exit 2 when any probe fails")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile-collector file")
}

// newHarness builds a harness over the configured providers.
func newHarness(sc *SharedComponents, only []string) (*probe.Harness, error) {
	regs, err := probe.DefaultRegistrations(sc.Config.Probes, sc.Env, probe.CheckerOptions{
		Logger: sc.Logger,
		Wrap:   sc.Obs.WrapProvider,
	}, only)
	if err != nil {
		return nil, fmt.Errorf("--only: %w", err)
	}

	h := probe.NewHarness(sc.Env, sc.Logger,
		probe.WithConcurrency(sc.Config.Probes.Concurrency()),
		probe.WithRecorder(sc.Obs.Recorder()),
	)
	h.RegisterAll(regs)
	return h, nil
}

func runProbe(ctx context.Context, w io.Writer, sc *SharedComponents, f probeFlags) error {
	if f.metricsFile != "" {
		sc.ensureMetrics()
	}

	h, err := newHarness(sc, f.only)
	if err != nil {
		return err
	}
	report := h.Run(ctx)

	if f.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	} else if err := probe.WriteReport(w, report, useSymbols(w)); err != nil {
		return err
	}

	if f.metricsFile != "" {
		if err := sc.Obs.MetricsOrNil().WriteTextfile(f.metricsFile); err != nil {
			return err
		}
	}

	if f.strict && !report.AllPassed() {
		return &exitError{
			code: 2,
			err:  fmt.Errorf("%d of %d probes failed", len(report.Results)-report.Passed(), len(report.Results)),
		}
	}
	return nil
}

// useSymbols reports whether w is a terminal that can show status emoji.
func useSymbols(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
