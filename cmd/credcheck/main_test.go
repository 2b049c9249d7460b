package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jkaninda/credcheck/internal/config"
	"github.com/jkaninda/credcheck/internal/secrets"
)

func testShared() *SharedComponents {
	return &SharedComponents{
		Config: config.Default(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Env:    secrets.NewMapEnvironment(nil),
	}
}

func TestNewLogger(t *testing.T) {
	for _, tt := range []struct {
		level, format string
		wantErr       bool
	}{
		{"", "", false},
		{"debug", "text", false},
		{"warn", "JSON", false},
		{"verbose", "text", true},
		{"info", "xml", true},
	} {
		_, err := newLogger(tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("newLogger(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
		}
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("2 of 8 probes failed")
	var err error = &exitError{code: 2, err: inner}

	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 2 {
		t.Fatalf("errors.As did not find exit code 2")
	}
	if !errors.Is(err, inner) {
		t.Error("exitError should unwrap to its cause")
	}
	if err.Error() != inner.Error() {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRunProbe_NoCredentials(t *testing.T) {
	var out bytes.Buffer
	err := runProbe(context.Background(), &out, testShared(), probeFlags{})
	if err != nil {
		t.Fatalf("runProbe() without --strict: %v", err)
	}
	if !strings.Contains(out.String(), "[FAIL] OpenAI API: credential not configured") {
		t.Errorf("missing OpenAI line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Some APIs failed (0/8 passed)") {
		t.Errorf("missing summary:\n%s", out.String())
	}
}

func TestRunProbe_Strict(t *testing.T) {
	err := runProbe(context.Background(), io.Discard, testShared(), probeFlags{strict: true, only: []string{"pypi"}})
	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected exitError, got %v", err)
	}
	if ee.code != 2 {
		t.Errorf("exit code = %d, want 2", ee.code)
	}
}

func TestRunProbe_UnknownProvider(t *testing.T) {
	err := runProbe(context.Background(), io.Discard, testShared(), probeFlags{only: []string{"gitlab"}})
	if err == nil || !strings.Contains(err.Error(), "gitlab") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestRunProbe_JSONAndMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credcheck.prom")
	var out bytes.Buffer
	err := runProbe(context.Background(), &out, testShared(), probeFlags{
		only:        []string{"github", "pypi"},
		json:        true,
		metricsFile: path,
	})
	if err != nil {
		t.Fatalf("runProbe() error: %v", err)
	}

	var report struct {
		RunID   string `json:"run_id"`
		Results []struct {
			Provider string `json:"provider"`
			Status   string `json:"status"`
		} `json:"results"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, out.String())
	}
	if report.RunID == "" {
		t.Error("run_id should be set")
	}
	if len(report.Results) != 2 || report.Results[0].Provider != "github" || report.Results[1].Provider != "pypi" {
		t.Fatalf("results = %+v", report.Results)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading metrics file: %v", err)
	}
	want := `credcheck_probe_runs_total{provider="github",status="failure"} 1`
	if !strings.Contains(string(data), want) {
		t.Errorf("metrics file missing %q:\n%s", want, data)
	}
}

func isolatedSecrets(t *testing.T, sc *SharedComponents) {
	t.Helper()
	dir := t.TempDir()
	sc.Config.Secrets = &config.SecretsConfig{
		File:      filepath.Join(dir, "absent.yaml"),
		DevMarker: filepath.Join(dir, "absent-marker"),
	}
}

func TestResolveAndExport_ThenProbe_GitHubTokenOnly(t *testing.T) {
	sc := testShared()
	sc.Env = secrets.NewMapEnvironment(map[string]string{"GITHUB_TOKEN": "Z2hwX2FiYzEyMw=="})
	isolatedSecrets(t, sc)

	sum, err := resolveAndExport(context.Background(), sc)
	if err != nil {
		t.Fatalf("resolveAndExport() error: %v", err)
	}
	if sum.Source != secrets.SourceEnvironment {
		t.Errorf("source = %q, want environment", sum.Source)
	}
	if sum.AIAvailable != 0 {
		t.Errorf("AIAvailable = %d, want 0", sum.AIAvailable)
	}
	if got, _ := sc.Env.Lookup("GITHUB_TOKEN"); got != "ghp_abc123" {
		t.Errorf("GITHUB_TOKEN = %q, want decoded ghp_abc123", got)
	}

	var out bytes.Buffer
	if err := runProbe(context.Background(), &out, sc, probeFlags{only: []string{"openai", "anthropic"}}); err != nil {
		t.Fatalf("runProbe() error: %v", err)
	}
	if !strings.Contains(out.String(), "[FAIL] OpenAI API: credential not configured") {
		t.Errorf("missing OpenAI line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "(0/2 passed)") {
		t.Errorf("missing summary:\n%s", out.String())
	}
}

func TestResolveAndExport_NoSecretsExitsOne(t *testing.T) {
	sc := testShared()
	isolatedSecrets(t, sc)

	_, err := resolveAndExport(context.Background(), sc)
	var ce *secrets.ContextError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *secrets.ContextError, got %v", err)
	}
	if ce.Context != secrets.ContextAutomated {
		t.Errorf("context = %q, want automated", ce.Context)
	}
	if code := exitCode(err); code != 1 {
		t.Errorf("exitCode() = %d, want 1", code)
	}
}

func TestExitCode(t *testing.T) {
	if code := exitCode(errors.New("boom")); code != 1 {
		t.Errorf("plain error: exit %d, want 1", code)
	}
	if code := exitCode(fmt.Errorf("probe: %w", &exitError{code: 2, err: errors.New("1 of 8 probes failed")})); code != 2 {
		t.Errorf("wrapped exitError: exit %d, want 2", code)
	}
}
