package secrets

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// QuoteStyle selects the syntax of generated export scripts.
type QuoteStyle string

const (
	StyleDouble QuoteStyle = "double" // export NAME="value"
	StyleSingle QuoteStyle = "single" // export NAME='value'
	StyleDotenv QuoteStyle = "dotenv" // NAME="value"
)

// ParseQuoteStyle validates a style name. Empty selects StyleDouble.
func ParseQuoteStyle(s string) (QuoteStyle, error) {
	switch QuoteStyle(strings.ToLower(s)) {
	case "", StyleDouble:
		return StyleDouble, nil
	case StyleSingle:
		return StyleSingle, nil
	case StyleDotenv:
		return StyleDotenv, nil
	}
	return "", fmt.Errorf("unknown export style %q (want double, single or dotenv)", s)
}

// ShellOptions configures WriteShell.
type ShellOptions struct {
	Style         QuoteStyle
	Script        bool // Emit a shebang header and a trailing echo summary.
	StripNonASCII bool
}

// WriteShell writes one assignment per name in names that is set in env,
// in the order given, and returns how many were written.
func WriteShell(w io.Writer, env Environment, names []string, opts ShellOptions) (int, error) {
	vals := make(map[string]string, len(names))
	var order []string
	for _, name := range names {
		v, ok := env.Lookup(name)
		if !ok {
			continue
		}
		if opts.StripNonASCII {
			v = stripNonASCII(v)
		}
		vals[name] = v
		order = append(order, name)
	}

	if opts.Style == StyleDotenv {
		out, err := godotenv.Marshal(vals)
		if err != nil {
			return 0, fmt.Errorf("marshaling dotenv: %w", err)
		}
		if _, err := io.WriteString(w, out+"\n"); err != nil {
			return 0, err
		}
		return len(vals), nil
	}

	bw := bufio.NewWriter(w)
	if opts.Script {
		bw.WriteString("#!/bin/bash\n")
	}
	for _, name := range order {
		switch opts.Style {
		case StyleSingle:
			fmt.Fprintf(bw, "export %s=%s\n", name, SingleQuote(vals[name]))
		default:
			fmt.Fprintf(bw, "export %s=%s\n", name, DoubleQuote(vals[name]))
		}
	}
	if opts.Script {
		fmt.Fprintf(bw, "echo %s\n", SingleQuote(fmt.Sprintf("Exported %d decoded environment variables to shell", len(order))))
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("writing export script: %w", err)
	}
	return len(order), nil
}

// WriteShellFile writes the export script to path with owner-only permissions.
func WriteShellFile(path string, env Environment, names []string, opts ShellOptions) (int, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("creating export file %s: %w", path, err)
	}
	n, err := WriteShell(f, env, names, opts)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing export file %s: %w", path, cerr)
	}
	return n, err
}

var doubleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")

// DoubleQuote quotes v for a POSIX shell double-quoted context.
func DoubleQuote(v string) string {
	return `"` + doubleQuoteEscaper.Replace(v) + `"`
}

// SingleQuote quotes v for a POSIX shell single-quoted context.
func SingleQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'"'"'`) + "'"
}

func stripNonASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 127 {
			return -1
		}
		return r
	}, s)
}

// DecodeInPlace decodes each set variable in names and overwrites it when
// decoding changed the value. It returns the names that were rewritten.
func DecodeInPlace(env Environment, names []string) ([]string, error) {
	var updated []string
	for _, name := range names {
		raw, ok := env.Lookup(name)
		if !ok {
			continue
		}
		decoded := Decode(raw)
		if decoded == "" || decoded == raw {
			continue
		}
		if err := env.Set(name, decoded); err != nil {
			return updated, fmt.Errorf("setting %s: %w", name, err)
		}
		updated = append(updated, name)
	}
	return updated, nil
}

// Mask hides all but the edges of a secret for display.
func Mask(v string) string {
	if len(v) > 12 {
		return v[:8] + "..." + v[len(v)-4:]
	}
	return "***"
}
