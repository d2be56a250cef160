// Command appscan scans an exported solution package, or a saved DOM
// snapshot of a portal page, from the command line and prints the findings
// as JSON, Markdown or HTML.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/a11ylab/appscan/internal/engine"
	"github.com/a11ylab/appscan/internal/report"
	"github.com/a11ylab/appscan/internal/rules"
	"github.com/a11ylab/appscan/internal/scan"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("appscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "markdown", "output format: json, markdown or html")
	rulesPath := fs.String("rules", "", "path to a YAML rule catalog override")
	verbose := fs.Bool("v", false, "log parsing detail to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: appscan [options] <solution.zip | snapshot.html>\n\n")
		fmt.Fprintln(stderr, "Scans an exported solution package, or a saved DOM snapshot of a")
		fmt.Fprintln(stderr, "portal page (.html), for accessibility issues.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if len(fs.Args()) != 1 {
		fmt.Fprintln(stderr, "error: exactly one package file argument is required")
		fs.Usage()
		return 2
	}
	switch *format {
	case "json", "markdown", "html":
	default:
		fmt.Fprintf(stderr, "error: unknown format %q\n", *format)
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	catalog := rules.Default()
	if *rulesPath != "" {
		f, err := os.Open(*rulesPath)
		if err != nil {
			fmt.Fprintf(stderr, "error opening rules config: %v\n", err)
			return 1
		}
		catalog, err = engine.ApplyCatalog(f, catalog)
		f.Close()
		if err != nil {
			fmt.Fprintf(stderr, "error in rules config: %v\n", err)
			return 1
		}
	}

	target := fs.Arg(0)
	data, err := os.ReadFile(target)
	if err != nil {
		fmt.Fprintf(stderr, "error reading input: %v\n", err)
		return 1
	}

	opts := scan.Options{
		Rules: catalog,
		Log:   log,
	}
	var res *scan.Result
	switch strings.ToLower(filepath.Ext(target)) {
	case ".html", ".htm":
		res, err = scan.ScanSnapshot(context.Background(), target, data, opts)
	default:
		res, err = scan.ScanPackage(context.Background(), data, opts)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error scanning %s: %v\n", target, err)
		return 1
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "error encoding result: %v\n", err)
			return 1
		}
	case "markdown":
		fmt.Fprint(stdout, report.Markdown(res))
	case "html":
		out, err := report.HTML(res)
		if err != nil {
			fmt.Fprintf(stderr, "error rendering report: %v\n", err)
			return 1
		}
		stdout.Write(out)
	}

	// Findings surface through the exit code so CI gates can use it.
	for _, app := range res.Apps {
		if len(app.Result.Findings) > 0 {
			return 3
		}
	}
	return 0
}
