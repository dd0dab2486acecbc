// shramsathi-admin inspects and repairs the local cache and sync queue of
// a ShramSathi installation.
//
// Usage:
//
//	shramsathi-admin [--env-file FILE] [--format json|yaml] status
//	shramsathi-admin [--env-file FILE] drain
//	shramsathi-admin [--env-file FILE] rebuild-relations
//	shramsathi-admin [--env-file FILE] reset --yes
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/shramsathi/shramsathi-backend-go/internal/app"
	"github.com/shramsathi/shramsathi-backend-go/internal/config"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var envFile string
	var format string
	var yes bool

	flagSet := pflag.NewFlagSet("shramsathi-admin", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&envFile, "env-file", ".env", "environment file to load before reading the environment")
	flagSet.StringVar(&format, "format", "json", "output format, json or yaml")
	flagSet.BoolVar(&yes, "yes", false, "confirm a destructive command")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if format != "json" && format != "yaml" {
		fmt.Fprintf(stderr, "unknown format %q\n", format)
		return exitUsage
	}

	rest := flagSet.Args()
	if len(rest) != 1 {
		printUsage(stderr, flagSet)
		return exitUsage
	}
	command := rest[0]
	switch command {
	case "status", "drain", "rebuild-relations":
	case "reset":
		if !yes {
			fmt.Fprintln(stderr, "reset removes every cached record and the queued writes; pass --yes to confirm")
			return exitUsage
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		printUsage(stderr, flagSet)
		return exitUsage
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	defer a.Close()

	var result any
	switch command {
	case "status":
		result, err = a.Storage.Status(ctx)
	case "drain":
		result, err = a.SyncQueue.Drain(ctx)
	case "rebuild-relations":
		var created int
		created, err = a.Storage.RebuildRelations(ctx)
		result = map[string]int{"created": created}
	case "reset":
		var removed int
		removed, err = a.Storage.Reset(ctx)
		result = map[string]int{"removed": removed}
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	if err := writeResult(stdout, format, result); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	return exitOK
}

func writeResult(w io.Writer, format string, result any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `Usage: shramsathi-admin [flags] <command>

Commands:
  status              show remote reachability, cache counts and queued writes
  drain               replay queued writes against the remote store now
  rebuild-relations   recreate cached contractor-worker links from cached users
  reset --yes         remove every cached record, queued write and the session

Flags:
%s`, flagSet.FlagUsages())
}
