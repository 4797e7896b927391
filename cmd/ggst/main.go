// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Ggst queries the game's statistics API from the command line and can
// serve the same lookups to local consumers through the gateway.
//
// Exit codes: 0 on success, 1 on a recoverable failure or usage error,
// 2 when login or replay retrieval failed. A supervisor is expected to
// restart the process on 2.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/luxfi/ggst"
)

const (
	exitOK    = 0
	exitError = 1
	exitFatal = 2
)

const usage = `usage: ggst [--config file] [--base-url url] [--log-level level] <command> [args]

commands:
  stats <player-id>             print the player's statistics JSON
  avatar <player-id> [-o file]  write the player's avatar image
  login                         perform a login and print the token
  replays                       print the most recent replays as JSON
  token                         print the last persisted token
  serve [--listen addr] [--transport json|grpc]
                                serve lookups through the gateway
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := pflag.NewFlagSet("ggst", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", os.Getenv(ggst.EnvConfig), "path to a YAML config file (env GGST_CONFIG)")
	baseURL := global.String("base-url", "", "override the API base URL")
	logLevel := global.String("log-level", "info", "log level: debug, info, warn, error")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return exitError
	}

	logger, err := newLogger(stderr, *logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "ggst: %v\n", err)
		return exitError
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "ggst: %v\n", err)
		return exitError
	}
	cfg.ApplyEnv(os.Getenv)
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command, commandArgs := rest[0], rest[1:]
	if command == "token" {
		return exitCode(logger, stderr, runToken(ctx, cfg, stdout))
	}

	client, err := ggst.New(cfg, ggst.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "ggst: %v\n", err)
		return exitError
	}
	defer client.Close()

	switch command {
	case "stats":
		err = runStats(ctx, client, commandArgs, stdout)
	case "avatar":
		err = runAvatar(ctx, client, commandArgs, stdout, stderr)
	case "login":
		err = runLogin(ctx, client, stdout)
	case "replays":
		err = runReplays(ctx, client, stdout)
	case "serve":
		err = runServe(ctx, client, commandArgs, logger, stderr)
	default:
		fmt.Fprintf(stderr, "ggst: unknown command %q\n\n%s", command, usage)
		return exitError
	}
	return exitCode(logger, stderr, err)
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func loadConfig(path string) (ggst.Config, error) {
	if path == "" {
		return ggst.DefaultConfig(), nil
	}
	return ggst.LoadConfig(path)
}

// exitCode maps a command result onto the process exit status.
func exitCode(logger *slog.Logger, stderr io.Writer, err error) int {
	switch {
	case err == nil:
		return exitOK
	case ggst.IsFatal(err):
		logger.Error("fatal failure, exiting for restart", "error", err)
		return exitFatal
	default:
		fmt.Fprintf(stderr, "ggst: %v\n", err)
		return exitError
	}
}

func runStats(ctx context.Context, client *ggst.Client, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: ggst stats <player-id>")
	}
	stats, err := client.PlayerStats(ctx, args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, stats)
	return err
}

func runAvatar(ctx context.Context, client *ggst.Client, args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("avatar", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	output := flags.StringP("output", "o", "", "write the image to this file instead of stdout")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: ggst avatar <player-id> [-o file]")
	}
	png, err := client.PlayerAvatar(ctx, flags.Arg(0))
	if err != nil {
		return err
	}
	if *output != "" {
		return os.WriteFile(*output, png, 0o644)
	}
	_, err = stdout.Write(png)
	return err
}

func runLogin(ctx context.Context, client *ggst.Client, stdout io.Writer) error {
	token, err := client.Token(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}

func runReplays(ctx context.Context, client *ggst.Client, stdout io.Writer) error {
	replays, err := client.Replays(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(replays)
}

func runToken(ctx context.Context, cfg ggst.Config, stdout io.Writer) error {
	store, closeStore, err := ggst.NewTokenStore(cfg.TokenStore)
	if err != nil {
		return err
	}
	defer closeStore()
	token, err := store.Load(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}
