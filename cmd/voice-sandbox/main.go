// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/voice-sandbox/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the flags accepted before the command name.
type globalOptions struct {
	configPath string
	apiURL     string
	logLevel   string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var options globalOptions
	var showVersion bool

	flagSet := pflag.NewFlagSet("voice-sandbox", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&options.configPath, "config", "", "path to config file (default: $VOICE_SANDBOX_CONFIG, else built-in defaults)")
	flagSet.StringVar(&options.apiURL, "api-url", "", "bot-launch server base URL (overrides config and environment)")
	flagSet.StringVar(&options.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printUsage(stderr, flagSet)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "voice-sandbox %s\n", version.Info())
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return errors.New("no command given")
	}

	command, commandArgs := rest[0], rest[1:]
	switch command {
	case "config", "connect", "archive":
	case "version":
		fmt.Fprintln(stdout, version.Full())
		return nil
	default:
		return fmt.Errorf("unknown command %q (run voice-sandbox --help)", command)
	}

	app, err := newApp(options, stderr)
	if err != nil {
		return err
	}

	switch command {
	case "config":
		return runConfig(ctx, app, commandArgs, stdout)
	case "connect":
		return runConnect(ctx, app, commandArgs, stdout)
	default:
		return runArchive(app, commandArgs, stdout)
	}
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `voice-sandbox - configure and exercise a voice-agent bot

USAGE
    voice-sandbox [flags] <command> [args...]

COMMANDS
    config show                  Print the persisted session configuration
    config get <field>           Print one field
    config set <field> <value>   Change one field and persist it
    config fields                List fields and their storage keys
    connect [--archive <path>] [--set field=value ...] [--audio <file.ogg>]
                                 Launch a bot with the current configuration,
                                 connect to it, and print state changes and
                                 tool calls until interrupted; --audio streams
                                 an Ogg Opus file as the microphone
    archive show <path>          Print a recorded session as JSON
    version                      Print detailed version information

FIELDS
    system_prompt, activity_prompt, mode (three_tier|s2s),
    stt_provider, llm_provider, tts_provider, s2s_provider

EXAMPLES
    voice-sandbox config set mode s2s
    voice-sandbox --api-url http://bots.internal:7860 connect --archive session.cbor

FLAGS
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
