// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bureau-foundation/voice-sandbox/lib/sessionconfig"
)

func runConfig(ctx context.Context, app *app, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("config: expected show, get, set, or fields")
	}

	if args[0] == "fields" {
		for _, field := range sessionconfig.Fields() {
			fmt.Fprintf(stdout, "%-16s %s\n", field, field.Key())
		}
		return nil
	}

	store, release, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	switch args[0] {
	case "show":
		if len(args) != 1 {
			return fmt.Errorf("config show takes no arguments")
		}
		encoded, err := json.MarshalIndent(store.Snapshot(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(encoded))
		return nil

	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: config get <field>")
		}
		field, err := sessionconfig.ParseField(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, store.Get(field))
		return nil

	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: config set <field> <value>")
		}
		field, err := sessionconfig.ParseField(args[1])
		if err != nil {
			return err
		}
		if err := store.Set(ctx, field, args[2]); err != nil {
			return err
		}
		app.logger.Info("config updated", "field", string(field))
		return nil

	default:
		return fmt.Errorf("config: unknown subcommand %q", args[0])
	}
}
