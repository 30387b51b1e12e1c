// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/voice-sandbox/lib/toolcall"
)

func runArchive(app *app, args []string, stdout io.Writer) error {
	if len(args) != 2 || args[0] != "show" {
		return fmt.Errorf("usage: archive show <path>")
	}

	file, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer file.Close()

	archive, err := toolcall.ReadArchive(file)
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	app.logger.Debug("archive loaded", "path", args[1], "entries", len(archive.Entries))

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(archive)
}
