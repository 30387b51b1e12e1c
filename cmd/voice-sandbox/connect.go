// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/voice-sandbox/lib/botlaunch"
	"github.com/bureau-foundation/voice-sandbox/lib/clock"
	"github.com/bureau-foundation/voice-sandbox/lib/session"
	"github.com/bureau-foundation/voice-sandbox/lib/sessionconfig"
	"github.com/bureau-foundation/voice-sandbox/lib/toolcall"
	"github.com/bureau-foundation/voice-sandbox/transport"
)

// httpTimeout bounds each launch and signaling request.
const httpTimeout = 30 * time.Second

// eventPrinter serializes the lines written from controller and
// recorder callbacks.
type eventPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *eventPrinter) state(status session.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if status.Err != nil {
		fmt.Fprintf(p.w, "state %s error=%q\n", status.State, status.Err.Error())
		return
	}
	fmt.Fprintf(p.w, "state %s\n", status.State)
}

func (p *eventPrinter) toolCall(entry toolcall.Entry) {
	encoded, err := json.Marshal(entry)
	if err != nil {
		encoded = []byte(fmt.Sprintf("%q", entry.Name))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "tool_call %s\n", encoded)
}

func runConnect(ctx context.Context, app *app, args []string, stdout io.Writer) error {
	var archivePath string
	var audioPath string
	var overrides []string

	flagSet := pflag.NewFlagSet("connect", pflag.ContinueOnError)
	flagSet.StringVar(&archivePath, "archive", "", "write the recorded session to this file (default: a timestamped file in archive_dir, if configured)")
	flagSet.StringArrayVar(&overrides, "set", nil, "override a field for this session only, as field=value (repeatable)")
	flagSet.StringVar(&audioPath, "audio", "", "Ogg Opus file sent as the operator's microphone (default: silence)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("connect: unexpected argument %q", flagSet.Arg(0))
	}

	store, release, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	sessionConfig, err := applyOverrides(store.Snapshot(), overrides)
	if err != nil {
		return err
	}

	audio := transport.AudioOpener(transport.SilenceOpener)
	if audioPath != "" {
		audio = transport.OggFileOpener(audioPath)
		// Reject a bad file before launching a bot for it.
		source, err := audio()
		if err != nil {
			return fmt.Errorf("--audio: %w", err)
		}
		source.Close()
	}

	controller, recorder, states, err := app.newController(stdout, audio)
	if err != nil {
		return err
	}

	// An interrupt during Connect supersedes the attempt instead of
	// failing it.
	stopDisconnect := context.AfterFunc(ctx, func() { controller.Disconnect() })
	defer stopDisconnect()

	startedAt := time.Now()
	if err := controller.Connect(context.WithoutCancel(ctx), sessionConfig); err != nil {
		controller.Close()
		if session.IsKind(err, session.KindAborted) {
			app.logger.Info("connect interrupted")
			return nil
		}
		return err
	}
	app.logger.Info("session running, interrupt to disconnect")

	var sessionErr error
wait:
	for {
		select {
		case <-ctx.Done():
			break wait
		case status := <-states:
			switch status.State {
			case session.StateDisconnected:
				break wait
			case session.StateError:
				sessionErr = status.Err
				break wait
			}
		}
	}

	closeErr := controller.Close()
	endedAt := time.Now()

	if archivePath == "" && app.config.ArchiveDir != "" {
		archivePath = filepath.Join(app.config.ArchiveDir,
			"session-"+startedAt.UTC().Format("20060102T150405Z")+".cbor")
	}
	var archiveErr error
	if archivePath != "" {
		archiveErr = writeArchive(archivePath, toolcall.Archive{
			Config:    sessionConfig,
			StartedAt: startedAt.UTC(),
			EndedAt:   endedAt.UTC(),
			Entries:   recorder.List(),
		})
		if archiveErr == nil {
			app.logger.Info("session archived", "path", archivePath, "entries", recorder.Len())
		}
	}

	if sessionErr != nil {
		sessionErr = fmt.Errorf("session failed: %w", sessionErr)
	}
	return errors.Join(sessionErr, closeErr, archiveErr)
}

// newController wires a Controller to the configured bot-launch
// server and WebRTC transport, printing state changes and tool calls to
// stdout. Statuses are also delivered on the returned channel. audio
// supplies the operator's side of each call.
func (a *app) newController(stdout io.Writer, audio transport.AudioOpener) (*session.Controller, *toolcall.Recorder, <-chan session.Status, error) {
	httpClient := &http.Client{Timeout: httpTimeout}

	launcher, err := botlaunch.New(a.config.APIURL, httpClient, a.logger)
	if err != nil {
		return nil, nil, nil, err
	}
	dialer, err := a.newDialer(httpClient, audio)
	if err != nil {
		return nil, nil, nil, err
	}
	connectTimeout, err := a.config.ConnectTimeoutDuration()
	if err != nil {
		return nil, nil, nil, err
	}

	printer := &eventPrinter{w: stdout}
	recorder := toolcall.NewRecorder(clock.Real())
	recorder.Subscribe(func(change toolcall.Change) {
		if change.Kind == toolcall.ChangeAppended {
			printer.toolCall(change.Entry)
		}
	})

	states := make(chan session.Status, 64)
	controller, err := session.New(session.Options{
		Launcher:       launcher,
		Dialer:         dialer,
		Recorder:       recorder,
		Logger:         a.logger,
		ConnectTimeout: connectTimeout,
		OnStateChange: func(status session.Status) {
			printer.state(status)
			select {
			case states <- status:
			default:
			}
		},
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return controller, recorder, states, nil
}

func (a *app) newDialer(httpClient *http.Client, audio transport.AudioOpener) (transport.Dialer, error) {
	if a.dialer != nil {
		return a.dialer, nil
	}
	iceConfig, err := a.iceConfig()
	if err != nil {
		return nil, err
	}
	return transport.NewWebRTCDialer(transport.WebRTCOptions{
		Signaler:  transport.NewHTTPSignaler(httpClient),
		ICEConfig: iceConfig,
		Audio:     audio,
		Logger:    a.logger,
	})
}

// applyOverrides applies field=value pairs to a copy of config.
func applyOverrides(config sessionconfig.SessionConfig, overrides []string) (sessionconfig.SessionConfig, error) {
	for _, override := range overrides {
		name, value, found := strings.Cut(override, "=")
		if !found {
			return config, fmt.Errorf("--set %q: expected field=value", override)
		}
		field, err := sessionconfig.ParseField(name)
		if err != nil {
			return config, fmt.Errorf("--set: %w", err)
		}
		config, err = config.With(field, value)
		if err != nil {
			return config, fmt.Errorf("--set %s: %w", name, err)
		}
	}
	return config, nil
}

func writeArchive(path string, archive toolcall.Archive) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	if err := toolcall.WriteArchive(file, archive); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
