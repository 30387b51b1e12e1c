// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package toolcall

import (
	"fmt"
	"io"
	"time"

	"github.com/bureau-foundation/voice-sandbox/lib/codec"
	"github.com/bureau-foundation/voice-sandbox/lib/sessionconfig"
)

// maxArchiveSize bounds how much ReadArchive will read.
const maxArchiveSize = 64 << 20

// ArchiveVersion is written into every archive. ReadArchive rejects
// archives from a newer format.
const ArchiveVersion = 1

// Archive is a recorded session: the configuration the session was
// started with and the tool calls it produced.
type Archive struct {
	Version   int                         `json:"version"`
	Config    sessionconfig.SessionConfig `json:"config"`
	StartedAt time.Time                   `json:"started_at"`
	EndedAt   time.Time                   `json:"ended_at"`
	Entries   []Entry                     `json:"entries"`
}

// WriteArchive encodes archive to w as a single CBOR item. Version is
// set to ArchiveVersion.
func WriteArchive(w io.Writer, archive Archive) error {
	archive.Version = ArchiveVersion
	if archive.Entries == nil {
		archive.Entries = []Entry{}
	}
	data, err := codec.Marshal(archive)
	if err != nil {
		return fmt.Errorf("encoding session archive: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing session archive: %w", err)
	}
	return nil
}

// ReadArchive decodes the archive held in r. Entries with no arguments
// come back with an empty map.
func ReadArchive(r io.Reader) (Archive, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxArchiveSize+1))
	if err != nil {
		return Archive{}, fmt.Errorf("reading session archive: %w", err)
	}
	if len(data) > maxArchiveSize {
		return Archive{}, fmt.Errorf("session archive exceeds %d bytes", maxArchiveSize)
	}
	var archive Archive
	if err := codec.Unmarshal(data, &archive); err != nil {
		return Archive{}, fmt.Errorf("decoding session archive: %w", err)
	}
	if archive.Version > ArchiveVersion {
		return Archive{}, fmt.Errorf("session archive version %d is newer than supported version %d", archive.Version, ArchiveVersion)
	}
	for index := range archive.Entries {
		if archive.Entries[index].Args == nil {
			archive.Entries[index].Args = make(map[string]any)
		}
	}
	return archive, nil
}
