// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

// opusFrameDuration is the frame length used for silence and for Ogg
// pages whose granule position does not advance.
const opusFrameDuration = 20 * time.Millisecond

// opusSampleRate is the Opus RTP clock rate (RFC 7587).
const opusSampleRate = 48000

// opusSilence is a complete 20 ms Opus packet (TOC 0xf8: CELT-only
// fullband, mono, one frame) that decodes to silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

// AudioSource produces the Opus packets sent as the operator's
// microphone.
type AudioSource interface {
	// NextFrame returns the next Opus packet and how long it plays.
	// io.EOF ends the source; the session then sends silence.
	NextFrame() ([]byte, time.Duration, error)

	Close() error
}

// AudioOpener creates the AudioSource for one session.
type AudioOpener func() (AudioSource, error)

// Silence is an AudioSource of endless silent frames. It keeps the
// bot's input open without speaking.
type Silence struct{}

func (Silence) NextFrame() ([]byte, time.Duration, error) {
	return opusSilence, opusFrameDuration, nil
}

func (Silence) Close() error { return nil }

// SilenceOpener opens a Silence source.
func SilenceOpener() (AudioSource, error) { return Silence{}, nil }

// OggOpusSource reads Opus packets from an Ogg container, one packet
// per page as written by common encoders for streaming
// (ffmpeg -page_duration 20000, pion oggwriter).
type OggOpusSource struct {
	reader      *oggreader.OggReader
	closer      io.Closer
	lastGranule uint64
}

// NewOggOpusSource parses the Opus identification header of r.
// closer, if non-nil, is closed by Close.
func NewOggOpusSource(r io.Reader, closer io.Closer) (*OggOpusSource, error) {
	reader, header, err := oggreader.NewWith(r)
	if err != nil {
		return nil, fmt.Errorf("reading Ogg Opus header: %w", err)
	}
	if header.SampleRate == 0 || header.Channels == 0 {
		return nil, errors.New("Ogg Opus header has no channels or sample rate")
	}
	return &OggOpusSource{reader: reader, closer: closer}, nil
}

// OggFileOpener returns an AudioOpener that reads the Ogg Opus file at
// path, reopened for every session.
func OggFileOpener(path string) AudioOpener {
	return func() (AudioSource, error) {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		source, err := NewOggOpusSource(file, file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return source, nil
	}
}

// NextFrame returns the next audio page, skipping the comment header.
func (s *OggOpusSource) NextFrame() ([]byte, time.Duration, error) {
	for {
		page, pageHeader, err := s.reader.ParseNextPage()
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, 0, io.EOF
			}
			return nil, 0, err
		}
		if _, isHeader := pageHeader.HeaderType(page); isHeader {
			continue
		}

		duration := opusFrameDuration
		if pageHeader.GranulePosition > s.lastGranule {
			samples := pageHeader.GranulePosition - s.lastGranule
			duration = time.Duration(samples) * time.Second / opusSampleRate
		}
		s.lastGranule = pageHeader.GranulePosition
		return page, duration, nil
	}
}

func (s *OggOpusSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
