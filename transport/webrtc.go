// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/bureau-foundation/voice-sandbox/lib/clock"
)

// Compile-time interface checks.
var (
	_ Dialer  = (*WebRTCDialer)(nil)
	_ Session = (*webrtcSession)(nil)
)

// iceGatherTimeout is the maximum time to wait for ICE candidate
// gathering to complete before sending the offer.
const iceGatherTimeout = 15 * time.Second

// iceConnectTimeout is the maximum time to wait for the PeerConnection
// to reach the connected state after the answer is applied.
const iceConnectTimeout = 30 * time.Second

// dataChannelLabel names the RTVI data channel. The bot accepts
// whichever channel the client opens.
const dataChannelLabel = "chat"

// eventBufferSize bounds the events queued ahead of the consumer. A
// full buffer blocks the pion callback that produced the event rather
// than dropping it.
const eventBufferSize = 256

// errPeerConnectionFailed is reported when ICE or DTLS fails.
var errPeerConnectionFailed = errors.New("peer connection failed")

// WebRTCOptions configures a WebRTCDialer.
type WebRTCOptions struct {
	Signaler  Signaler
	ICEConfig ICEConfig

	// Audio opens the operator's outgoing audio for each session.
	// Defaults to SilenceOpener.
	Audio AudioOpener

	// Clock paces outgoing audio and bounds ICE gathering and
	// connection. Defaults to clock.Real().
	Clock clock.Clock

	Logger *slog.Logger
}

// WebRTCDialer establishes sessions with launched bots over pion/webrtc.
type WebRTCDialer struct {
	signaler  Signaler
	iceConfig ICEConfig
	audio     AudioOpener
	clock     clock.Clock
	logger    *slog.Logger

	// sessionCounter numbers sessions for log correlation.
	sessionCounter atomic.Uint64
}

// NewWebRTCDialer creates a dialer from options. Signaler and Logger
// are required.
func NewWebRTCDialer(options WebRTCOptions) (*WebRTCDialer, error) {
	if options.Signaler == nil {
		return nil, errors.New("transport: Signaler is required")
	}
	if options.Logger == nil {
		return nil, errors.New("transport: Logger is required")
	}
	if options.Audio == nil {
		options.Audio = SilenceOpener
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	return &WebRTCDialer{
		signaler:  options.Signaler,
		iceConfig: options.ICEConfig,
		audio:     options.Audio,
		clock:     options.Clock,
		logger:    options.Logger,
	}, nil
}

// Dial creates a PeerConnection, performs the offer/answer exchange, and
// waits for the connection to come up. On any failure, including ctx
// cancellation, the PeerConnection is closed before Dial returns.
func (d *WebRTCDialer) Dial(ctx context.Context, params RequestParams) (Session, error) {
	pc, err := d.newPeerConnection()
	if err != nil {
		return nil, fmt.Errorf("creating PeerConnection: %w", err)
	}

	sessionID := d.sessionCounter.Add(1)
	session := newWebRTCSession(pc, d.clock, d.logger.With("session", sessionID))

	established := false
	defer func() {
		if !established {
			session.Close()
		}
	}()

	// One sendrecv audio transceiver: the operator's audio goes out on
	// the local track, the bot's voice comes back on the same m-line.
	source, err := d.audio()
	if err != nil {
		return nil, fmt.Errorf("opening audio source: %w", err)
	}
	session.source = source
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: opusSampleRate, Channels: 2},
		"audio", "voice-sandbox",
	)
	if err != nil {
		return nil, fmt.Errorf("creating audio track: %w", err)
	}
	transceiver, err := pc.AddTransceiverFromTrack(track, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionSendrecv,
	})
	if err != nil {
		return nil, fmt.Errorf("adding audio transceiver: %w", err)
	}
	go drainRTCP(transceiver.Sender())

	ordered := true
	dataChannel, err := pc.CreateDataChannel(dataChannelLabel, &webrtc.DataChannelInit{
		Ordered: &ordered,
	})
	if err != nil {
		return nil, fmt.Errorf("creating data channel: %w", err)
	}
	session.attachDataChannel(dataChannel)

	pc.OnTrack(session.handleTrack)
	pc.OnConnectionStateChange(session.handleConnectionState)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("creating SDP offer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("setting local description: %w", err)
	}

	// Wait for ICE gathering to complete (vanilla ICE).
	select {
	case <-gatherComplete:
	case <-d.clock.After(iceGatherTimeout):
		return nil, fmt.Errorf("ICE gathering timed out after %s", iceGatherTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	answer, err := d.signaler.Exchange(ctx, params, SessionDescription{
		SDP:  pc.LocalDescription().SDP,
		Type: webrtc.SDPTypeOffer.String(),
	})
	if err != nil {
		return nil, err
	}

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answer.SDP,
	}); err != nil {
		return nil, fmt.Errorf("setting remote description: %w", err)
	}

	select {
	case <-session.connected:
	case <-session.ended:
		return nil, fmt.Errorf("connecting to bot: %w", session.endErr)
	case <-d.clock.After(iceConnectTimeout):
		return nil, fmt.Errorf("peer connection not established within %s", iceConnectTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	session.logger.Info("WebRTC session established",
		"endpoint", params.Endpoint,
		"pc_id", answer.PeerConnectionID,
	)
	established = true
	go session.sendAudio(track)
	return session, nil
}

// newPeerConnection creates a pion PeerConnection with the dialer's
// ICE servers.
func (d *WebRTCDialer) newPeerConnection() (*webrtc.PeerConnection, error) {
	config := webrtc.Configuration{
		ICEServers: d.iceConfig.Servers,
	}

	// Loopback candidates are required when the bot runs on the same
	// machine, the default development setup.
	settingEngine := webrtc.SettingEngine{}
	settingEngine.SetIncludeLoopbackCandidate(true)

	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("registering codecs: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithSettingEngine(settingEngine),
	)
	return api.NewPeerConnection(config)
}

// webrtcSession is one PeerConnection to a bot.
type webrtcSession struct {
	connection *webrtc.PeerConnection
	clock      clock.Clock
	logger     *slog.Logger

	// source is released by Close.
	source AudioSource

	events chan Event

	// connected is closed when the PeerConnection first reaches the
	// connected state.
	connected     chan struct{}
	connectedOnce sync.Once

	// ended is closed when the first terminal event (closed or failed)
	// is produced; endErr is written before.
	ended   chan struct{}
	endOnce sync.Once
	endErr  error

	// closed is closed by Close.
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error

	audioPackets atomic.Uint64
	audioFrames  atomic.Uint64
}

func newWebRTCSession(connection *webrtc.PeerConnection, c clock.Clock, logger *slog.Logger) *webrtcSession {
	return &webrtcSession{
		connection: connection,
		clock:      c,
		logger:     logger,
		events:     make(chan Event, eventBufferSize),
		connected:  make(chan struct{}),
		ended:      make(chan struct{}),
		closed:     make(chan struct{}),
	}
}

func (s *webrtcSession) Events() <-chan Event { return s.events }

func (s *webrtcSession) Done() <-chan struct{} { return s.closed }

// Close closes the PeerConnection. Events produced afterwards are
// discarded.
func (s *webrtcSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		if err := s.connection.Close(); err != nil {
			s.closeErr = fmt.Errorf("closing PeerConnection: %w", err)
		}
		if s.source != nil {
			if err := s.source.Close(); err != nil {
				s.logger.Warn("closing audio source failed", "error", err)
			}
		}
		s.logger.Info("WebRTC session closed",
			"audio_packets", s.audioPackets.Load(),
			"audio_frames_sent", s.audioFrames.Load(),
		)
	})
	return s.closeErr
}

func (s *webrtcSession) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// emit queues event for the consumer, or drops it once the session is
// closed.
func (s *webrtcSession) emit(event Event) {
	if s.isClosed() {
		return
	}
	select {
	case s.events <- event:
	case <-s.closed:
	}
}

// finish emits the session's terminal event. Only the first call has
// an effect.
func (s *webrtcSession) finish(event Event) {
	s.endOnce.Do(func() {
		s.endErr = event.Err
		if s.endErr == nil {
			s.endErr = errors.New("session closed by remote")
		}
		close(s.ended)
		s.emit(event)
	})
}

// attachDataChannel wires the RTVI data channel: announce the client
// when it opens, decode every message, and treat a remote close as the
// end of the session.
func (s *webrtcSession) attachDataChannel(dataChannel *webrtc.DataChannel) {
	dataChannel.OnOpen(func() {
		payload, err := clientReadyMessage()
		if err != nil {
			s.logger.Error("encoding client-ready message failed", "error", err)
			return
		}
		if err := dataChannel.SendText(string(payload)); err != nil {
			s.logger.Warn("sending client-ready failed", "error", err)
			return
		}
		s.logger.Debug("data channel open, client-ready sent", "label", dataChannel.Label())
	})

	dataChannel.OnMessage(func(message webrtc.DataChannelMessage) {
		event, ok := decodeRTVI(message.Data)
		if !ok {
			return
		}
		s.logger.Debug("RTVI event", "kind", event.Kind.String())
		s.emit(event)
	})

	dataChannel.OnClose(func() {
		if s.isClosed() {
			return
		}
		s.logger.Info("data channel closed by bot")
		s.finish(Event{Kind: EventClosed})
	})
}

// handleConnectionState tracks the PeerConnection lifecycle.
func (s *webrtcSession) handleConnectionState(state webrtc.PeerConnectionState) {
	s.logger.Info("peer connection state change", "state", state.String())

	switch state {
	case webrtc.PeerConnectionStateConnected:
		s.connectedOnce.Do(func() { close(s.connected) })

	case webrtc.PeerConnectionStateDisconnected:
		// ICE may recover on its own; Failed follows if it does not.

	case webrtc.PeerConnectionStateFailed:
		if s.isClosed() {
			return
		}
		s.finish(Event{Kind: EventFailed, Err: errPeerConnectionFailed})

	case webrtc.PeerConnectionStateClosed:
		if s.isClosed() {
			return
		}
		s.finish(Event{Kind: EventClosed})
	}
}

// handleTrack drains the bot's audio. Playback is out of scope; the
// packet count is reported when the session closes.
func (s *webrtcSession) handleTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	s.logger.Info("receiving bot audio",
		"codec", track.Codec().MimeType,
		"ssrc", uint32(track.SSRC()),
	)
	go func() {
		buffer := make([]byte, 1500)
		for {
			if _, _, err := track.Read(buffer); err != nil {
				return
			}
			s.audioPackets.Add(1)
		}
	}()
}

// sendAudio writes the source's frames to track at their playback
// pace until the session closes. After the source ends it keeps the
// track alive with silence.
func (s *webrtcSession) sendAudio(track *webrtc.TrackLocalStaticSample) {
	var source AudioSource = s.source
	for {
		frame, duration, err := source.NextFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("reading audio source failed, sending silence", "error", err)
			} else {
				s.logger.Debug("audio source finished, sending silence")
			}
			source = Silence{}
			continue
		}
		if err := track.WriteSample(media.Sample{Data: frame, Duration: duration}); err != nil {
			if s.isClosed() {
				return
			}
			s.logger.Debug("writing audio sample failed", "error", err)
		} else {
			s.audioFrames.Add(1)
		}

		select {
		case <-s.clock.After(duration):
		case <-s.closed:
			return
		}
	}
}

// drainRTCP reads RTCP for sender so pion's interceptors (NACK,
// reports) keep running.
func drainRTCP(sender *webrtc.RTPSender) {
	buffer := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buffer); err != nil {
			return
		}
	}
}
