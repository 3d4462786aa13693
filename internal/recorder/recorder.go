// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package recorder persists session audio as fixed-duration WAV segments with
// MP3 siblings. Everything here is best-effort: decode, filesystem and
// external-tool failures are swallowed so the live audio path is never
// interrupted by its own recording.
package recorder

import (
	"encoding/binary"

	opus "gopkg.in/hraban/opus.v2"

	"github.com/rapidaai/voice-gateway/config"
	"github.com/rapidaai/voice-gateway/pkg/commons"
	"github.com/rapidaai/voice-gateway/pkg/utils"
)

// Format tags an incoming audio packet.
type Format uint8

const (
	FormatPCM Format = iota
	FormatOpus
)

// opusFrameSamples is the decode buffer size in samples per channel,
// matching the 60ms upper bound the firmware emits at 16kHz.
const opusFrameSamples = 960

// opusDecoder is the stateful stream decoder contract; satisfied by
// *opus.Decoder and by test fakes.
type opusDecoder interface {
	Decode(packet []byte, pcm []int16) (int, error)
}

// SessionRecorder ingests one live session's audio packets, decoding Opus
// where needed and forwarding PCM to the segment writer. One instance is
// bound to exactly one session and must be driven from a single goroutine;
// the connection's read loop is that driver.
type SessionRecorder struct {
	cfg    config.RecordingConfig
	logger commons.Logger
	writer *segmentWriter

	// decoder is created lazily on the first Opus packet and reused for the
	// session; Opus decoders are stream-stateful, a fresh one per packet
	// would break decode continuity.
	decoder    opusDecoder
	newDecoder func(sampleRate, channels int) (opusDecoder, error)
}

// NewSessionRecorder binds a recorder to one session. The device identifier
// is sanitized before it touches any path; the session identifier is assumed
// unique for the connection's lifetime.
func NewSessionRecorder(cfg config.RecordingConfig, logger commons.Logger, deviceID, sessionID string) *SessionRecorder {
	return &SessionRecorder{
		cfg:    cfg,
		logger: logger,
		writer: newSegmentWriter(cfg, logger, utils.SanitizeDeviceID(deviceID), sessionID),
		newDecoder: func(sampleRate, channels int) (opusDecoder, error) {
			return opus.NewDecoder(sampleRate, channels)
		},
	}
}

// SampleRate reports the configured PCM sample rate in Hz.
func (r *SessionRecorder) SampleRate() int { return r.cfg.SampleRate }

// Channels reports the configured channel count.
func (r *SessionRecorder) Channels() int { return r.cfg.Channels }

// Append ingests one audio packet. It never returns an error and never
// panics: recording failures must not disrupt the live stream. Disabled
// recording and empty packets are silent no-ops.
func (r *SessionRecorder) Append(packet []byte, format Format) {
	if !r.cfg.Enabled || len(packet) == 0 {
		return
	}

	r.writer.ensureOpen()

	switch format {
	case FormatPCM:
		r.writer.write(packet)
	case FormatOpus:
		if pcm := r.decodeOpus(packet); len(pcm) > 0 {
			r.writer.write(pcm)
		}
	}

	r.writer.rotateIfNeeded()
}

// Close ends the session: the current segment is finalized even when it is
// shorter than the configured duration. Must be called exactly once, from a
// guaranteed-cleanup path.
func (r *SessionRecorder) Close() {
	r.writer.finalize(true)
}

// decodeOpus decodes one packet with the session's lazily-created decoder.
// Any failure — including decoder construction — drops the packet and
// returns nil.
func (r *SessionRecorder) decodeOpus(packet []byte) []byte {
	if r.decoder == nil {
		dec, err := r.newDecoder(r.cfg.SampleRate, r.cfg.Channels)
		if err != nil {
			r.logger.Warnf("recorder: opus decoder init failed: %v", err)
			return nil
		}
		r.decoder = dec
	}

	buf := make([]int16, opusFrameSamples*r.cfg.Channels)
	n, err := r.decoder.Decode(packet, buf)
	if err != nil || n <= 0 {
		return nil
	}

	pcm := make([]byte, n*r.cfg.Channels*bytesPerSample)
	for i, s := range buf[:n*r.cfg.Channels] {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}
