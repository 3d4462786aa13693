// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package recorder

import (
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/rapidaai/voice-gateway/config"
	"github.com/rapidaai/voice-gateway/pkg/commons"
)

const (
	bytesPerSample = 2  // LINEAR16 → 2 bytes per sample
	bitsPerSample  = 16 // LINEAR16 → 16 bits per sample
	wavPCMFormat   = 1  // WAV PCM format tag
)

// segmentWriter owns at most one open WAV segment at a time. It is driven by
// a single session goroutine; no locking. Every lifecycle failure (mkdir,
// close, rename, delete, transcode) is logged and absorbed — the recorder is
// best-effort infrastructure riding alongside the live audio path and must
// never take it down.
type segmentWriter struct {
	cfg       config.RecordingConfig
	logger    commons.Logger
	deviceDir string
	sessionID string

	file    *os.File
	encoder *wav.Encoder
	path    string
	frames  int
	index   int

	// clock is injectable for testing; defaults to time.Now.
	clock func() time.Time
	// transcode is injectable for testing; defaults to ffmpegTranscode.
	transcode func(cfg config.RecordingConfig, wavPath, mp3Path string) error
}

func newSegmentWriter(cfg config.RecordingConfig, logger commons.Logger, deviceDir, sessionID string) *segmentWriter {
	return &segmentWriter{
		cfg:       cfg,
		logger:    logger,
		deviceDir: deviceDir,
		sessionID: sessionID,
		clock:     time.Now,
		transcode: ffmpegTranscode,
	}
}

// ensureOpen transitions Closed → Open. It creates the per-device, per-date
// directory, opens a fresh WAV file named after the segment's start moment
// and resets the frame counter. No-op when a segment is already open.
// Directory-already-exists races with concurrent sessions are harmless.
func (w *segmentWriter) ensureOpen() {
	if w.encoder != nil {
		return
	}

	now := w.clock()
	dir := filepath.Join(w.cfg.RootDir, w.deviceDir, now.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.logger.Warnf("recorder: unable to create segment directory %s: %v", dir, err)
		return
	}

	base := fmt.Sprintf("%s_%d_%s_%d_%s",
		now.Format("20060102_150405"),
		now.Unix(),
		w.sessionID,
		w.index,
		segmentRangeLabel(now, w.cfg.SegmentSeconds),
	)
	path := filepath.Join(dir, base+".wav")

	f, err := os.Create(path)
	if err != nil {
		w.logger.Warnf("recorder: unable to create segment file %s: %v", path, err)
		return
	}

	w.file = f
	w.encoder = wav.NewEncoder(f, w.cfg.SampleRate, bitsPerSample, w.cfg.Channels, wavPCMFormat)
	w.path = path
	w.frames = 0

	// The encoder only emits the RIFF header on the first data write. Push an
	// empty buffer now so a segment that never receives audio (e.g. every
	// packet fails to decode) still closes as a valid, playable container.
	if err := w.encoder.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: w.cfg.Channels,
			SampleRate:  w.cfg.SampleRate,
		},
		Data:           []int{},
		SourceBitDepth: bitsPerSample,
	}); err != nil {
		w.logger.Warnf("recorder: writing wav header for %s: %v", path, err)
	}
}

// segmentRangeLabel renders the segment's projected time span. The short
// HHMMSS-HHMMSS form is used unless the projected end falls on a different
// calendar day, in which case both endpoints carry the full date. The label
// always reflects start + configured duration, even when the segment is cut
// short; directory listings read as planned windows.
func segmentRangeLabel(start time.Time, segmentSeconds int) string {
	if segmentSeconds < 1 {
		segmentSeconds = 1
	}
	end := start.Add(time.Duration(segmentSeconds) * time.Second)
	if start.Format("20060102") != end.Format("20060102") {
		return start.Format("20060102150405") + "-" + end.Format("20060102150405")
	}
	return start.Format("150405") + "-" + end.Format("150405")
}

// write appends one PCM frame to the open segment. A trailing odd byte is
// dropped so the payload stays whole 16-bit samples; a frame that becomes
// empty is discarded. No-op when no segment is open.
func (w *segmentWriter) write(pcm []byte) {
	if w.encoder == nil {
		return
	}
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}
	if len(pcm) == 0 {
		return
	}

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	if err := w.encoder.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: w.cfg.Channels,
			SampleRate:  w.cfg.SampleRate,
		},
		Data:           samples,
		SourceBitDepth: bitsPerSample,
	}); err != nil {
		w.logger.Warnf("recorder: segment write failed: %v", err)
		return
	}
	w.frames += len(pcm) / bytesPerSample / w.cfg.Channels
}

// rotateIfNeeded finalizes the open segment once it holds a full
// segment's worth of audio. Rotation is driven purely by accumulated frames,
// never wall-clock time, so it stays correct under stalled or bursty input.
func (w *segmentWriter) rotateIfNeeded() {
	if w.encoder == nil {
		return
	}
	if w.frames >= w.cfg.SegmentSeconds*w.cfg.SampleRate {
		w.finalize(false)
		w.index++
	}
}

// finalize transitions Open → Closed: close the WAV, rename it to embed the
// configured and actual durations, transcode to MP3 and optionally drop the
// raw file. With force=false an empty segment is deleted outright; force=true
// (session end) persists it regardless so a too-short final segment survives.
func (w *segmentWriter) finalize(force bool) {
	if w.encoder == nil {
		return
	}

	encoder, file, path, frames := w.encoder, w.file, w.path, w.frames
	w.encoder = nil
	w.file = nil
	w.path = ""
	w.frames = 0

	if err := encoder.Close(); err != nil {
		w.logger.Warnf("recorder: closing wav encoder for %s: %v", path, err)
	}
	if err := file.Close(); err != nil {
		w.logger.Warnf("recorder: closing segment file %s: %v", path, err)
	}

	if frames == 0 && !force {
		if err := os.Remove(path); err != nil {
			w.logger.Warnf("recorder: removing empty segment %s: %v", path, err)
		}
		return
	}

	actualMS := int64(frames) * 1000 / int64(w.cfg.SampleRate)
	renamed := fmt.Sprintf("%s_seg%ds_len%dms.wav",
		strings.TrimSuffix(path, ".wav"), w.cfg.SegmentSeconds, actualMS)
	if err := os.Rename(path, renamed); err != nil {
		w.logger.Warnf("recorder: renaming segment %s: %v", path, err)
		renamed = path
	}

	if _, err := exec.LookPath(w.cfg.FFmpegPath); err != nil {
		// No transcoder available — the WAV is the durable artifact.
		w.logger.Debugf("recorder: %s not found, keeping %s", w.cfg.FFmpegPath, renamed)
		return
	}

	mp3Path := strings.TrimSuffix(renamed, ".wav") + ".mp3"
	if err := w.transcode(w.cfg, renamed, mp3Path); err != nil {
		w.logger.Warnf("recorder: transcoding %s: %v", renamed, err)
		return
	}
	w.logger.Infof("recorder: segment finalized device=%s session=%s len=%dms file=%s",
		w.deviceDir, w.sessionID, actualMS, mp3Path)

	if !w.cfg.KeepWAV {
		if err := os.Remove(renamed); err != nil {
			w.logger.Warnf("recorder: removing transcoded wav %s: %v", renamed, err)
		}
	}
}
