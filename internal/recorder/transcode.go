// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package recorder

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/rapidaai/voice-gateway/config"
)

// ffmpegTranscode produces an MP3 sibling of the finalized WAV segment by
// invoking the configured ffmpeg binary synchronously. A zero exit code is
// success; anything else surfaces as an error (and the caller keeps the WAV).
func ffmpegTranscode(cfg config.RecordingConfig, wavPath, mp3Path string) error {
	cmd := exec.Command(cfg.FFmpegPath,
		"-y",
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-i", wavPath,
		"-codec:a", "libmp3lame",
		"-b:a", cfg.MP3Bitrate,
		mp3Path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w (%s)", cfg.FFmpegPath, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}
