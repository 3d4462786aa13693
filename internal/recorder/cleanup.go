// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package recorder

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rapidaai/voice-gateway/config"
	"github.com/rapidaai/voice-gateway/pkg/commons"
)

// StartCleanupTicker runs a background goroutine that periodically removes
// recording files older than the configured retention window and prunes the
// date directories they leave behind. With RetentionDays <= 0 the goroutine
// is never started. It stops when the provided context is cancelled.
func StartCleanupTicker(ctx context.Context, cfg config.RecordingConfig, logger commons.Logger, interval time.Duration) {
	if cfg.RetentionDays <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := CleanupExpired(cfg, logger, time.Now())
				if removed > 0 {
					logger.Infof("recorder: retention cleanup removed %d files", removed)
				}
			}
		}
	}()
}

// CleanupExpired deletes every recording file under the root whose mtime is
// older than RetentionDays relative to now. With RetentionDays <= 0 retention
// is disabled and nothing is touched. Best-effort: individual failures are
// logged and skipped.
func CleanupExpired(cfg config.RecordingConfig, logger commons.Logger, now time.Time) int {
	if cfg.RetentionDays <= 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	removed := 0
	var emptied []string
	err := filepath.Walk(cfg.RootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != cfg.RootDir {
				emptied = append(emptied, path)
			}
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				logger.Warnf("recorder: retention remove %s: %v", path, err)
				return nil
			}
			removed++
		}
		return nil
	})
	if err != nil {
		logger.Warnf("recorder: retention walk %s: %v", cfg.RootDir, err)
	}

	// Deepest directories first so nested empties collapse upward.
	for i := len(emptied) - 1; i >= 0; i-- {
		// Remove fails on non-empty directories, which is exactly what we want.
		_ = os.Remove(emptied[i])
	}
	return removed
}
