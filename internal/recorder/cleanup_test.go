// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func seedFile(t *testing.T, root string, parts []string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(append([]string{root}, parts[:len(parts)-1]...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, parts[len(parts)-1])
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCleanupExpiredRemovesOldFilesAndEmptyDirs(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.RetentionDays = 7
	logger := newTestLogger(t)

	old := seedFile(t, cfg.RootDir, []string{"dev1", "2026-08-01", "a.mp3"}, 10*24*time.Hour)
	fresh := seedFile(t, cfg.RootDir, []string{"dev1", "2026-08-24", "b.mp3"}, 24*time.Hour)

	if removed := CleanupExpired(cfg, logger, time.Now()); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired file should be gone")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file should remain: %v", err)
	}
	// The emptied date directory is pruned; the device directory still holds
	// the fresh date and stays.
	if _, err := os.Stat(filepath.Dir(old)); !os.IsNotExist(err) {
		t.Error("emptied date directory should be pruned")
	}
	if _, err := os.Stat(filepath.Dir(fresh)); err != nil {
		t.Errorf("non-empty directory must stay: %v", err)
	}
}

func TestCleanupExpiredDisabledRetentionTouchesNothing(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.RetentionDays = 0
	// Ancient file; with retention disabled it must survive.
	path := seedFile(t, cfg.RootDir, []string{"dev1", "2020-01-01", "a.mp3"}, 6*365*24*time.Hour)

	if removed := CleanupExpired(cfg, newTestLogger(t), time.Now()); removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should remain with retention disabled: %v", err)
	}
}

func TestCleanupExpiredKeepsFreshFiles(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.RetentionDays = 7
	path := seedFile(t, cfg.RootDir, []string{"dev1", "2026-08-25", "a.mp3"}, time.Hour)

	if removed := CleanupExpired(cfg, newTestLogger(t), time.Now()); removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should remain: %v", err)
	}
}
