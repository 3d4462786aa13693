package recordings

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rapidaai/voice-gateway/config"
	"github.com/rapidaai/voice-gateway/pkg/commons"
	"github.com/rapidaai/voice-gateway/pkg/utils"
)

// safeFileName bounds what a download request may name: exactly one
// transcoded artifact, no separators, no traversal.
var safeFileName = regexp.MustCompile(`^[a-zA-Z0-9._-]+\.mp3$`)

// RecordingFile describes one finalized recording artifact.
type RecordingFile struct {
	FileName     string `json:"fileName"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"lastModified"`
}

// Service lists and resolves finalized recordings straight off the segment
// layout: root/<sanitized-device>/<date>/<name>.mp3. The filesystem is the
// source of truth; there is no index to drift out of sync.
type Service struct {
	rootDir string
	logger  commons.Logger
}

func NewService(cfg config.RecordingConfig, logger commons.Logger) *Service {
	return &Service{rootDir: cfg.RootDir, logger: logger}
}

func (s *Service) deviceRoot(deviceID string) string {
	return filepath.Join(s.rootDir, utils.SanitizeDeviceID(deviceID))
}

// List returns every transcoded recording for the device, newest first. A
// missing device directory is an empty list, not an error.
func (s *Service) List(deviceID string) []RecordingFile {
	results := []RecordingFile{}
	root := s.deviceRoot(deviceID)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(strings.ToLower(info.Name()), ".mp3") {
			return nil
		}
		results = append(results, RecordingFile{
			FileName:     info.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime().UnixMilli(),
		})
		return nil
	})
	if err != nil {
		s.logger.Warnf("recordings: listing %s: %v", root, err)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].LastModified > results[j].LastModified
	})
	return results
}

// Resolve maps a requested file name to its on-disk path. The name must be a
// plain mp3 name; the file is searched recursively under the device root
// (recordings live in per-date subdirectories) and the resolved path must
// stay inside that root.
func (s *Service) Resolve(deviceID, fileName string) (string, bool) {
	if !safeFileName.MatchString(fileName) {
		return "", false
	}
	root := s.deviceRoot(deviceID)

	var found string
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || found != "" {
			return nil
		}
		if info.Name() == fileName {
			found = path
		}
		return nil
	})
	if found == "" {
		return "", false
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	absFound, err := filepath.Abs(found)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(absFound, absRoot+string(filepath.Separator)) {
		return "", false
	}
	return absFound, true
}
