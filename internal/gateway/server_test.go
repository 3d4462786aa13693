// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidaai/voice-gateway/config"
	"github.com/rapidaai/voice-gateway/pkg/commons"
)

func newTestServer(t *testing.T, recordingRoot string) *httptest.Server {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-gateway"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	require.NoError(t, err)

	cfg := &config.AppConfig{
		Name:     "test-gateway",
		Version:  "0.0.1",
		Host:     "127.0.0.1",
		Port:     0,
		HTTPPort: 0,
		LogLevel: "debug",
		LogPath:  t.TempDir(),
		Recording: config.RecordingConfig{
			Enabled:        true,
			RootDir:        recordingRoot,
			SegmentSeconds: 1,
			SampleRate:     16000,
			Channels:       1,
			MP3Bitrate:     "64k",
			FFmpegPath:     "ffmpeg-does-not-exist-a53c1",
		},
	}
	ts := httptest.NewServer(NewServer(cfg, logger))
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + query
}

func collectRecordings(root string) []string {
	var files []string
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, rel)
		}
		return nil
	})
	return files
}

func waitForRecordings(t *testing.T, root string, want int) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if files := collectRecordings(root); len(files) >= want {
			return files
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d recordings under %s", want, root)
	return nil
}

func TestPlainHTTPRequestAnswersLiveness(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Server is running\n", string(body))
}

func TestSessionRecordsPCMStream(t *testing.T) {
	root := t.TempDir()
	ts := newTestServer(t, root)

	header := http.Header{}
	header.Set("device-id", "AA:BB:CC")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), header)
	require.NoError(t, err)

	// Negotiate PCM; the ack echoes the session parameters.
	require.NoError(t, conn.WriteJSON(ControlMessage{
		Type:        TypeHello,
		AudioParams: &AudioParams{Format: "pcm"},
	}))
	var ack ControlMessage
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, TypeHello, ack.Type)
	assert.NotEmpty(t, ack.SessionID)
	require.NotNil(t, ack.AudioParams)
	assert.Equal(t, "pcm", ack.AudioParams.Format)
	assert.Equal(t, 16000, ack.AudioParams.SampleRate)

	// 200ms of audio, then a clean close ends the session.
	frame := make([]byte, 6400)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame))
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	files := waitForRecordings(t, root, 1)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0], "AA_BB_CC/"), "device dir must be sanitized: %s", files[0])
	assert.Contains(t, files[0], ack.SessionID)
	assert.Contains(t, files[0], "_len200ms.wav")
}

func TestSessionWithoutDeviceIDFallsBackToUnknown(t *testing.T) {
	root := t.TempDir()
	ts := newTestServer(t, root)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "?device-id="), nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(ControlMessage{
		Type:        TypeHello,
		AudioParams: &AudioParams{Format: "pcm"},
	}))
	var ack ControlMessage
	require.NoError(t, conn.ReadJSON(&ack))

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 320)))
	conn.Close()

	files := waitForRecordings(t, root, 1)
	assert.True(t, strings.HasPrefix(files[0], "unknown/"), "got %s", files[0])
}

func TestPingGetsPong(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ControlMessage{Type: TypePing}))
	var pong ControlMessage
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, TypePong, pong.Type)
}
