// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package gateway

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rapidaai/voice-gateway/internal/recorder"
	"github.com/rapidaai/voice-gateway/pkg/commons"
)

// connection owns one live session: the websocket, its recorder and the
// negotiated audio format. All recorder calls happen on the read loop
// goroutine, which is the serialization the recorder requires.
type connection struct {
	logger    commons.Logger
	conn      *websocket.Conn
	rec       *recorder.SessionRecorder
	format    recorder.Format
	deviceID  string
	sessionID string
}

// handleConnection drives one session to completion. The recorder is closed
// in a deferred path so the final segment is finalized even on abnormal
// termination.
func (s *Server) handleConnection(conn *websocket.Conn, headers map[string]string) {
	sessionID := uuid.NewString()
	c := &connection{
		logger:    s.logger,
		conn:      conn,
		rec:       recorder.NewSessionRecorder(s.cfg.Recording, s.logger, headers[headerDeviceID], sessionID),
		format:    recorder.FormatOpus, // firmware default; hello may switch to pcm
		deviceID:  headers[headerDeviceID],
		sessionID: sessionID,
	}

	defer func() {
		c.rec.Close()
		_ = conn.Close()
		s.logger.Infof("gateway: session ended device=%s session=%s", c.deviceID, c.sessionID)
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warnf("gateway: read error device=%s session=%s: %v", c.deviceID, c.sessionID, err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.rec.Append(data, c.format)
		case websocket.TextMessage:
			c.handleControl(data)
		}
	}
}

func (c *connection) handleControl(data []byte) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debugf("gateway: malformed control frame device=%s: %v", c.deviceID, err)
		return
	}

	switch msg.Type {
	case TypeHello:
		if msg.AudioParams != nil && msg.AudioParams.Format == "pcm" {
			c.format = recorder.FormatPCM
		} else {
			c.format = recorder.FormatOpus
		}
		_ = c.conn.WriteJSON(ControlMessage{
			Type:      TypeHello,
			SessionID: c.sessionID,
			Transport: "websocket",
			AudioParams: &AudioParams{
				Format:     formatName(c.format),
				SampleRate: c.rec.SampleRate(),
				Channels:   c.rec.Channels(),
			},
		})
	case TypePing:
		_ = c.conn.WriteJSON(ControlMessage{Type: TypePong})
	}
}

func formatName(f recorder.Format) string {
	if f == recorder.FormatPCM {
		return "pcm"
	}
	return "opus"
}
