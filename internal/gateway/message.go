// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package gateway

// MessageType defines the type of a text control frame and what data to
// expect alongside it. Binary frames never carry an envelope; they are raw
// audio packets in the session's negotiated format.
type MessageType string

const (
	// Bidirectional
	TypeHello MessageType = "hello" // Data: AudioParams (client), SessionID (server ack)
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"

	// Server -> client
	TypeError MessageType = "error"
)

// ControlMessage is the envelope for text frames in both directions.
type ControlMessage struct {
	Type        MessageType  `json:"type"`
	SessionID   string       `json:"session_id,omitempty"`
	Transport   string       `json:"transport,omitempty"`
	AudioParams *AudioParams `json:"audio_params,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// AudioParams describes the audio the client is about to send. Only the
// format is negotiable; sample rate and channel count are fixed by server
// configuration and echoed back in the hello ack.
type AudioParams struct {
	Format        string `json:"format"` // "opus" or "pcm"
	SampleRate    int    `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	FrameDuration int    `json:"frame_duration,omitempty"`
}
