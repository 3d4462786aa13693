// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package gateway accepts live device websocket connections and feeds every
// received audio packet into a per-session recorder. The gateway is the sole
// driver of each recorder: one read loop per connection, Close exactly once
// on the way out.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rapidaai/voice-gateway/config"
	"github.com/rapidaai/voice-gateway/pkg/commons"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	cfg    *config.AppConfig
	logger commons.Logger
	auth   *Authenticator
}

func NewServer(cfg *config.AppConfig, logger commons.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		auth:   NewAuthenticator(cfg.Auth),
	}
}

// ServeHTTP upgrades websocket requests into recording sessions. Plain HTTP
// requests get a liveness answer so probes and browsers see the server is up.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Server is running\n")
		return
	}

	headers := EffectiveHeaders(r)
	s.logger.Infof("gateway: connect attempt peer=%s device=%s client=%s",
		r.RemoteAddr, headers[headerDeviceID], headers[headerClientID])

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorf("gateway: websocket upgrade failed: %v", err)
		return
	}

	if err := s.auth.Verify(headers[headerAuthorization], headers[headerDeviceID]); err != nil {
		s.logger.Warnf("gateway: rejected device=%s: %v", headers[headerDeviceID], err)
		sendErrorAndClose(conn, "authentication failed")
		return
	}

	s.handleConnection(conn, headers)
}

// Run serves until the context is cancelled, then drains with a short
// shutdown grace period.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler: s,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Infof("gateway: listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway server: %w", err)
	}
	return nil
}

func sendErrorAndClose(conn *websocket.Conn, msg string) {
	_ = conn.WriteJSON(ControlMessage{Type: TypeError, Error: msg})
	_ = conn.Close()
}
