// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rapidaai/voice-gateway/config"
)

// ErrAuthenticationFailed is returned for any rejected connection; the
// specific reason is logged server-side only.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Authenticator verifies device bearer tokens. When disabled every
// connection passes. Devices on the allow list skip token verification
// entirely.
type Authenticator struct {
	cfg     config.AuthConfig
	allowed map[string]struct{}

	// now is injectable for testing.
	now func() time.Time
}

func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	allowed := make(map[string]struct{}, len(cfg.AllowedDevices))
	for _, d := range cfg.AllowedDevices {
		allowed[strings.ToLower(d)] = struct{}{}
	}
	return &Authenticator{cfg: cfg, allowed: allowed, now: time.Now}
}

// Verify checks the connection's authorization value for the given device.
func (a *Authenticator) Verify(authorization, deviceID string) error {
	if !a.cfg.Enabled {
		return nil
	}
	if _, ok := a.allowed[strings.ToLower(deviceID)]; ok {
		return nil
	}

	raw := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	if raw == "" {
		return ErrAuthenticationFailed
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return ErrAuthenticationFailed
	}

	if a.cfg.ExpireSeconds > 0 {
		issued, err := token.Claims.GetIssuedAt()
		if err != nil || issued == nil {
			return ErrAuthenticationFailed
		}
		if a.now().After(issued.Add(time.Duration(a.cfg.ExpireSeconds) * time.Second)) {
			return ErrAuthenticationFailed
		}
	}
	return nil
}
