// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package gateway

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rapidaai/voice-gateway/config"
)

const testSecret = "gateway-test-secret"

func signToken(t *testing.T, secret string, issuedAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": issuedAt.Unix(),
		"sub": "device",
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestVerifyDisabledAcceptsEverything(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{Enabled: false})
	if err := a.Verify("", "any-device"); err != nil {
		t.Errorf("disabled auth must accept, got %v", err)
	}
}

func TestVerifyValidToken(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{Enabled: true, Secret: testSecret})
	tok := signToken(t, testSecret, time.Now())

	if err := a.Verify("Bearer "+tok, "dev"); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}
	// Raw token without the Bearer prefix is accepted too.
	if err := a.Verify(tok, "dev"); err != nil {
		t.Errorf("raw token rejected: %v", err)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{Enabled: true, Secret: testSecret})

	if err := a.Verify("", "dev"); err == nil {
		t.Error("missing token must be rejected")
	}
	if err := a.Verify("Bearer not-a-jwt", "dev"); err == nil {
		t.Error("garbage token must be rejected")
	}
	wrong := signToken(t, "other-secret", time.Now())
	if err := a.Verify("Bearer "+wrong, "dev"); err == nil {
		t.Error("token signed with another secret must be rejected")
	}
}

func TestVerifyEnforcesTokenAge(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{Enabled: true, Secret: testSecret, ExpireSeconds: 60})
	now := time.Now()
	a.now = func() time.Time { return now }

	fresh := signToken(t, testSecret, now.Add(-30*time.Second))
	if err := a.Verify("Bearer "+fresh, "dev"); err != nil {
		t.Errorf("fresh token rejected: %v", err)
	}
	stale := signToken(t, testSecret, now.Add(-120*time.Second))
	if err := a.Verify("Bearer "+stale, "dev"); err == nil {
		t.Error("stale token must be rejected")
	}
}

func TestVerifyAllowedDeviceSkipsToken(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{
		Enabled:        true,
		Secret:         testSecret,
		AllowedDevices: []string{"AA:BB:CC:DD:EE:FF"},
	})
	if err := a.Verify("", "aa:bb:cc:dd:ee:ff"); err != nil {
		t.Errorf("allow-listed device rejected: %v", err)
	}
	if err := a.Verify("", "11:22:33:44:55:66"); err == nil {
		t.Error("unlisted device without token must be rejected")
	}
}
