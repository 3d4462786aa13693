// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package gateway

import (
	"net/http"

	"github.com/rapidaai/voice-gateway/pkg/utils"
)

const (
	headerDeviceID      = "device-id"
	headerClientID      = "client-id"
	headerAuthorization = "authorization"
)

// EffectiveHeaders builds the identity fields for a connection, also
// accepting device/client/auth values from URL query parameters (used by
// test tools and simple clients) and falling back to safe defaults so
// header-less clients can connect when auth is disabled.
func EffectiveHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, 3)
	for _, key := range []string{headerDeviceID, headerClientID, headerAuthorization} {
		if v := r.Header.Get(key); v != "" {
			headers[key] = v
		}
	}

	query := r.URL.Query()
	for _, key := range []string{headerDeviceID, headerClientID, headerAuthorization} {
		if _, ok := headers[key]; !ok {
			if v := query.Get(key); v != "" {
				headers[key] = v
			}
		}
	}

	if headers[headerDeviceID] == "" {
		headers[headerDeviceID] = utils.DeviceIDUnknown
	}
	if headers[headerClientID] == "" {
		headers[headerClientID] = headers[headerDeviceID]
	}
	return headers
}
