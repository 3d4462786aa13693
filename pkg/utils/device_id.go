package utils

import (
	"regexp"
	"strings"
)

// DeviceIDUnknown is the fallback token used when a connection does not
// present a usable device identifier.
const DeviceIDUnknown = "unknown"

var (
	deviceIDUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	deviceIDSafe   = regexp.MustCompile(`[a-zA-Z0-9._-]`)
)

// SanitizeDeviceID maps a raw, attacker-controllable device identifier to a
// filesystem-safe token. Runs of characters outside [a-zA-Z0-9._-] collapse
// to a single underscore. Empty input, or input with no safe character at
// all, yields DeviceIDUnknown.
func SanitizeDeviceID(deviceID string) string {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" || !deviceIDSafe.MatchString(deviceID) {
		return DeviceIDUnknown
	}
	return deviceIDUnsafe.ReplaceAllString(deviceID, "_")
}
