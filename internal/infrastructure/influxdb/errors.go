package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when the config has the audit
	// trail switched off.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed wraps a failed initial ping.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is the health check result for a client that is
	// not connected.
	ErrNotConnected = errors.New("influxdb: not connected")
)
