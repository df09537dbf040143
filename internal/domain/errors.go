package domain

import "errors"

var (
	// ErrNotFound marks an expected provider record that is missing: no
	// matching meter point, agreement, meter, smart device, telemetry reading
	// or tariff entry.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable marks a network or HTTP failure talking to the
	// energy provider or the messaging platform.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
