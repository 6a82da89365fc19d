package client

import "errors"

// ErrPlatformUnavailable marks a failed chat platform call (role grant, DM).
var ErrPlatformUnavailable = errors.New("chat platform unavailable")

// ErrGatewayUnavailable marks a failed payment gateway call.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")
