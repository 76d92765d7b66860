package bbtx

import "errors"

var (
	// ErrNotOpen indicates the channel is closed.
	ErrNotOpen = errors.New("channel not open")
)
