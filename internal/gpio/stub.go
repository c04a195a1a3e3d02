//go:build !linux

package gpio

import (
	"errors"
	"io"
)

// RealChip is not available on non-Linux platforms.
type RealChip struct{}

// NewRealChip returns an error on non-Linux platforms.
func NewRealChip(name string) (*RealChip, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Output is not implemented on non-Linux platforms.
func (c *RealChip) Output(offset int) (Line, error) {
	return nil, errors.New("gpio: not supported")
}

// WatchRising is not implemented on non-Linux platforms.
func (c *RealChip) WatchRising(offset int, onEdge func()) (io.Closer, error) {
	return nil, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (c *RealChip) Close() error {
	return nil
}
