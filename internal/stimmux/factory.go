package stimmux

import (
	"fmt"

	"go.bug.st/serial"
)

// NewRealMux opens the stimulator console at the given device path and wraps
// it in a Mux.
func NewRealMux(path string, opts PortOptions) (*Mux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("opening console port %s: %w", path, err)
	}
	return NewMux[serial.Port](port), nil
}
