// Package camera finds a working capture device among a list of candidate indices.
package camera

import (
	"github.com/pkg/errors"

	"webcamdetect/internal/logger"
)

// ErrCameraUnavailable is returned when no candidate device opens and delivers a frame.
var ErrCameraUnavailable = errors.New("could not open any camera")

// Capture is an opened video device that reads into frames of type F.
type Capture[F any] interface {
	IsOpened() bool
	Read(frame F) bool
	SetResolution(width, height int)
	Close() error
}

// Opener opens the device at index. A non-nil Capture may still report
// IsOpened() == false.
type Opener[F any] func(index int) (Capture[F], error)

// Acquirer tries candidate device indices in order.
type Acquirer[F any] struct {
	open   Opener[F]
	probe  F
	logger *logger.Logger
}

// NewAcquirer returns an Acquirer that reads its probe frame into probe.
func NewAcquirer[F any](open Opener[F], probe F, logger *logger.Logger) *Acquirer[F] {
	return &Acquirer[F]{open: open, probe: probe, logger: logger}
}

// TryOpen opens the device at index and returns it only if it also delivers
// a frame. Devices that open but cannot be read are closed.
func (a *Acquirer[F]) TryOpen(index int) (Capture[F], bool) {
	c, err := a.open(index)
	if err != nil {
		a.logger.Warning("Camera index %d: %v", index, err)
		return nil, false
	}
	if c == nil {
		a.logger.Warning("Camera index %d: opener returned no capture", index)
		return nil, false
	}

	if !c.IsOpened() {
		a.logger.Warning("Camera index %d could not be opened", index)
		c.Close()
		return nil, false
	}

	if !c.Read(a.probe) {
		a.logger.Warning("Camera index %d opened but delivered no frame", index)
		c.Close()
		return nil, false
	}

	return c, true
}

// Acquire returns the first device in indices that passes TryOpen, along
// with its index. Later indices are never tried once one succeeds.
func (a *Acquirer[F]) Acquire(indices []int) (Capture[F], int, error) {
	a.logger.Info("Trying to open cameras...")

	for i, idx := range indices {
		if i > 0 {
			a.logger.Info("Trying camera index %d...", idx)
		}
		if c, ok := a.TryOpen(idx); ok {
			a.logger.Info("Camera opened successfully! (index %d)", idx)
			return c, idx, nil
		}
	}

	return nil, -1, errors.Wrapf(ErrCameraUnavailable, "tried indices %v", indices)
}
