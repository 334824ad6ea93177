package mipblur

import "errors"

var (
	// ErrNoMaterial is returned when a pass is created without a filter
	// material.
	ErrNoMaterial = errors.New("mipblur: blur material is required")
	// ErrNoDevice is returned when a pass is created without a device.
	ErrNoDevice = errors.New("mipblur: device is required")
	// ErrInvalidEvent is returned for a PassEvent outside the known range.
	ErrInvalidEvent = errors.New("mipblur: invalid pass event")
	// ErrInvalidTarget is returned when the camera buffer is nil or empty.
	ErrInvalidTarget = errors.New("mipblur: invalid camera target")
	// ErrInvalidSequence is returned when Configure, Execute and Release are
	// called out of order.
	ErrInvalidSequence = errors.New("mipblur: invalid call sequence")
	// ErrFrameSkipped wraps a per-frame failure after which the camera buffer
	// is left unmodified.
	ErrFrameSkipped = errors.New("mipblur: frame skipped")
	// ErrOutOfMemory is returned by devices that cannot allocate a texture.
	ErrOutOfMemory = errors.New("mipblur: out of texture memory")
	// ErrUnsupportedMaterial is returned by a device asked to draw a
	// material type it cannot bind.
	ErrUnsupportedMaterial = errors.New("mipblur: unsupported material")
)
