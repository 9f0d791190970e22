package core

import (
	"errors"
)

var (
	// ErrGPUHung is returned when a frame fence does not signal within the
	// configured timeout. It is not recoverable.
	ErrGPUHung             = errors.New("gpu did not signal the frame fence in time")
	ErrTooManyObjects      = errors.New("render object count exceeds the object buffer capacity")
	ErrDuplicateResource   = errors.New("resource already registered under this name")
	ErrInvalidFrameState   = errors.New("frame slot used out of order")
	ErrInvalidAlignment    = errors.New("alignment must be a power of two")
	ErrInvalidRenderObject = errors.New("render object without mesh or material")
	ErrQueueFlushed        = errors.New("deletion queue already flushed")
	ErrNotInitialized      = errors.New("renderer not initialized")
)
