// Package capture bridges a live display stream to still image artifacts.
package capture

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrPermissionDenied is returned (possibly wrapped) by a DisplaySource
	// when the user or platform refuses the stream.
	ErrPermissionDenied = errors.New("display capture permission denied")
	// ErrUnavailable is returned when no display stream can be provided
	ErrUnavailable = errors.New("display capture unavailable")
)

// DisplaySource is the platform facility providing video-only display streams
type DisplaySource interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is a live display stream owned by a Session
type Stream interface {
	// Frame returns the current frame at the stream's native resolution
	Frame() (image.Image, error)
	// OnEnded registers a callback fired when the platform ends the stream
	// out of band (e.g. the user stops sharing from the system UI).
	OnEnded(fn func())
	// Stop releases every track of the stream
	Stop()
}

// PreviewSink displays the live stream while sharing
type PreviewSink interface {
	Attach(s Stream)
	Detach()
}

type nopPreview struct{}

func (nopPreview) Attach(Stream) {}
func (nopPreview) Detach()       {}
