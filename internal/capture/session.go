package capture

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the sharing state of a Session
type State int

const (
	StateIdle State = iota
	StateSharing
)

func (s State) String() string {
	if s == StateSharing {
		return "sharing"
	}
	return "idle"
}

// activeStream pairs a stream with its release guard. Explicit stops and
// the stream's end callback both go through release.
type activeStream struct {
	id       string
	stream   Stream
	released atomic.Bool
}

// Session owns at most one display stream and the latest still captured from it
type Session struct {
	source  DisplaySource
	preview PreviewSink

	mu         sync.Mutex
	state      State
	active     *activeStream
	latest     *models.ImageArtifact
	generation uint64

	// Set while Acquire waits on the user. abortAcquire records a stop
	// requested during that wait.
	acquiring    bool
	abortAcquire bool
}

// NewSession creates an idle session. preview may be nil.
func NewSession(source DisplaySource, preview PreviewSink) *Session {
	if preview == nil {
		preview = nopPreview{}
	}
	return &Session{source: source, preview: preview}
}

// StartSharing acquires a display stream. It is a no-op while already sharing
// or while another acquisition is pending. No retry is attempted when
// acquisition fails. The session lock is not held while the source waits for
// permission.
func (s *Session) StartSharing(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateSharing || s.acquiring {
		s.mu.Unlock()
		return nil
	}
	s.acquiring = true
	s.abortAcquire = false
	s.mu.Unlock()

	stream, err := s.source.Acquire(ctx)

	s.mu.Lock()
	s.acquiring = false
	aborted := s.abortAcquire
	s.abortAcquire = false
	if err != nil {
		s.mu.Unlock()
		logger.WithError(err).Warn("Display stream acquisition failed")
		if errors.Is(err, ErrPermissionDenied) {
			return apperrors.NewPermissionDeniedError("screen sharing permission was denied", err)
		}
		return apperrors.NewCaptureUnavailableError("screen sharing is not available", err)
	}
	if aborted {
		s.mu.Unlock()
		stream.Stop()
		logger.Info("Screen sharing stopped before the stream was attached")
		return apperrors.NewCaptureUnavailableError("screen sharing was stopped before it started", nil)
	}

	a := &activeStream{id: uuid.NewString(), stream: stream}
	s.active = a
	s.state = StateSharing
	s.latest = nil
	s.generation++

	s.preview.Attach(stream)
	s.mu.Unlock()

	// Registered unlocked: a stream that has already ended may call back immediately
	stream.OnEnded(func() { s.release(a, "ended") })

	logger.WithField("stream_id", a.id).Info("Screen sharing started")
	return nil
}

// StopSharing releases the active stream. It is a no-op while idle. A stop
// during a pending acquisition discards the stream once it arrives.
func (s *Session) StopSharing() {
	s.mu.Lock()
	a := s.active
	if a == nil && s.acquiring {
		s.abortAcquire = true
	}
	s.mu.Unlock()

	if a == nil {
		return
	}
	s.release(a, "stopped")
}

// release stops a's tracks exactly once, whichever path gets here first
func (s *Session) release(a *activeStream, reason string) {
	if !a.released.CompareAndSwap(false, true) {
		return
	}

	a.stream.Stop()

	s.mu.Lock()
	if s.active == a {
		s.active = nil
		s.state = StateIdle
		s.preview.Detach()
	}
	s.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"stream_id": a.id,
		"reason":    reason,
	}).Info("Screen sharing ended")
}

// CaptureFrame encodes the current frame as PNG. Sharing continues and the
// new artifact replaces the previous one.
func (s *Session) CaptureFrame() (models.ImageArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSharing || s.active == nil {
		return models.ImageArtifact{}, apperrors.NewNoActiveStreamError()
	}

	frame, err := s.active.stream.Frame()
	if err != nil {
		return models.ImageArtifact{}, apperrors.NewCaptureUnavailableError("failed to read the current frame", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return models.ImageArtifact{}, apperrors.NewInternalError("failed to encode frame", err)
	}

	artifact := models.ImageArtifact{
		ID:         uuid.NewString(),
		Bytes:      buf.Bytes(),
		MimeType:   "image/png",
		Source:     "capture",
		CapturedAt: time.Now().UTC(),
	}
	s.latest = &artifact
	s.generation++

	bounds := frame.Bounds()
	logger.WithFields(logrus.Fields{
		"artifact_id": artifact.ID,
		"width":       bounds.Dx(),
		"height":      bounds.Dy(),
		"size_bytes":  len(artifact.Bytes),
	}).Info("Frame captured")

	return artifact, nil
}

// State returns the current sharing state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the latest artifact together with the generation it
// belongs to, read under one lock
func (s *Session) Snapshot() (models.ImageArtifact, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return models.ImageArtifact{}, s.generation, false
	}
	return *s.latest, s.generation, true
}

// Generation increments whenever the current artifact is invalidated
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}
