package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	frame image.Image

	mu      sync.Mutex
	onEnded func()
	stops   int32
}

func (f *fakeStream) Frame() (image.Image, error) { return f.frame, nil }

func (f *fakeStream) OnEnded(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onEnded = fn
}

func (f *fakeStream) Stop() { atomic.AddInt32(&f.stops, 1) }

// end simulates the platform terminating the stream
func (f *fakeStream) end() {
	f.mu.Lock()
	fn := f.onEnded
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeSource struct {
	stream   *fakeStream
	err      error
	acquires int
}

func (f *fakeSource) Acquire(ctx context.Context) (Stream, error) {
	f.acquires++
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

type recordingPreview struct {
	attached, detached int
}

func (r *recordingPreview) Attach(Stream) { r.attached++ }
func (r *recordingPreview) Detach()       { r.detached++ }

func testFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	return img
}

func TestSession_StopWhileIdleIsNoop(t *testing.T) {
	s := NewSession(&fakeSource{}, nil)

	assert.NotPanics(t, func() {
		s.StopSharing()
		s.StopSharing()
	})
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_StartAndStop(t *testing.T) {
	stream := &fakeStream{frame: testFrame(4, 3)}
	source := &fakeSource{stream: stream}
	preview := &recordingPreview{}
	s := NewSession(source, preview)

	require.NoError(t, s.StartSharing(context.Background()))
	assert.Equal(t, StateSharing, s.State())
	assert.Equal(t, 1, preview.attached)

	// Second start while sharing is a no-op
	require.NoError(t, s.StartSharing(context.Background()))
	assert.Equal(t, 1, source.acquires)

	s.StopSharing()
	assert.Equal(t, StateIdle, s.State())
	assert.EqualValues(t, 1, atomic.LoadInt32(&stream.stops))
	assert.Equal(t, 1, preview.detached)
}

func TestSession_EndedAfterStopDoesNotReleaseTwice(t *testing.T) {
	stream := &fakeStream{frame: testFrame(2, 2)}
	preview := &recordingPreview{}
	s := NewSession(&fakeSource{stream: stream}, preview)
	require.NoError(t, s.StartSharing(context.Background()))

	s.StopSharing()
	assert.NotPanics(t, stream.end)
	s.StopSharing()

	assert.EqualValues(t, 1, atomic.LoadInt32(&stream.stops))
	assert.Equal(t, 1, preview.detached)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_EndedEventReleases(t *testing.T) {
	stream := &fakeStream{frame: testFrame(2, 2)}
	s := NewSession(&fakeSource{stream: stream}, nil)
	require.NoError(t, s.StartSharing(context.Background()))

	stream.end()

	assert.Equal(t, StateIdle, s.State())
	assert.EqualValues(t, 1, atomic.LoadInt32(&stream.stops))

	s.StopSharing()
	assert.EqualValues(t, 1, atomic.LoadInt32(&stream.stops))
}

func TestSession_ConcurrentReleasePaths(t *testing.T) {
	stream := &fakeStream{frame: testFrame(2, 2)}
	s := NewSession(&fakeSource{stream: stream}, nil)
	require.NoError(t, s.StartSharing(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); s.StopSharing() }()
		go func() { defer wg.Done(); stream.end() }()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&stream.stops))
}

func TestSession_CaptureFrame(t *testing.T) {
	stream := &fakeStream{frame: testFrame(8, 5)}
	s := NewSession(&fakeSource{stream: stream}, nil)
	require.NoError(t, s.StartSharing(context.Background()))
	startGen := s.Generation()

	artifact, err := s.CaptureFrame()
	require.NoError(t, err)

	assert.Equal(t, "image/png", artifact.MimeType)
	assert.NotEmpty(t, artifact.ID)
	decoded, err := png.Decode(bytes.NewReader(artifact.Bytes))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 5), decoded.Bounds(), "native resolution is kept")

	// Sharing continues and the newer artifact supersedes the older one
	assert.Equal(t, StateSharing, s.State())
	second, err := s.CaptureFrame()
	require.NoError(t, err)
	assert.NotEqual(t, artifact.ID, second.ID)
	latest, gen, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, startGen+2, gen)
	assert.Equal(t, gen, s.Generation())
}

func TestSession_CaptureWithoutStream(t *testing.T) {
	stream := &fakeStream{frame: testFrame(2, 2)}
	s := NewSession(&fakeSource{stream: stream}, nil)

	_, err := s.CaptureFrame()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNoActiveStream))

	require.NoError(t, s.StartSharing(context.Background()))
	s.StopSharing()

	_, err = s.CaptureFrame()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNoActiveStream))
}

func TestSession_StartClearsPreviousArtifact(t *testing.T) {
	stream := &fakeStream{frame: testFrame(2, 2)}
	s := NewSession(&fakeSource{stream: stream}, nil)
	require.NoError(t, s.StartSharing(context.Background()))
	_, err := s.CaptureFrame()
	require.NoError(t, err)
	s.StopSharing()

	_, stoppedGen, ok := s.Snapshot()
	assert.True(t, ok, "artifact survives stop")

	require.NoError(t, s.StartSharing(context.Background()))
	_, gen, ok := s.Snapshot()
	assert.False(t, ok)
	assert.Greater(t, gen, stoppedGen)
}

func TestSession_AcquireFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType apperrors.ErrorType
	}{
		{"denied", ErrPermissionDenied, apperrors.ErrorTypePermissionDenied},
		{"wrapped denial", errors.Join(errors.New("user dismissed picker"), ErrPermissionDenied), apperrors.ErrorTypePermissionDenied},
		{"no display", ErrUnavailable, apperrors.ErrorTypeCaptureUnavailable},
		{"other", errors.New("compositor crashed"), apperrors.ErrorTypeCaptureUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{err: tt.err}
			s := NewSession(source, nil)

			err := s.StartSharing(context.Background())

			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			assert.Equal(t, StateIdle, s.State())
			assert.Equal(t, 1, source.acquires, "no retry")
		})
	}
}

// gatedSource blocks in Acquire until release is closed, like a permission prompt
type gatedSource struct {
	stream  *fakeStream
	waiting chan struct{}
	release chan struct{}
}

func (g *gatedSource) Acquire(ctx context.Context) (Stream, error) {
	close(g.waiting)
	<-g.release
	return g.stream, nil
}

func newGatedSource() *gatedSource {
	return &gatedSource{
		stream:  &fakeStream{frame: testFrame(2, 2)},
		waiting: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func TestSession_PendingAcquireDoesNotBlock(t *testing.T) {
	src := newGatedSource()
	s := NewSession(src, nil)

	done := make(chan error, 1)
	go func() { done <- s.StartSharing(context.Background()) }()
	<-src.waiting

	assert.Equal(t, StateIdle, s.State())
	_, err := s.CaptureFrame()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNoActiveStream), "got %v", err)
	assert.NoError(t, s.StartSharing(context.Background()), "second start while acquiring is a no-op")

	close(src.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateSharing, s.State())

	s.StopSharing()
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.stream.stops))
}

func TestSession_StopDuringAcquireDiscardsStream(t *testing.T) {
	src := newGatedSource()
	s := NewSession(src, nil)

	done := make(chan error, 1)
	go func() { done <- s.StartSharing(context.Background()) }()
	<-src.waiting

	s.StopSharing()
	close(src.release)

	err := <-done
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCaptureUnavailable), "got %v", err)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.stream.stops))

	// The session can start again afterwards
	src2 := newGatedSource()
	s.source = src2
	close(src2.release)
	require.NoError(t, s.StartSharing(context.Background()))
	assert.Equal(t, StateSharing, s.State())
}
