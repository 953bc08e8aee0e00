// Package filesource provides a display source whose frames are read from an
// image file kept up to date by an external recorder.
package filesource

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
	"time"

	"github.com/anime-shed/ux-critique-go/internal/capture"
	"github.com/anime-shed/ux-critique-go/internal/logger"
)

// DefaultPollInterval is how often an open stream checks that its file still exists
const DefaultPollInterval = 500 * time.Millisecond

// Source acquires streams backed by a single image file
type Source struct {
	path         string
	pollInterval time.Duration
}

// New creates a source reading frames from path
func New(path string, pollInterval time.Duration) *Source {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Source{path: path, pollInterval: pollInterval}
}

// Acquire opens a stream. An unreadable file is reported as a permission
// denial, a missing one as unavailable.
func (s *Source) Acquire(ctx context.Context) (capture.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", capture.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%w: %v", capture.ErrUnavailable, err)
	}
	f.Close()

	st := &stream{
		path: s.path,
		done: make(chan struct{}),
	}
	go st.watch(s.pollInterval)
	return st, nil
}

type stream struct {
	path string

	mu       sync.Mutex
	onEnded  []func()
	ended    bool
	stopOnce sync.Once
	done     chan struct{}
}

func (s *stream) Frame() (image.Image, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return img, nil
}

func (s *stream) OnEnded(fn func()) {
	s.mu.Lock()
	if !s.ended {
		s.onEnded = append(s.onEnded, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

func (s *stream) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *stream) watch(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
				logger.WithField("path", s.path).Info("Capture file removed, ending stream")
				s.end()
				return
			}
		}
	}
}

func (s *stream) end() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	callbacks := s.onEnded
	s.onEnded = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
