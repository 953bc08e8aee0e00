// Package workspace ties a capture session, the saved credentials and the
// analysis pipeline together for a single local user.
package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anime-shed/ux-critique-go/internal/analysis"
	"github.com/anime-shed/ux-critique-go/internal/capture"
	"github.com/anime-shed/ux-critique-go/internal/credentials"
	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/internal/frame"
	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrStaleResult is returned when a new capture or sharing session started
// while the analysis was running. The late result is dropped.
var ErrStaleResult = errors.New("analysis result discarded: a newer capture exists")

// Workspace holds at most one artifact and at most one pending analysis
type Workspace struct {
	session   *capture.Session
	creds     credentials.Store
	pipeline  *analysis.Pipeline
	inspector frame.Inspector

	mu      sync.Mutex
	pending bool
}

// New creates a workspace. creds must already be loaded.
func New(session *capture.Session, creds credentials.Store, pipeline *analysis.Pipeline) *Workspace {
	return &Workspace{
		session:   session,
		creds:     creds,
		pipeline:  pipeline,
		inspector: frame.NewInspector(frame.DefaultOptions()),
	}
}

// StartSharing asks the display source for a stream
func (w *Workspace) StartSharing(ctx context.Context) error {
	return w.session.StartSharing(ctx)
}

// StopSharing releases the stream if one is active
func (w *Workspace) StopSharing() {
	w.session.StopSharing()
}

// Capture grabs a frame, superseding the previous artifact and any
// analysis still running against it. The report flags blank frames; they
// are kept and may still be analyzed.
func (w *Workspace) Capture() (models.ImageArtifact, frame.Report, error) {
	artifact, err := w.session.CaptureFrame()
	if err != nil {
		return models.ImageArtifact{}, frame.Report{}, err
	}

	report, err := w.inspector.InspectArtifact(artifact)
	if err != nil {
		logger.WithError(err).WithField("artifact_id", artifact.ID).Warn("Could not inspect captured frame")
		return artifact, frame.Report{}, nil
	}
	if report.Blank {
		logger.WithFields(logrus.Fields{
			"artifact_id":       artifact.ID,
			"dark":              report.Dark,
			"average_luminance": report.AvgLuminance,
		}).Warn("Captured frame looks blank")
	}
	return artifact, report, nil
}

// Pending reports whether an analysis is running
func (w *Workspace) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// SaveKey stores the secret for provider
func (w *Workspace) SaveKey(provider models.Provider, secret string) error {
	return w.creds.Save(models.Credential{Provider: provider, Secret: secret})
}

// UseProvider selects the provider used by Analyze
func (w *Workspace) UseProvider(provider models.Provider) error {
	return w.creds.SelectProvider(provider)
}

// Analyze critiques the latest artifact with the selected provider
func (w *Workspace) Analyze(ctx context.Context, userContext string) (*models.AnalysisResult, error) {
	w.mu.Lock()
	if w.pending {
		w.mu.Unlock()
		return nil, apperrors.NewInProgressError()
	}
	image, generation, ok := w.session.Snapshot()
	if !ok {
		w.mu.Unlock()
		return nil, apperrors.NewValidationError("capture a screenshot before analyzing", nil)
	}
	w.pending = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.pending = false
		w.mu.Unlock()
	}()

	provider := w.creds.SelectedProvider()
	cred, _ := w.creds.Credential(provider)

	start := time.Now()
	result, err := w.pipeline.Analyze(ctx, analysis.Request{
		Provider:   provider,
		Credential: cred,
		Image:      image,
		Context:    userContext,
	})
	if err != nil {
		return nil, err
	}

	if current := w.session.Generation(); current != generation {
		logger.WithFields(logrus.Fields{
			"artifact_id": image.ID,
			"generation":  generation,
			"current":     current,
		}).Info("Discarding analysis of a superseded capture")
		return nil, ErrStaleResult
	}

	logger.WithFields(logrus.Fields{
		"artifact_id":        image.ID,
		"provider":           provider,
		"entries":            len(result.Entries),
		"processing_time_ms": time.Since(start).Milliseconds(),
	}).Debug("Workspace analysis finished")
	return result, nil
}
