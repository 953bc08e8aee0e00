package repository

import (
	"context"
	"time"

	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/internal/storage"
	"github.com/anime-shed/ux-critique-go/pkg/models"
	"github.com/anime-shed/ux-critique-go/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// imageRepository routes downloads to HTTP or Azure blob storage
type imageRepository struct {
	http    storage.ImageFetcher
	blob    storage.ImageFetcher
	urls    *validation.URLValidator
	uploads *validation.ImageValidator
}

// NewImageRepository creates a repository. blob may be nil, in which case
// blob URLs are fetched anonymously over HTTP.
func NewImageRepository(
	httpFetcher storage.ImageFetcher,
	blobFetcher storage.ImageFetcher,
	urlValidator *validation.URLValidator,
	imageValidator *validation.ImageValidator,
) ImageRepository {
	return &imageRepository{
		http:    httpFetcher,
		blob:    blobFetcher,
		urls:    urlValidator,
		uploads: imageValidator,
	}
}

// FetchImage validates imageURL and downloads it with a single attempt
func (r *imageRepository) FetchImage(ctx context.Context, imageURL string) (models.ImageArtifact, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return models.ImageArtifact{}, err
	}

	fetcher, backend := r.http, "http"
	if r.blob != nil && validation.IsAzureBlobURL(imageURL) {
		fetcher, backend = r.blob, "azure"
	}

	start := time.Now()
	artifact, err := fetcher.FetchImage(ctx, imageURL)
	fields := logrus.Fields{
		"backend":     backend,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		logger.WithFields(fields).WithError(err).Warn("Image download failed")
		return models.ImageArtifact{}, err
	}

	fields["mime_type"] = artifact.MimeType
	fields["size_bytes"] = len(artifact.Bytes)
	logger.WithFields(fields).Debug("Image downloaded")
	return artifact, nil
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *imageRepository) ValidateImageURL(imageURL string) error {
	return r.urls.ValidateImageURL(imageURL)
}

// FromUpload wraps uploaded bytes after checking their type
func (r *imageRepository) FromUpload(data []byte, filename string) (models.ImageArtifact, error) {
	mimeType, err := r.uploads.Validate(data)
	if err != nil {
		return models.ImageArtifact{}, err
	}
	return models.ImageArtifact{
		ID:         uuid.NewString(),
		Bytes:      data,
		MimeType:   mimeType,
		Source:     filename,
		CapturedAt: time.Now().UTC(),
	}, nil
}
