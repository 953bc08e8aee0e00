package repository

import (
	"context"

	"github.com/anime-shed/ux-critique-go/pkg/models"
)

// ImageRepository resolves the image an analysis runs on
type ImageRepository interface {
	// FetchImage downloads an image referenced by URL
	FetchImage(ctx context.Context, imageURL string) (models.ImageArtifact, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error

	// FromUpload wraps uploaded bytes after checking their type
	FromUpload(data []byte, filename string) (models.ImageArtifact, error)
}
