package storage

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/pkg/models"
	"github.com/anime-shed/ux-critique-go/pkg/validation"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureImageFetcher downloads screenshots kept in an Azure storage account
type AzureImageFetcher struct {
	client    *azblob.Client
	validator *validation.ImageValidator
	maxSize   int64
}

// NewAzureImageFetcher authenticates against accountName with a shared key
func NewAzureImageFetcher(accountName, accountKey string, maxSize int64) (*AzureImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net/", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureImageFetcher{
		client:    client,
		validator: validation.NewImageValidator(maxSize),
		maxSize:   maxSize,
	}, nil
}

// FetchImage downloads the blob addressed by blobURL
func (s *AzureImageFetcher) FetchImage(ctx context.Context, blobURL string) (models.ImageArtifact, error) {
	parts, err := azblob.ParseURL(blobURL)
	if err != nil {
		return models.ImageArtifact{}, apperrors.NewValidationError("invalid blob URL", err)
	}
	if parts.ContainerName == "" || strings.TrimSpace(parts.BlobName) == "" {
		return models.ImageArtifact{}, apperrors.NewValidationError("blob URL must name a container and a blob", nil)
	}

	resp, err := s.client.DownloadStream(ctx, parts.ContainerName, parts.BlobName, nil)
	if err != nil {
		return models.ImageArtifact{}, apperrors.NewNetworkError("blob download failed", err)
	}
	body := resp.Body
	defer body.Close()

	data, err := readLimited(body, s.maxSize)
	if err != nil {
		return models.ImageArtifact{}, err
	}

	return buildArtifact(s.validator, data, blobURL)
}
