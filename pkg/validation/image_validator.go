package validation

import (
	"fmt"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultAllowedImageTypes are the formats both providers accept inline
var DefaultAllowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// ImageValidator checks image bytes by content, not by file name or header
type ImageValidator struct {
	allowed []string
	maxSize int64
}

// NewImageValidator creates a validator accepting the default image types.
// maxSize <= 0 disables the size check.
func NewImageValidator(maxSize int64) *ImageValidator {
	return &ImageValidator{allowed: DefaultAllowedImageTypes, maxSize: maxSize}
}

// Validate returns the sniffed MIME type of data
func (v *ImageValidator) Validate(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperrors.NewValidationError("image is empty", nil)
	}
	if v.maxSize > 0 && int64(len(data)) > v.maxSize {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("image exceeds the maximum size of %d bytes", v.maxSize), nil)
	}

	detected := mimetype.Detect(data)
	for _, allowed := range v.allowed {
		if detected.Is(allowed) {
			return allowed, nil
		}
	}
	return "", apperrors.NewValidationError(
		fmt.Sprintf("unsupported image type %s", detected.String()), nil)
}
