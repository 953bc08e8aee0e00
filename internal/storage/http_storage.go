package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/pkg/models"
	"github.com/anime-shed/ux-critique-go/pkg/validation"

	"github.com/google/uuid"
)

// ImageFetcher downloads an image and turns it into an artifact
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (models.ImageArtifact, error)
}

// ErrRestrictedAddress is returned when a fetch would connect to a loopback,
// private, link-local or unspecified address
var ErrRestrictedAddress = errors.New("address is not publicly routable")

// HTTPImageFetcher downloads images with a single GET. Failures are reported,
// never retried.
type HTTPImageFetcher struct {
	client    *http.Client
	validator *validation.ImageValidator
	maxSize   int64
}

// NewHTTPImageFetcher creates a fetcher. maxSize bounds the downloaded body.
// With publicOnly set, every connection (redirects included) is checked
// against the resolved IP and internal addresses are refused.
func NewHTTPImageFetcher(timeout time.Duration, maxSize int64, publicOnly bool) *HTTPImageFetcher {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if publicOnly {
		dialer.Control = refuseRestrictedAddress
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		validator: validation.NewImageValidator(maxSize),
		maxSize:   maxSize,
	}
}

// FetchImage downloads imageURL and sniffs its type from the content
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (models.ImageArtifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return models.ImageArtifact{}, apperrors.NewValidationError("invalid imageUrl", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/webp, image/gif")
	req.Header.Set("User-Agent", "UX-Critique/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrRestrictedAddress) {
			return models.ImageArtifact{}, apperrors.NewValidationError("imageUrl host not allowed", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return models.ImageArtifact{}, apperrors.NewTimeoutError("image download timed out", err)
		}
		return models.ImageArtifact{}, apperrors.NewNetworkError("failed to download image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("status code %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return models.ImageArtifact{}, apperrors.NewValidationError(
				fmt.Sprintf("image could not be downloaded: status code %d", resp.StatusCode), statusErr)
		}
		return models.ImageArtifact{}, apperrors.NewNetworkError("image host returned an error", statusErr)
	}

	data, err := readLimited(resp.Body, h.maxSize)
	if err != nil {
		return models.ImageArtifact{}, err
	}

	return buildArtifact(h.validator, data, imageURL)
}

// refuseRestrictedAddress runs after DNS resolution, so address is the IP
// actually dialed
func refuseRestrictedAddress(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRestrictedAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRestrictedAddress, address)
	}
	if isRestricted(ip) {
		return fmt.Errorf("%w: %s", ErrRestrictedAddress, ip)
	}
	return nil
}

func isRestricted(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified()
}

func buildArtifact(v *validation.ImageValidator, data []byte, source string) (models.ImageArtifact, error) {
	mimeType, err := v.Validate(data)
	if err != nil {
		return models.ImageArtifact{}, err
	}
	return models.ImageArtifact{
		ID:         uuid.NewString(),
		Bytes:      data,
		MimeType:   mimeType,
		Source:     source,
		CapturedAt: time.Now().UTC(),
	}, nil
}

// readLimited reads r fully, failing when it holds more than maxSize bytes
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read image body", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("image exceeds the maximum size of %d bytes", maxSize), nil)
	}
	return data, nil
}
