package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anime-shed/ux-critique-go/internal/config"
	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/internal/service"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// SessionHeader lets a browser tab identify itself. Without it the client IP
// is the session key.
const SessionHeader = "X-Session-ID"

// imageField is the multipart field that carries an uploaded screenshot
const imageField = "image"

func NewHandler(svc service.CritiqueService, metrics http.Handler, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		cors.New(corsConfig(cfg.CORS.AllowOrigins)),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
	r.POST("/api/analyze", analyzeScreenshot(svc, cfg))

	return r
}

func analyzeScreenshot(svc service.CritiqueService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var form models.AnalysisRequest
		if err := c.ShouldBindWith(&form, binding.Form); err != nil {
			respondError(c, bodyError(err))
			return
		}

		upload, uploadName, err := readUpload(c, cfg.MaxRequestBodySize)
		if err != nil {
			respondError(c, err)
			return
		}

		sessionKey := sessionKey(c)
		logger.WithFields(logrus.Fields{
			"provider":    form.Provider,
			"has_upload":  len(upload) > 0,
			"image_url":   form.ImageURL,
			"session_key": sessionKey,
		}).Debug("Processing critique request")

		result, err := svc.Analyze(ctx, sessionKey, service.CritiqueRequest{
			Provider:   form.Provider,
			APIKey:     form.APIKey,
			Context:    form.Context,
			ImageURL:   form.ImageURL,
			Upload:     upload,
			UploadName: uploadName,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		encoded, err := json.Marshal(result.Entries)
		if err != nil {
			respondError(c, apperrors.NewInternalError("failed to encode analysis", err))
			return
		}

		logger.WithFields(logrus.Fields{
			"provider":           result.Provider,
			"model":              result.Model,
			"entries":            len(result.Entries),
			"dropped":            result.Dropped,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Critique completed successfully")

		c.JSON(http.StatusOK, models.AnalysisResponse{Analysis: string(encoded)})
	}
}

// readUpload returns the uploaded screenshot, or nil when the form has none
func readUpload(c *gin.Context, maxBytes int64) ([]byte, string, error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", nil
		}
		return nil, "", bodyError(err)
	}
	if fh.Size > maxBytes {
		return nil, "", apperrors.NewValidationError("uploaded image is too large", nil)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", apperrors.NewValidationError("failed to read uploaded image", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", apperrors.NewValidationError("failed to read uploaded image", err)
	}
	return data, fh.Filename, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewValidationError("request body is too large", err)
	}
	return apperrors.NewValidationError("invalid request format", err)
}

func sessionKey(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(SessionHeader)); id != "" {
		return id
	}
	return c.ClientIP()
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", SessionHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	var allowed []string
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
		if o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowed
	return cfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("Request handled")
			return
		}
		entry.Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	body := models.ErrorResponse{Error: "request processing failed", Type: string(apperrors.ErrorTypeInternal)}
	if appErr, ok := apperrors.As(err); ok {
		body.Error = appErr.Message
		body.Type = string(appErr.Type)
	} else if code == http.StatusGatewayTimeout {
		body.Error = "the request timed out"
		body.Type = string(apperrors.ErrorTypeTimeout)
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"error_type":  body.Type,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, body)
}
