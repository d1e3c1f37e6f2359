package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/image-converter/internal/converter"
	"github.com/phambaophuc/image-converter/internal/models"
	"github.com/phambaophuc/image-converter/internal/service"
	"github.com/phambaophuc/image-converter/pkg/utils"
	"go.uber.org/zap"
)

type uploadedImage struct {
	data        []byte
	contentType string
	digest      string
	status      int
}

// === REQUEST PARSING ===

func (h *ImageHandler) parseConvertOptions(c *gin.Context) (models.ConvertOptions, error) {
	format := c.PostForm(formatParamKey)
	if format == "" {
		return models.ConvertOptions{}, fmt.Errorf("%s is required", formatParamKey)
	}

	sizes, err := parseSizes(c.PostForm(sizesParamKey), h.maxTargetSize())
	if err != nil {
		return models.ConvertOptions{}, err
	}

	return models.ConvertOptions{Format: format, Sizes: sizes}, nil
}

// parseSizes reads a comma separated list such as "200, 400"
func parseSizes(value string, maxSize int) ([]int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	parts := strings.Split(value, ",")
	sizes := make([]int, 0, len(parts))
	for _, part := range parts {
		size, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q is not a number", sizesParamKey, part)
		}
		sizes = append(sizes, size)
	}

	if err := validateSizes(sizes, maxSize); err != nil {
		return nil, err
	}
	return sizes, nil
}

func validateSizes(sizes []int, maxSize int) error {
	for _, size := range sizes {
		if size <= 0 || size > maxSize {
			return fmt.Errorf("%s must be integers between 1 and %d", sizesParamKey, maxSize)
		}
	}
	return nil
}

func (h *ImageHandler) maxTargetSize() int {
	if h.config.Converter.MaxTargetSize > 0 {
		return h.config.Converter.MaxTargetSize
	}
	return converter.DefaultMaxTargetSize
}

// === FILE OPERATIONS ===

func (h *ImageHandler) readUpload(file multipart.File) (uploadedImage, error) {
	maxSize := h.config.Storage.MaxFileSize

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return uploadedImage{status: http.StatusBadRequest}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return uploadedImage{status: http.StatusRequestEntityTooLarge},
			fmt.Errorf("file size exceeds maximum allowed size %d", maxSize)
	}

	contentType := http.DetectContentType(data)
	if !utils.IsValidImageType(contentType) {
		return uploadedImage{status: http.StatusBadRequest}, fmt.Errorf("unsupported content type %s", contentType)
	}

	sum := sha256.Sum256(data)
	return uploadedImage{
		data:        data,
		contentType: contentType,
		digest:      hex.EncodeToString(sum[:]),
	}, nil
}

// saveUpload writes the upload to its own directory so concurrent requests
// never share a source or output path
func (h *ImageHandler) saveUpload(id, filename string, upload uploadedImage) (string, error) {
	dir := filepath.Join(h.config.Storage.UploadPath, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(dir, utils.WithImageExtension(filename, upload.contentType))
	if err := os.WriteFile(path, upload.data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}

// === PROCESSING LOGIC ===

func (h *ImageHandler) convertAndRespond(c *gin.Context, filename string, upload uploadedImage, opts models.ConvertOptions, cacheKey string) {
	ctx := c.Request.Context()
	id := uuid.New().String()

	sourcePath, err := h.saveUpload(id, filename, upload)
	if err != nil {
		h.logger.Error("Failed to save upload", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Internal file error")
		return
	}
	defer os.RemoveAll(filepath.Dir(sourcePath))

	destination := filepath.Join(h.config.Storage.OutputPath, id)
	if err := os.MkdirAll(destination, 0o755); err != nil {
		h.logger.Error("Failed to create output directory", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Internal file error")
		return
	}

	req := models.NewConversionRequest(sourcePath, opts.Format, destination, opts.Sizes...)
	result, err := h.converter.Convert(ctx, req)
	if len(result.Outputs) == 0 {
		os.RemoveAll(destination)
	}
	if err != nil {
		h.respondConversionError(c, result, err)
		return
	}

	image := &models.ConvertedImage{
		ID:          id,
		Original:    filename,
		ConvertedAt: time.Now(),
		Result:      result,
	}

	if len(result.Outputs) > 0 && h.storage != nil {
		image.URLs = service.PublishOutputs(ctx, h.storage, result.Outputs, opts.Format, h.logger)
		h.setCacheData(ctx, cacheKey, image)
	}

	h.respondSuccess(c, http.StatusOK, image)
}

// === RESPONSE HANDLING ===

func (h *ImageHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (h *ImageHandler) respondSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, models.APIResponse{
		Success: true,
		Data:    data,
	})
}

func (h *ImageHandler) respondConversionError(c *gin.Context, result models.ConversionResult, err error) {
	var (
		decodeErr *converter.DecodeError
		status    int
	)
	switch {
	case errors.Is(err, converter.ErrInvalidFormat), errors.Is(err, converter.ErrInvalidSize):
		status = http.StatusBadRequest
	case errors.As(err, &decodeErr):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
		h.logger.Error("Conversion failed", zap.Error(err))
	}

	c.JSON(status, models.APIResponse{
		Success: false,
		Data:    result,
		Error:   result.Message,
	})
}

// === UTILITY METHODS ===

func (h *ImageHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}

// === CACHE OPERATIONS ===

func (h *ImageHandler) tryGetFromCache(ctx context.Context, cacheKey string) (*models.ConvertedImage, bool) {
	if h.storage == nil {
		return nil, false
	}

	cached, err := h.storage.GetCachedResult(ctx, cacheKey)
	if err != nil {
		h.logger.Warn("Cache lookup failed", zap.String("cache_key", cacheKey), zap.Error(err))
		return nil, false
	}
	if cached == nil {
		return nil, false
	}

	h.logger.Info("Cache hit", zap.String("cache_key", cacheKey))
	cached.Cached = true
	return cached, true
}

func (h *ImageHandler) setCacheData(ctx context.Context, cacheKey string, image *models.ConvertedImage) {
	if err := h.storage.SetCachedResult(ctx, cacheKey, image); err != nil {
		h.logger.Warn("Failed to cache data", zap.String("cache_key", cacheKey), zap.Error(err))
	}
}
