package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/image-converter/internal/config"
	"github.com/phambaophuc/image-converter/internal/converter"
	"github.com/phambaophuc/image-converter/internal/models"
	"github.com/phambaophuc/image-converter/internal/service"
	"go.uber.org/zap"
)

const (
	imageParamKey  = "image"
	formatParamKey = "format"
	sizesParamKey  = "sizes"
)

// Storage is the cache, job store and publisher behind the handlers.
type Storage interface {
	service.Uploader
	GetCachedResult(ctx context.Context, cacheKey string) (*models.ConvertedImage, error)
	SetCachedResult(ctx context.Context, cacheKey string, image *models.ConvertedImage) error
	SaveJob(ctx context.Context, job *models.ConversionJob) error
	GetJob(ctx context.Context, id string) (*models.ConversionJob, error)
	GetCacheStats(ctx context.Context) (map[string]interface{}, error)
	HealthCheck(ctx context.Context) map[string]string
}

type Queue interface {
	PublishJob(ctx context.Context, job *models.ConversionJob) error
	GetQueueStats() (map[string]interface{}, error)
	HealthCheck() string
}

type ImageHandler struct {
	converter *converter.Converter
	storage   Storage
	queue     Queue
	logger    *zap.Logger
	config    *config.Config
}

// NewImageHandler wires the handler. storage and queue may be nil; the
// endpoints that need them then answer 503.
func NewImageHandler(
	conv *converter.Converter,
	storage Storage,
	queue Queue,
	logger *zap.Logger,
	config *config.Config,
) *ImageHandler {
	return &ImageHandler{
		converter: conv,
		storage:   storage,
		queue:     queue,
		logger:    logger,
		config:    config,
	}
}

// === MAIN API ENDPOINTS ===

// ConvertImage converts an uploaded image synchronously
func (h *ImageHandler) ConvertImage(c *gin.Context) {
	file, header, err := c.Request.FormFile(imageParamKey)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	opts, err := h.parseConvertOptions(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	upload, err := h.readUpload(file)
	if err != nil {
		h.respondError(c, upload.status, err.Error())
		return
	}

	ctx := c.Request.Context()
	cacheKey := service.GenerateCacheKey(upload.digest, opts)
	if cached, found := h.tryGetFromCache(ctx, cacheKey); found {
		h.respondSuccess(c, http.StatusOK, cached)
		return
	}

	h.convertAndRespond(c, header.Filename, upload, opts, cacheKey)
}

// ConvertImageAsync queues a conversion of a remote image
func (h *ImageHandler) ConvertImageAsync(c *gin.Context) {
	if h.queue == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Job queue not available")
		return
	}

	var req models.AsyncConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if !converter.ValidateFormat(req.Format) {
		h.respondError(c, http.StatusBadRequest, converter.InvalidFormatMessage)
		return
	}
	if err := validateSizes(req.Sizes, h.maxTargetSize()); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	job := &models.ConversionJob{
		ID:        uuid.New().String(),
		ImageURL:  req.ImageURL,
		Options:   req.ConvertOptions,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}

	ctx := c.Request.Context()
	if h.storage != nil {
		if err := h.storage.SaveJob(ctx, job); err != nil {
			h.logger.Warn("Failed to store job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	if err := h.queue.PublishJob(ctx, job); err != nil {
		h.logger.Error("Failed to publish job", zap.String("job_id", job.ID), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to queue conversion")
		return
	}

	h.respondSuccess(c, http.StatusAccepted, job)
}

// GetJob returns the current state of an async conversion
func (h *ImageHandler) GetJob(c *gin.Context) {
	if h.storage == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Job store not available")
		return
	}

	job, err := h.storage.GetJob(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrJobNotFound) {
		h.respondError(c, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load job", zap.String("job_id", c.Param("id")), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to load job")
		return
	}

	h.respondSuccess(c, http.StatusOK, job)
}

// GetStats reports cache and queue statistics
func (h *ImageHandler) GetStats(c *gin.Context) {
	stats := gin.H{}

	if h.storage != nil {
		cacheStats, err := h.storage.GetCacheStats(c.Request.Context())
		if err != nil {
			h.logger.Warn("Failed to get cache stats", zap.Error(err))
			stats["cache"] = gin.H{"error": err.Error()}
		} else {
			stats["cache"] = cacheStats
		}
	}

	if h.queue != nil {
		queueStats, err := h.queue.GetQueueStats()
		if err != nil {
			h.logger.Warn("Failed to get queue stats", zap.Error(err))
			stats["queue"] = gin.H{"error": err.Error()}
		} else {
			stats["queue"] = queueStats
		}
	}

	h.respondSuccess(c, http.StatusOK, stats)
}

// HealthCheck
func (h *ImageHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{
		"redis":    "not configured",
		"supabase": "not configured",
		"queue":    "not configured",
	}
	if h.storage != nil {
		for k, v := range h.storage.HealthCheck(c.Request.Context()) {
			services[k] = v
		}
	}
	if h.queue != nil {
		services["queue"] = h.queue.HealthCheck()
	}

	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}
