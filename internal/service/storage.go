package service

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phambaophuc/image-converter/internal/config"
	"github.com/phambaophuc/image-converter/internal/models"
	"github.com/phambaophuc/image-converter/pkg/utils"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

const (
	CacheKeyPrefix = "convert_cache:"
	JobKeyPrefix   = "convert_job:"
)

var (
	ErrStorageNotConfigured = errors.New("object storage not configured")
	ErrJobNotFound          = errors.New("job not found")
)

type StorageService struct {
	sbClient      *storage_go.Client
	redisClient   *redis.Client
	bucket        string
	cacheDuration time.Duration
	logger        *zap.Logger
}

func NewStorageService(cfg *config.Config, logger *zap.Logger) (*StorageService, error) {
	var sbClient *storage_go.Client
	if cfg.Supabase.Enabled() {
		sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return &StorageService{
		sbClient:      sbClient,
		redisClient:   redisClient,
		bucket:        cfg.Supabase.BUCKET,
		cacheDuration: cfg.Storage.CacheDuration,
		logger:        logger,
	}, nil
}

// Upload publishes a converted file to Supabase Storage and returns its public URL
func (s *StorageService) Upload(ctx context.Context, localPath, contentType string) (string, error) {
	if s.sbClient == nil {
		return "", ErrStorageNotConfigured
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer file.Close()

	key := utils.GenerateStorageKey(filepath.Base(localPath))
	_, err = s.sbClient.UploadFile(s.bucket, key, file, storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}

// GetCachedResult returns the cached conversion for cacheKey, or nil on a miss
func (s *StorageService) GetCachedResult(ctx context.Context, cacheKey string) (*models.ConvertedImage, error) {
	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var cached models.ConvertedImage
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}
	return &cached, nil
}

func (s *StorageService) SetCachedResult(ctx context.Context, cacheKey string, image *models.ConvertedImage) error {
	data, err := json.Marshal(image)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return s.redisClient.Set(ctx, cacheKey, data, s.cacheDuration).Err()
}

// SaveJob stores the latest state of an async conversion job
func (s *StorageService) SaveJob(ctx context.Context, job *models.ConversionJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return s.redisClient.Set(ctx, JobKeyPrefix+job.ID, data, s.cacheDuration).Err()
}

func (s *StorageService) GetJob(ctx context.Context, id string) (*models.ConversionJob, error) {
	data, err := s.redisClient.Get(ctx, JobKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job get error: %w", err)
	}

	var job models.ConversionJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// GenerateCacheKey derives a key from the source content digest and the
// requested conversion
func GenerateCacheKey(sourceDigest string, opts models.ConvertOptions) string {
	hash := md5.New()
	hash.Write([]byte(sourceDigest))
	hash.Write([]byte("format_" + opts.Format))

	sizes := make([]string, len(opts.Sizes))
	for i, size := range opts.Sizes {
		sizes[i] = strconv.Itoa(size)
	}
	hash.Write([]byte("sizes_" + strings.Join(sizes, ",")))

	return fmt.Sprintf("%s%x", CacheKeyPrefix, hash.Sum(nil))
}

// CleanupCache removes cache entries that lost their expiry
func (s *StorageService) CleanupCache(ctx context.Context) error {
	keys, err := s.redisClient.Keys(ctx, CacheKeyPrefix+"*").Result()
	if err != nil {
		return err
	}

	for _, key := range keys {
		ttl := s.redisClient.TTL(ctx, key).Val()
		if ttl < 0 {
			s.redisClient.Del(ctx, key)
		}
	}

	return nil
}

// GetCacheStats returns cache statistics
func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	pipeline := s.redisClient.Pipeline()

	infoCmd := pipeline.Info(ctx, "memory")
	dbSizeCmd := pipeline.DBSize(ctx)

	if _, err := pipeline.Exec(ctx); err != nil {
		return nil, fmt.Errorf("pipeline error: %w", err)
	}

	return map[string]interface{}{
		"db_keys": dbSizeCmd.Val(),
		"info":    infoCmd.Val(),
	}, nil
}

// HealthCheck checks Redis + Supabase
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}

	if s.sbClient == nil {
		status["supabase"] = "not configured"
		return status
	}

	if _, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{}); err != nil {
		s.logger.Warn("Supabase health check failed", zap.Error(err))
		status["supabase"] = "unhealthy: " + err.Error()
	} else {
		status["supabase"] = "healthy"
	}

	return status
}

func (s *StorageService) Close() error {
	return s.redisClient.Close()
}
