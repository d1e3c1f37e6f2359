package service

import (
	"context"
	"errors"

	"github.com/phambaophuc/image-converter/internal/converter"
	"go.uber.org/zap"
)

// Uploader publishes a local file and returns where it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, localPath, contentType string) (string, error)
}

// PublishOutputs uploads every converted file. Upload failures are logged and
// skipped; an unconfigured uploader yields no URLs.
func PublishOutputs(ctx context.Context, uploader Uploader, outputs []string, format string, logger *zap.Logger) []string {
	if uploader == nil {
		return nil
	}

	contentType := converter.ContentType(format)
	urls := make([]string, 0, len(outputs))
	for _, path := range outputs {
		url, err := uploader.Upload(ctx, path, contentType)
		if errors.Is(err, ErrStorageNotConfigured) {
			return nil
		}
		if err != nil {
			logger.Warn("Failed to upload to storage", zap.String("path", path), zap.Error(err))
			continue
		}
		urls = append(urls, url)
	}
	return urls
}
