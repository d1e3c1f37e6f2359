package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/phambaophuc/image-converter/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGenerateCacheKey(t *testing.T) {
	base := GenerateCacheKey("digest", models.ConvertOptions{Format: "jpeg", Sizes: []int{200, 400}})

	assert.True(t, strings.HasPrefix(base, CacheKeyPrefix))
	assert.Equal(t, base, GenerateCacheKey("digest", models.ConvertOptions{Format: "jpeg", Sizes: []int{200, 400}}))
	assert.NotEqual(t, base, GenerateCacheKey("digest", models.ConvertOptions{Format: "jpeg", Sizes: []int{400, 200}}))
	assert.NotEqual(t, base, GenerateCacheKey("digest", models.ConvertOptions{Format: "png", Sizes: []int{200, 400}}))
	assert.NotEqual(t, base, GenerateCacheKey("other", models.ConvertOptions{Format: "jpeg", Sizes: []int{200, 400}}))
}

type fakeUploader struct {
	uploaded     []string
	contentTypes []string
	failOn       string
	err          error
}

func (f *fakeUploader) Upload(ctx context.Context, localPath, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if localPath == f.failOn {
		return "", errors.New("boom")
	}
	f.uploaded = append(f.uploaded, localPath)
	f.contentTypes = append(f.contentTypes, contentType)
	return "https://cdn.example.com" + localPath, nil
}

func TestPublishOutputs(t *testing.T) {
	uploader := &fakeUploader{failOn: "/out/b.webp"}

	urls := PublishOutputs(context.Background(), uploader, []string{"/out/a.webp", "/out/b.webp", "/out/c.webp"}, "webp", zap.NewNop())

	assert.Equal(t, []string{"https://cdn.example.com/out/a.webp", "https://cdn.example.com/out/c.webp"}, urls)
	assert.Equal(t, []string{"image/webp", "image/webp"}, uploader.contentTypes)
}

func TestPublishOutputs_NotConfigured(t *testing.T) {
	uploader := &fakeUploader{err: ErrStorageNotConfigured}

	assert.Nil(t, PublishOutputs(context.Background(), uploader, []string{"/out/a.png"}, "png", zap.NewNop()))
	assert.Nil(t, PublishOutputs(context.Background(), nil, []string{"/out/a.png"}, "png", zap.NewNop()))
}
