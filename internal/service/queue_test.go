package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/phambaophuc/image-converter/internal/converter"
	"github.com/phambaophuc/image-converter/internal/models"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeJobStorage struct {
	fakeUploader
	mu   sync.Mutex
	jobs []models.ConversionJob
}

func (f *fakeJobStorage) SaveJob(ctx context.Context, job *models.ConversionJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, *job)
	return nil
}

func (f *fakeJobStorage) statuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.jobs))
	for i, job := range f.jobs {
		out[i] = job.Status
	}
	return out
}

type fakeAcknowledger struct {
	acked, nacked bool
	requeued      bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.nacked = true
	return nil
}

func imageServer(t *testing.T, w, h int) *httptest.Server {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	body := buf.Bytes()

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestQueue(t *testing.T, storage JobStorage) *QueueService {
	t.Helper()
	root := t.TempDir()
	return &QueueService{
		logger:      zap.NewNop(),
		queueName:   "test",
		converter:   converter.New(zap.NewNop()),
		storage:     storage,
		uploadDir:   filepath.Join(root, "uploads"),
		outputDir:   filepath.Join(root, "converted"),
		maxFileSize: 1 << 20,
	}
}

func TestProcessJob(t *testing.T) {
	srv := imageServer(t, 1260, 720)
	storage := &fakeJobStorage{}
	q := newTestQueue(t, storage)

	job := &models.ConversionJob{
		ID:       "job-1",
		ImageURL: srv.URL + "/name.png",
		Options:  models.ConvertOptions{Format: "jpeg", Sizes: []int{200, 400}},
	}

	result, urls, err := q.processJob(context.Background(), job)
	require.NoError(t, err)

	outDir := filepath.Join(q.outputDir, "job-1")
	assert.True(t, result.Success)
	assert.Equal(t, []string{
		outDir + "/name-200x114.jpeg",
		outDir + "/name-400x229.jpeg",
	}, result.Outputs)
	assert.Len(t, urls, 2)
	assert.Equal(t, []string{"image/jpeg", "image/jpeg"}, storage.contentTypes)

	_, err = os.Stat(filepath.Join(q.uploadDir, "job-1"))
	assert.True(t, os.IsNotExist(err), "downloaded source should be removed")
}

func TestProcessMessage_CompletesJob(t *testing.T) {
	srv := imageServer(t, 20, 10)
	storage := &fakeJobStorage{}
	q := newTestQueue(t, storage)

	body, err := json.Marshal(models.ConversionJob{
		ID:       "job-2",
		ImageURL: srv.URL + "/pic.png",
		Options:  models.ConvertOptions{Format: "png"},
		Status:   models.StatusPending,
	})
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	q.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body}, 1)

	assert.True(t, ack.acked)
	assert.Equal(t, []string{models.StatusProcessing, models.StatusCompleted}, storage.statuses())

	final := storage.jobs[len(storage.jobs)-1]
	require.NotNil(t, final.Result)
	assert.Equal(t, "Image converted to PNG", final.Result.Message)
	assert.Empty(t, final.Error)
}

func TestProcessMessage_FailedJob(t *testing.T) {
	srv := imageServer(t, 20, 10)
	storage := &fakeJobStorage{}
	q := newTestQueue(t, storage)

	body, err := json.Marshal(models.ConversionJob{
		ID:       "job-3",
		ImageURL: srv.URL + "/pic.png",
		Options:  models.ConvertOptions{Format: "gif"},
	})
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	q.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body}, 1)

	assert.True(t, ack.acked)
	final := storage.jobs[len(storage.jobs)-1]
	assert.Equal(t, models.StatusFailed, final.Status)
	assert.Contains(t, final.Error, converter.ErrInvalidFormat.Error())
	require.NotNil(t, final.Result)
	assert.Equal(t, converter.InvalidFormatMessage, final.Result.Message)
}

func TestProcessMessage_Malformed(t *testing.T) {
	storage := &fakeJobStorage{}
	q := newTestQueue(t, storage)

	ack := &fakeAcknowledger{}
	q.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")}, 1)

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	assert.Empty(t, storage.statuses())
}

func TestProcessMessage_SizeOverLimit(t *testing.T) {
	srv := imageServer(t, 40, 20)
	storage := &fakeJobStorage{}
	q := newTestQueue(t, storage)

	body, err := json.Marshal(models.ConversionJob{
		ID:       "job-4",
		ImageURL: srv.URL + "/pic.png",
		Options:  models.ConvertOptions{Format: "png", Sizes: []int{1 << 40}},
	})
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	q.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body}, 1)

	assert.True(t, ack.acked)
	final := storage.jobs[len(storage.jobs)-1]
	assert.Equal(t, models.StatusFailed, final.Status)
	assert.Contains(t, final.Error, converter.ErrInvalidSize.Error())
	require.NotNil(t, final.Result)
	assert.Empty(t, final.Result.Outputs)

	_, err = os.Stat(filepath.Join(q.outputDir, "job-4"))
	assert.True(t, os.IsNotExist(err), "empty output directory should be removed")
}
