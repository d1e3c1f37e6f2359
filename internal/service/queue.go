package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phambaophuc/image-converter/internal/config"
	"github.com/phambaophuc/image-converter/internal/converter"
	"github.com/phambaophuc/image-converter/internal/models"
	"github.com/phambaophuc/image-converter/pkg/utils"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// JobStorage is what queue workers need from the storage layer.
type JobStorage interface {
	Uploader
	SaveJob(ctx context.Context, job *models.ConversionJob) error
}

type QueueService struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	logger      *zap.Logger
	queueName   string
	converter   *converter.Converter
	storage     JobStorage
	uploadDir   string
	outputDir   string
	maxFileSize int64
}

func NewQueueService(cfg *config.Config, conv *converter.Converter, storage JobStorage, logger *zap.Logger) (*QueueService, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		cfg.RabbitMQ.QueueName, // name
		true,                   // durable
		false,                  // delete when unused
		false,                  // exclusive
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &QueueService{
		conn:        conn,
		channel:     channel,
		logger:      logger,
		queueName:   cfg.RabbitMQ.QueueName,
		converter:   conv,
		storage:     storage,
		uploadDir:   cfg.Storage.UploadPath,
		outputDir:   cfg.Storage.OutputPath,
		maxFileSize: cfg.Storage.MaxFileSize,
	}, nil
}

// PublishJob publishes a conversion job to the queue
func (q *QueueService) PublishJob(ctx context.Context, job *models.ConversionJob) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         jobBytes,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    job.ID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	q.logger.Info("Job published to queue", zap.String("job_id", job.ID))
	return nil
}

// StartWorker starts consuming jobs from the queue
func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, msg, workerID)
			}
		}
	}()

	return nil
}

// processMessage handles individual job processing
func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	var job models.ConversionJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		q.logger.Error("Failed to unmarshal job",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		msg.Nack(false, false) // Don't requeue malformed messages
		return
	}

	q.logger.Info("Processing job",
		zap.String("job_id", job.ID),
		zap.Int("worker_id", workerID))

	job.Status = models.StatusProcessing
	q.storeJob(ctx, &job)

	result, urls, err := q.processJob(ctx, &job)
	job.Result = result
	job.URLs = urls
	if err != nil {
		job.Status = models.StatusFailed
		job.Error = err.Error()
		q.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
	} else {
		job.Status = models.StatusCompleted
		q.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID))
	}

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}

	q.storeJob(ctx, &job)
}

// processJob downloads the source image, converts it and publishes the outputs
func (q *QueueService) processJob(ctx context.Context, job *models.ConversionJob) (*models.ConversionResult, []string, error) {
	imageData, contentType, err := utils.DownloadImage(ctx, job.ImageURL, q.maxFileSize)
	if err != nil {
		return nil, nil, err
	}

	sourceDir := filepath.Join(q.uploadDir, job.ID)
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	defer os.RemoveAll(sourceDir)

	sourcePath := filepath.Join(sourceDir, utils.SourceFileName(job.ImageURL, contentType))
	if err := os.WriteFile(sourcePath, imageData, 0o644); err != nil {
		return nil, nil, fmt.Errorf("failed to save source image: %w", err)
	}

	destination := filepath.Join(q.outputDir, job.ID)
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	req := models.NewConversionRequest(sourcePath, job.Options.Format, destination, job.Options.Sizes...)
	result, err := q.converter.Convert(ctx, req)
	if len(result.Outputs) == 0 {
		os.RemoveAll(destination)
	}
	if err != nil {
		return &result, nil, fmt.Errorf("failed to convert image: %w", err)
	}

	urls := PublishOutputs(ctx, q.storage, result.Outputs, job.Options.Format, q.logger)
	return &result, urls, nil
}

func (q *QueueService) storeJob(ctx context.Context, job *models.ConversionJob) {
	job.UpdatedAt = time.Now()
	if err := q.storage.SaveJob(ctx, job); err != nil {
		q.logger.Error("Failed to store job",
			zap.String("job_id", job.ID),
			zap.String("status", job.Status),
			zap.Error(err))
	}
}

// GetQueueStats returns queue statistics
func (q *QueueService) GetQueueStats() (map[string]interface{}, error) {
	queueInfo, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue: %w", err)
	}

	stats := map[string]interface{}{
		"messages":  queueInfo.Messages,
		"consumers": queueInfo.Consumers,
		"name":      queueInfo.Name,
	}

	return stats, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}

// HealthCheck checks if RabbitMQ is available
func (q *QueueService) HealthCheck() string {
	if q.conn == nil || q.conn.IsClosed() {
		return "unhealthy: connection closed"
	}

	if q.channel == nil {
		return "unhealthy: channel not available"
	}

	return "healthy"
}
