package models

import "time"

// ConvertOptions is the part of a request that travels with a queued job;
// source and destination are resolved by the worker.
type ConvertOptions struct {
	Format string `json:"format" binding:"required"`
	Sizes  []int  `json:"sizes,omitempty"`
}

type AsyncConvertRequest struct {
	ImageURL string `json:"image_url" binding:"required,url"`
	ConvertOptions
}

type ConversionJob struct {
	ID        string            `json:"id"`
	ImageURL  string            `json:"image_url"`
	Options   ConvertOptions    `json:"options"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at,omitempty"`
	Result    *ConversionResult `json:"result,omitempty"`
	URLs      []string          `json:"urls,omitempty"`
	Error     string            `json:"error,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
