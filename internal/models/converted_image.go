package models

import "time"

type ConvertedImage struct {
	ID          string           `json:"id"`
	Original    string           `json:"original"`
	ConvertedAt time.Time        `json:"converted_at"`
	Result      ConversionResult `json:"result"`
	URLs        []string         `json:"urls,omitempty"`
	Cached      bool             `json:"cached,omitempty"`
}
