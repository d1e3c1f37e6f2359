package models

import "fmt"

const (
	FormatJPEG = "jpeg"
	FormatJPG  = "jpg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// ConversionRequest describes one conversion call. Build it with
// NewConversionRequest so the size list is never shared with the caller.
type ConversionRequest struct {
	SourcePath  string `json:"source_path"`
	Format      string `json:"format"`
	Sizes       []int  `json:"sizes,omitempty"`
	Destination string `json:"destination,omitempty"`
}

func NewConversionRequest(sourcePath, format, destination string, sizes ...int) ConversionRequest {
	var copied []int
	if len(sizes) > 0 {
		copied = make([]int, len(sizes))
		copy(copied, sizes)
	}

	return ConversionRequest{
		SourcePath:  sourcePath,
		Format:      format,
		Sizes:       copied,
		Destination: destination,
	}
}

// Dimensions is the pixel size computed for one requested target size.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

type ConversionResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Outputs []string `json:"outputs,omitempty"`
}
