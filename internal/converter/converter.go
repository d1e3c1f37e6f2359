package converter

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-converter/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultQuality       = 85
	DefaultMaxTargetSize = 10000
	// DefaultMaxSourcePixels bounds width*height of a source before decoding.
	DefaultMaxSourcePixels = 100_000_000
)

type Options struct {
	Quality int
	// Filter is used as given; its zero value is nearest-neighbour.
	Filter              imaging.ResampleFilter
	InvalidFormatPolicy InvalidFormatPolicy
	// MaxTargetSize is the largest accepted value in a size list.
	MaxTargetSize   int
	MaxSourcePixels int64
}

var DefaultOptions = Options{
	Quality:             DefaultQuality,
	Filter:              imaging.Lanczos,
	InvalidFormatPolicy: PolicyStrict,
	MaxTargetSize:       DefaultMaxTargetSize,
	MaxSourcePixels:     DefaultMaxSourcePixels,
}

// Converter turns one source image into a target format, optionally at a
// list of sizes. It holds no per-call state and is safe for concurrent use.
type Converter struct {
	logger          *zap.Logger
	quality         int
	filter          imaging.ResampleFilter
	policy          InvalidFormatPolicy
	maxTargetSize   int
	maxSourcePixels int64
}

func New(logger *zap.Logger, opts ...Options) *Converter {
	options := DefaultOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.Quality < 1 || options.Quality > 100 {
		options.Quality = DefaultQuality
	}
	if options.InvalidFormatPolicy == "" {
		options.InvalidFormatPolicy = PolicyStrict
	}
	if options.MaxTargetSize <= 0 {
		options.MaxTargetSize = DefaultMaxTargetSize
	}
	if options.MaxSourcePixels <= 0 {
		options.MaxSourcePixels = DefaultMaxSourcePixels
	}

	return &Converter{
		logger:          logger,
		quality:         options.Quality,
		filter:          options.Filter,
		policy:          options.InvalidFormatPolicy,
		maxTargetSize:   options.MaxTargetSize,
		maxSourcePixels: options.MaxSourcePixels,
	}
}

// Convert decodes req.SourcePath once and writes one output per requested
// size, or a single output at the original size when no sizes are given.
// Every resize starts from the original image. The first write failure
// aborts the remaining sizes; the returned result lists what was written.
func (c *Converter) Convert(ctx context.Context, req models.ConversionRequest) (models.ConversionResult, error) {
	if !ValidateFormat(req.Format) {
		c.logger.Warn("Unsupported target format",
			zap.String("source", req.SourcePath),
			zap.String("format", req.Format))

		if c.policy == PolicyLenient {
			return models.ConversionResult{Success: true, Message: InvalidFormatMessage}, nil
		}
		return models.ConversionResult{Success: false, Message: InvalidFormatMessage},
			fmt.Errorf("%w: %q", ErrInvalidFormat, req.Format)
	}

	if err := CheckSizes(req.Sizes, c.maxTargetSize); err != nil {
		return models.ConversionResult{Success: false, Message: err.Error()}, err
	}

	c.logger.Debug("Opening image", zap.String("source", req.SourcePath))
	src, err := openImage(req.SourcePath, c.maxSourcePixels)
	if err != nil {
		return models.ConversionResult{Success: false, Message: err.Error()}, err
	}
	img := toRGB(src)

	if len(req.Sizes) == 0 {
		path := DestinationPath(req.Destination, OutputFileName(req.SourcePath, req.Format, nil))
		return c.write(ctx, img, path, req.Format, nil)
	}

	bounds := img.Bounds()
	c.logger.Debug("Resizing image",
		zap.String("source", req.SourcePath),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
		zap.Ints("sizes", req.Sizes))

	var (
		result  models.ConversionResult
		written []string
	)
	for _, size := range req.Sizes {
		dims := ResizedDimensions(bounds.Dx(), bounds.Dy(), size)
		resized := imaging.Resize(img, dims.Width, dims.Height, c.filter)
		path := DestinationPath(req.Destination, OutputFileName(req.SourcePath, req.Format, &dims))
		c.logger.Debug("Resized image", zap.Int("size", size), zap.Stringer("dims", dims))

		result, err = c.write(ctx, resized, path, req.Format, written)
		if err != nil {
			return result, err
		}
		written = result.Outputs
	}

	return result, nil
}

// CheckSizes reports ErrInvalidSize for any size outside 1..maxSize.
func CheckSizes(sizes []int, maxSize int) error {
	for _, size := range sizes {
		if size <= 0 || size > maxSize {
			return fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidSize, size, maxSize)
		}
	}
	return nil
}

func (c *Converter) write(ctx context.Context, img image.Image, path, format string, written []string) (models.ConversionResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ConversionResult{Success: false, Message: err.Error(), Outputs: written}, err
	}

	if err := saveImage(path, img, format, c.quality); err != nil {
		c.logger.Error("Failed to save image", zap.String("path", path), zap.Error(err))
		return models.ConversionResult{Success: false, Message: err.Error(), Outputs: written}, err
	}

	c.logger.Info("Image saved", zap.String("path", path), zap.String("format", format))

	outputs := make([]string, len(written), len(written)+1)
	copy(outputs, written)
	return models.ConversionResult{
		Success: true,
		Message: fmt.Sprintf("Image converted to %s", strings.ToUpper(format)),
		Outputs: append(outputs, path),
	}, nil
}
