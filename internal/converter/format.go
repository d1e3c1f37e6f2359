package converter

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-converter/internal/models"
)

// InvalidFormatMessage is reported for any format outside the supported set.
const InvalidFormatMessage = "Please input a valid format to convert; webp, jpg, jpeg, png."

var supportedFormats = map[string]struct{}{
	models.FormatWebP: {},
	models.FormatJPG:  {},
	models.FormatPNG:  {},
	models.FormatJPEG: {},
}

// ValidateFormat reports whether format is one of webp, jpg, jpeg or png.
// The comparison is case-sensitive.
func ValidateFormat(format string) bool {
	_, ok := supportedFormats[format]
	return ok
}

// InvalidFormatPolicy decides how Convert reports an unsupported format.
type InvalidFormatPolicy string

const (
	// PolicyStrict reports an unsupported format as a failed conversion.
	PolicyStrict InvalidFormatPolicy = "strict"
	// PolicyLenient reports it as success=true with an explanatory message.
	PolicyLenient InvalidFormatPolicy = "lenient"
)

func ParseInvalidFormatPolicy(value string) (InvalidFormatPolicy, error) {
	switch InvalidFormatPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyLenient:
		return PolicyLenient, nil
	default:
		return "", fmt.Errorf("unknown invalid format policy %q", value)
	}
}

var resampleFilters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

// ParseFilter maps a config name to a resampling filter. Empty means Lanczos.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		return imaging.Lanczos, nil
	}
	filter, ok := resampleFilters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
	}
	return filter, nil
}

// ContentType returns the MIME type for a supported output format.
func ContentType(format string) string {
	switch format {
	case models.FormatJPEG, models.FormatJPG:
		return "image/jpeg"
	case models.FormatPNG:
		return "image/png"
	case models.FormatWebP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
