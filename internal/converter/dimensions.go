package converter

import (
	"math"

	"github.com/phambaophuc/image-converter/internal/models"
)

// ResizedDimensions scales the longer side of origWidth x origHeight to size
// and the shorter side by the same ratio. The shorter side is rounded half to
// even and never drops below one pixel. Square images take the height branch.
func ResizedDimensions(origWidth, origHeight, size int) models.Dimensions {
	if origWidth > origHeight {
		ratio := float64(size) / float64(origWidth)
		return models.Dimensions{
			Width:  size,
			Height: max(1, int(math.RoundToEven(ratio*float64(origHeight)))),
		}
	}

	ratio := float64(size) / float64(origHeight)
	return models.Dimensions{
		Width:  max(1, int(math.RoundToEven(ratio*float64(origWidth)))),
		Height: size,
	}
}
