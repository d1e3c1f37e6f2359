package converter

import (
	"fmt"
	"strings"

	"github.com/phambaophuc/image-converter/internal/models"
)

// OutputFileName builds the output file name for sourcePath converted to
// format. Only the last dot-separated segment of the base name is treated as
// the extension; the rest is kept as the stem. When dims is non-nil the stem
// gets a -{width}x{height} suffix.
func OutputFileName(sourcePath, format string, dims *models.Dimensions) string {
	base := sourcePath[strings.LastIndex(sourcePath, "/")+1:]

	stem := ""
	if i := strings.LastIndex(base, "."); i >= 0 {
		stem = base[:i]
	}

	if dims != nil {
		return fmt.Sprintf("%s-%dx%d.%s", stem, dims.Width, dims.Height, format)
	}
	return fmt.Sprintf("%s.%s", stem, format)
}

// DestinationPath joins dir and fileName with exactly one "/" between them.
// An empty dir yields fileName unchanged.
func DestinationPath(dir, fileName string) string {
	if dir == "" {
		return fileName
	}
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir + fileName
}
