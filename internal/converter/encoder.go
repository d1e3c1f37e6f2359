package converter

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-converter/internal/models"

	// registers the webp decoder so webp sources can be opened
	_ "golang.org/x/image/webp"
)

// encodeImage encodes image to specified format
func encodeImage(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case models.FormatJPEG, models.FormatJPG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case models.FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case models.FormatWebP:
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// saveImage creates or truncates path and writes img into it.
func saveImage(path string, img image.Image, format string, quality int) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return &EncodeError{Path: path, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &EncodeError{Path: path, Err: cerr}
		}
	}()

	if err := encodeImage(file, img, format, quality); err != nil {
		return &EncodeError{Path: path, Err: err}
	}
	return nil
}

// openImage decodes the source once; orientation tags are left alone.
// The header is read first so sources declaring more than maxPixels are
// refused before any pixel buffer is allocated.
func openImage(path string, maxPixels int64) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, &DecodeError{
			Path: path,
			Err:  fmt.Errorf("%w: %dx%d is over %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels),
		}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	img, err := imaging.Decode(file)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return img, nil
}

// toRGB drops the alpha channel, keeping the stored colour values.
func toRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
