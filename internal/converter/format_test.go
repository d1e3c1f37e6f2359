package converter

import (
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFormat(t *testing.T) {
	for _, format := range []string{"webp", "jpg", "jpeg", "png"} {
		assert.True(t, ValidateFormat(format), format)
	}
	for _, format := range []string{"gif", "PNG", "Jpeg", "", "tiff", ".png"} {
		assert.False(t, ValidateFormat(format), format)
	}
}

func TestParseInvalidFormatPolicy(t *testing.T) {
	policy, err := ParseInvalidFormatPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, policy)

	policy, err = ParseInvalidFormatPolicy(" Lenient ")
	require.NoError(t, err)
	assert.Equal(t, PolicyLenient, policy)

	_, err = ParseInvalidFormatPolicy("ignore")
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	filter, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, imaging.Lanczos.Support, filter.Support)

	filter, err = ParseFilter("Box")
	require.NoError(t, err)
	assert.Equal(t, imaging.Box.Support, filter.Support)

	_, err = ParseFilter("bicubic-ish")
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("jpg"))
	assert.Equal(t, "image/jpeg", ContentType("jpeg"))
	assert.Equal(t, "image/png", ContentType("png"))
	assert.Equal(t, "image/webp", ContentType("webp"))
	assert.Equal(t, "application/octet-stream", ContentType("gif"))
}
