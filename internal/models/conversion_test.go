package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversionRequest_CopiesSizes(t *testing.T) {
	sizes := []int{200, 400}
	req := NewConversionRequest("/in/photo.png", FormatJPEG, "/out", sizes...)

	sizes[0] = 1
	assert.Equal(t, []int{200, 400}, req.Sizes)
}

func TestNewConversionRequest_NoSizes(t *testing.T) {
	first := NewConversionRequest("a.png", FormatPNG, "")
	second := NewConversionRequest("b.png", FormatPNG, "")

	assert.Nil(t, first.Sizes)
	assert.Nil(t, second.Sizes)
}

func TestConversionResult_JSON(t *testing.T) {
	data, err := json.Marshal(ConversionResult{Success: true, Message: "Image converted to PNG"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"Image converted to PNG"}`, string(data))
}

func TestDimensions_String(t *testing.T) {
	assert.Equal(t, "200x114", Dimensions{Width: 200, Height: 114}.String())
}
