package converter

import (
	"fmt"
	"testing"

	"github.com/phambaophuc/image-converter/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResizedDimensions(t *testing.T) {
	tests := []struct {
		w, h, size int
		want       models.Dimensions
	}{
		{1260, 720, 200, models.Dimensions{Width: 200, Height: 114}},
		{1260, 720, 400, models.Dimensions{Width: 400, Height: 229}},
		{720, 1260, 200, models.Dimensions{Width: 114, Height: 200}},
		{500, 500, 250, models.Dimensions{Width: 250, Height: 250}},
		{100, 100, 300, models.Dimensions{Width: 300, Height: 300}},
		// exact halves round to the even neighbour
		{8, 4, 5, models.Dimensions{Width: 5, Height: 2}},
		{4, 8, 5, models.Dimensions{Width: 2, Height: 5}},
		{8, 4, 7, models.Dimensions{Width: 7, Height: 4}},
		{1000, 10, 5, models.Dimensions{Width: 5, Height: 1}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d@%d", tt.w, tt.h, tt.size), func(t *testing.T) {
			assert.Equal(t, tt.want, ResizedDimensions(tt.w, tt.h, tt.size))
		})
	}
}
