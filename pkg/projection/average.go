package projection

import (
	"fmt"

	"sim2widefield/internal/models"
)

// Average produces one plane whose value at every pixel is the arithmetic
// mean of that pixel across the group. Accumulation and division are
// performed in 32-bit floating point regardless of how the source data was
// acquired, matching the original conversion semantics.
//
// The input planes are never modified; the returned plane is freshly
// allocated, so a group of size 1 yields an independent copy of its only
// member.
func Average(group []models.Plane) (models.Plane, error) {
	if len(group) == 0 {
		return models.Plane{}, fmt.Errorf("averaging group is empty: %w", ErrInvalidParameter)
	}

	width := group[0].Width
	height := group[0].Height
	n := width * height

	acc := models.NewPlane(width, height)
	for i, plane := range group {
		if plane.Width != width || plane.Height != height {
			return models.Plane{}, fmt.Errorf(
				"plane %d is %dx%d, group is %dx%d: %w",
				i, plane.Width, plane.Height, width, height, ErrShapeMismatch)
		}
		for j := 0; j < n; j++ {
			acc.Pix[j] += plane.Pix[j]
		}
	}

	size := float32(len(group))
	for j := 0; j < n; j++ {
		acc.Pix[j] /= size
	}

	return acc, nil
}
