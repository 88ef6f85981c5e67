package projection

import (
	"errors"
	"fmt"

	"sim2widefield/internal/models"
)

// Errors returned by the conversion core. All of them are fatal to the call
// that produced them: no partial output is ever returned alongside an error.
var (
	// ErrInvalidParameter indicates a non-positive dimension extent or an
	// empty averaging group
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrShapeMismatch indicates a plane count not consistent with the
	// dimension extents, or planes of inconsistent size
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDimensionOverflow indicates dimension extents whose product does
	// not fit in an int
	ErrDimensionOverflow = errors.New("dimension product overflows")
)

// checkedPlaneCount computes the product of all five extents, failing if it
// overflows int range
func checkedPlaneCount(d Dims) (int, error) {
	total := 1
	for _, n := range []int{d.Frames, d.ZPlanes, d.Channels, d.Angles, d.Phases} {
		prod := total * n
		if prod/n != total {
			return 0, fmt.Errorf("%dx%dx%dx%dx%d: %w",
				d.Channels, d.ZPlanes, d.Frames, d.Phases, d.Angles, ErrDimensionOverflow)
		}
		total = prod
	}
	return total, nil
}

// Validate checks that the volume and dimension extents satisfy the
// preconditions of Reduce: all extents positive, plane count equal to the
// product of the extents, and all planes of identical size.
func Validate(vol *models.RasterVolume, dims Dims) error {
	if vol == nil {
		return fmt.Errorf("volume is nil: %w", ErrInvalidParameter)
	}
	for _, n := range []int{dims.Channels, dims.ZPlanes, dims.Frames, dims.Phases, dims.Angles} {
		if n < 1 {
			return fmt.Errorf("dimension extents %+v must all be positive: %w", dims, ErrInvalidParameter)
		}
	}

	want, err := checkedPlaneCount(dims)
	if err != nil {
		return err
	}
	if len(vol.Planes) != want {
		return fmt.Errorf("volume has %d planes, dimensions %+v require %d: %w",
			len(vol.Planes), dims, want, ErrShapeMismatch)
	}

	width, height := vol.Width(), vol.Height()
	for i, plane := range vol.Planes {
		if plane.Width != width || plane.Height != height || len(plane.Pix) != width*height {
			return fmt.Errorf("plane %d is %dx%d, volume is %dx%d: %w",
				i, plane.Width, plane.Height, width, height, ErrShapeMismatch)
		}
	}
	return nil
}

// dimsFor assembles the five extents from a volume's logical shape and the
// phase/angle parameters
func dimsFor(vol *models.RasterVolume, phases, angles int) Dims {
	d := Dims{Phases: phases, Angles: angles}
	if vol != nil {
		d.Channels = vol.Channels
		d.ZPlanes = vol.ZPlanes
		d.Frames = vol.Frames
	}
	return d
}

// newOutput allocates the result volume for a reduction, including the
// suggested default view at the middle z-plane of the first channel and frame
func newOutput(dims Dims, planes []models.Plane) *models.OutputVolume {
	return &models.OutputVolume{
		Planes:   planes,
		Channels: dims.Channels,
		ZPlanes:  dims.ZPlanes,
		Frames:   dims.Frames,
		DefaultView: models.ViewPosition{
			Z: dims.ZPlanes / 2,
			C: 1,
			T: 1,
		},
	}
}

// Reduce converts a raw structured-illumination volume into a
// pseudo-wide-field volume by averaging each complete phase/angle group into
// a single plane. The result has exactly Channels*ZPlanes*Frames planes, in
// the same (t, z, c) nesting order as the input traversal with the phase and
// angle axes collapsed.
//
// The input volume is borrowed read-only; the returned volume is freshly
// allocated and owned by the caller. The operation is deterministic: the same
// input always yields bit-identical output.
func Reduce(vol *models.RasterVolume, phases, angles int) (*models.OutputVolume, error) {
	dims := dimsFor(vol, phases, angles)
	if err := Validate(vol, dims); err != nil {
		return nil, err
	}

	groupSize := dims.GroupSize()
	group := make([]models.Plane, 0, groupSize)
	out := make([]models.Plane, 0, len(vol.Planes)/groupSize)

	tr := NewTraversal(dims)
	for co, ok := tr.Next(); ok; co, ok = tr.Next() {
		group = append(group, vol.Planes[co.Index(dims)-1])
		if co.GroupEnd(dims) {
			avg, err := Average(group)
			if err != nil {
				return nil, err
			}
			out = append(out, avg)
			group = group[:0]
		}
	}

	return newOutput(dims, out), nil
}

// ReduceParallel behaves exactly like Reduce but averages independent
// (t, z, c) groups on up to workers goroutines. Output planes are placed at
// their computed position in the result sequence, so the output is
// bit-identical to the sequential path regardless of completion order.
func ReduceParallel(vol *models.RasterVolume, phases, angles, workers int) (*models.OutputVolume, error) {
	dims := dimsFor(vol, phases, angles)
	if err := Validate(vol, dims); err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("worker count %d must be positive: %w", workers, ErrInvalidParameter)
	}

	numGroups := dims.Channels * dims.ZPlanes * dims.Frames
	out := make([]models.Plane, numGroups)

	type result struct {
		groupIdx int
		plane    models.Plane
		err      error
	}
	jobs := make(chan int)
	results := make(chan result)

	for w := 0; w < workers; w++ {
		go func() {
			group := make([]models.Plane, 0, dims.GroupSize())
			for groupIdx := range jobs {
				// groups are ordered by (t, z, c) with channel fastest
				t := groupIdx / (dims.ZPlanes * dims.Channels)
				z := (groupIdx / dims.Channels) % dims.ZPlanes
				c := groupIdx % dims.Channels

				group = group[:0]
				for a := 1; a <= dims.Angles; a++ {
					for p := 1; p <= dims.Phases; p++ {
						co := Coordinate{T: t + 1, Z: z + 1, C: c + 1, A: a, P: p}
						group = append(group, vol.Planes[co.Index(dims)-1])
					}
				}

				plane, err := Average(group)
				results <- result{groupIdx: groupIdx, plane: plane, err: err}
			}
		}()
	}

	go func() {
		for g := 0; g < numGroups; g++ {
			jobs <- g
		}
		close(jobs)
	}()

	var firstErr error
	for done := 0; done < numGroups; done++ {
		res := <-results
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		out[res.groupIdx] = res.plane
	}
	if firstErr != nil {
		return nil, fmt.Errorf("group averaging failed: %w", firstErr)
	}

	return newOutput(dims, out), nil
}
