// Package quality computes summary statistics over raw and pseudo-wide-field
// volumes, the report printed after a conversion. Statistics are computed in
// float64 for reporting precision; they never feed back into the conversion
// data path.
package quality

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"sim2widefield/internal/models"
)

// PlaneStats holds the summary statistics of one plane
type PlaneStats struct {
	// Mean and StdDev of the pixel values
	Mean   float64
	StdDev float64

	// Min and Max pixel values
	Min float64
	Max float64
}

// VolumeStats holds the aggregate statistics of a plane sequence
type VolumeStats struct {
	// Planes is the number of planes summarized
	Planes int

	// Mean and StdDev over all pixels of all planes
	Mean   float64
	StdDev float64

	// Min and Max over all pixels of all planes
	Min float64
	Max float64
}

// ComputePlaneStats summarizes a single plane
func ComputePlaneStats(plane models.Plane) PlaneStats {
	data := toFloat64(plane.Pix)
	s := PlaneStats{
		Mean:   stat.Mean(data, nil),
		StdDev: stat.StdDev(data, nil),
	}
	s.Min, s.Max = minMax(data)
	return s
}

// ComputeVolumeStats summarizes a plane sequence as one population of pixels
func ComputeVolumeStats(planes []models.Plane) VolumeStats {
	if len(planes) == 0 {
		return VolumeStats{}
	}

	data := make([]float64, 0, len(planes)*len(planes[0].Pix))
	for _, plane := range planes {
		data = append(data, toFloat64(plane.Pix)...)
	}

	s := VolumeStats{
		Planes: len(planes),
		Mean:   stat.Mean(data, nil),
		StdDev: stat.StdDev(data, nil),
	}
	s.Min, s.Max = minMax(data)
	return s
}

// Correlation returns the Pearson correlation between two planes of equal
// size. A pseudo-wide-field plane correlates strongly with each member of
// its source group unless the illumination pattern dominates the image.
func Correlation(a, b models.Plane) (float64, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, fmt.Errorf("planes are %dx%d and %dx%d, sizes must match",
			a.Width, a.Height, b.Width, b.Height)
	}
	return stat.Correlation(toFloat64(a.Pix), toFloat64(b.Pix), nil), nil
}

// Report compares a raw acquisition with its pseudo-wide-field result
type Report struct {
	Input  VolumeStats
	Output VolumeStats
}

// Compare builds the conversion report for a raw volume and its result
func Compare(in *models.RasterVolume, out *models.OutputVolume) Report {
	return Report{
		Input:  ComputeVolumeStats(in.Planes),
		Output: ComputeVolumeStats(out.Planes),
	}
}

// String formats the report the way the CLI prints it
func (r Report) String() string {
	return fmt.Sprintf(
		"input:  %d planes, mean %.4f, stddev %.4f, range [%.4f, %.4f]\n"+
			"output: %d planes, mean %.4f, stddev %.4f, range [%.4f, %.4f]",
		r.Input.Planes, r.Input.Mean, r.Input.StdDev, r.Input.Min, r.Input.Max,
		r.Output.Planes, r.Output.Mean, r.Output.StdDev, r.Output.Min, r.Output.Max)
}

func toFloat64(pix []float32) []float64 {
	out := make([]float64, len(pix))
	for i, v := range pix {
		out[i] = float64(v)
	}
	return out
}

func minMax(data []float64) (min, max float64) {
	if len(data) == 0 {
		return 0, 0
	}
	min, max = data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
