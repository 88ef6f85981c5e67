package models

// Plane is a single 2D raster of 32-bit float pixel values stored in
// row-major order. All planes belonging to one volume share the same
// dimensions.
type Plane struct {
	// Width and Height are the raster dimensions in pixels
	Width, Height int

	// Pix holds Width*Height pixel values, row by row
	Pix []float32
}

// NewPlane allocates a zero-filled plane of the given dimensions
func NewPlane(width, height int) Plane {
	return Plane{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

// Calibration holds the physical pixel sizes of a volume.
// The conversion core never consults it; the presentation layer copies it
// from the input volume onto the result.
type Calibration struct {
	// PixelWidth and PixelHeight are the physical size of one pixel
	PixelWidth  float64
	PixelHeight float64

	// PixelDepth is the physical distance between consecutive z-planes
	PixelDepth float64

	// Unit is the physical unit of the sizes above, e.g. "micron"
	Unit string
}

// RasterVolume is a raw structured-illumination acquisition: a flat sequence
// of planes in CPZAT interleave order (channel varying fastest, then phase,
// angle, z-plane, time-frame).
//
// Channels, ZPlanes and Frames describe the logical shape of the volume once
// the phase and angle axes are divided out of the raw plane count, so a valid
// volume with P phases and A angles has exactly
// Channels*ZPlanes*Frames*P*A planes.
type RasterVolume struct {
	// Planes is the flat plane sequence in acquisition order
	Planes []Plane

	// Logical shape with phase and angle divided out
	Channels int
	ZPlanes  int
	Frames   int

	// Calibration is the physical calibration of the acquisition
	Calibration Calibration

	// Title is a display name for the volume, typically derived from
	// the source directory or file name
	Title string
}

// Width returns the pixel width shared by all planes, or 0 for an empty volume
func (v *RasterVolume) Width() int {
	if len(v.Planes) == 0 {
		return 0
	}
	return v.Planes[0].Width
}

// Height returns the pixel height shared by all planes, or 0 for an empty volume
func (v *RasterVolume) Height() int {
	if len(v.Planes) == 0 {
		return 0
	}
	return v.Planes[0].Height
}

// ViewPosition is a suggested default display position within an output
// volume. It is a presentation hint only and carries no semantic meaning
// for the data.
type ViewPosition struct {
	// Z, C and T are 1-based positions along the z, channel and time axes
	Z, C, T int
}

// OutputVolume is a pseudo-wide-field volume: one plane per (channel,
// z-plane, frame) position, each the average of a full phase/angle group of
// the source acquisition. Planes are ordered by frame, then z-plane, then
// channel, with channel varying fastest.
type OutputVolume struct {
	// Planes is the averaged plane sequence in (t, z, c) order
	Planes []Plane

	// Logical shape, identical to the source volume's
	Channels int
	ZPlanes  int
	Frames   int

	// DefaultView is the suggested initial display position
	DefaultView ViewPosition

	// Calibration is copied from the source volume by the presentation layer
	Calibration Calibration

	// Title is assigned by the presentation layer
	Title string
}

// PlaneIndex returns the 1-based position of the (t, z, c) plane within the
// flat output sequence. Channel varies fastest, then z-plane, then frame.
func (v *OutputVolume) PlaneIndex(t, z, c int) int {
	return (t-1)*v.ZPlanes*v.Channels + (z-1)*v.Channels + c
}

// PlaneAt returns the output plane for the given 1-based (t, z, c) position
func (v *OutputVolume) PlaneAt(t, z, c int) Plane {
	return v.Planes[v.PlaneIndex(t, z, c)-1]
}
