// Package viewer is the presentation layer for pseudo-wide-field results:
// it carries acquisition metadata onto the output volume, renders planes at
// the suggested default view position, and exports plane sequences.
package viewer

import (
	"fmt"
	"os"
	"path/filepath"

	"sim2widefield/internal/models"
	"sim2widefield/pkg/stackio"
)

// Present finalizes an output volume for display: the physical calibration
// is copied from the source acquisition and the title is derived from the
// source title with a "_PWF" suffix.
func Present(src *models.RasterVolume, out *models.OutputVolume) {
	out.Calibration = src.Calibration
	out.Title = DeriveTitle(src.Title)
}

// DeriveTitle builds the display title of a pseudo-wide-field result from
// its source title
func DeriveTitle(srcTitle string) string {
	if srcTitle == "" {
		return "PWF"
	}
	return srcTitle + "_PWF"
}

// Viewer renders planes of one output volume
type Viewer struct {
	out *models.OutputVolume
}

// NewViewer creates a viewer for the given output volume
func NewViewer(out *models.OutputVolume) *Viewer {
	return &Viewer{out: out}
}

// SaveDefaultView writes the plane at the volume's suggested default view
// position (middle z-plane, first channel, first frame) to the given path
func (v *Viewer) SaveDefaultView(path, format string) error {
	pos := v.out.DefaultView
	z := pos.Z
	if z < 1 {
		z = 1 // single-plane volumes have a floor(Z/2)=0 hint
	}
	if err := v.checkPosition(pos.T, z, pos.C); err != nil {
		return err
	}
	return stackio.WritePlane(v.out.PlaneAt(pos.T, z, pos.C), path, format)
}

// SaveSequence writes all planes of one frame into a directory, one file per
// (z, c) position, in output order
func (v *Viewer) SaveSequence(t int, dir, format string) error {
	if t < 1 || t > v.out.Frames {
		return fmt.Errorf("frame %d out of range [1,%d]", t, v.out.Frames)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create sequence directory: %w", err)
	}

	for z := 1; z <= v.out.ZPlanes; z++ {
		for c := 1; c <= v.out.Channels; c++ {
			name := fmt.Sprintf("z%03d_c%02d.%s", z, c, format)
			if err := stackio.WritePlane(v.out.PlaneAt(t, z, c), filepath.Join(dir, name), format); err != nil {
				return fmt.Errorf("failed to write plane %s: %w", name, err)
			}
		}
	}
	return nil
}

// checkPosition validates a 1-based (t, z, c) position against the volume
func (v *Viewer) checkPosition(t, z, c int) error {
	if t < 1 || t > v.out.Frames {
		return fmt.Errorf("frame %d out of range [1,%d]", t, v.out.Frames)
	}
	if z < 1 || z > v.out.ZPlanes {
		return fmt.Errorf("z-plane %d out of range [1,%d]", z, v.out.ZPlanes)
	}
	if c < 1 || c > v.out.Channels {
		return fmt.Errorf("channel %d out of range [1,%d]", c, v.out.Channels)
	}
	return nil
}
