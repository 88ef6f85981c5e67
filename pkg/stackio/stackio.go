// Package stackio loads raw acquisition stacks from plane-per-file image
// directories and writes pseudo-wide-field results back out. It is the
// acquisition/persistence collaborator of the conversion core; the core
// itself never touches the filesystem.
package stackio

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"

	"sim2widefield/internal/models"
)

// supported plane file extensions, lower case
var planeExtensions = map[string]bool{
	".png":  true,
	".tif":  true,
	".tiff": true,
	".jpg":  true,
	".jpeg": true,
}

// ValidateStack checks that a raw stack of the given size is consistent with
// the phase/angle parameters. The returned error carries the user-facing
// message shown before any conversion work is attempted.
func ValidateStack(totalPlanes, phases, angles int) error {
	if phases < 1 || angles < 1 {
		return fmt.Errorf("phases (%d) and angles (%d) must be positive", phases, angles)
	}
	if totalPlanes < 1 {
		return fmt.Errorf("stack is empty")
	}
	if totalPlanes%(phases*angles) != 0 {
		return fmt.Errorf("stack size %d not consistent with %d phases x %d angles",
			totalPlanes, phases, angles)
	}
	return nil
}

// LoadDirectory reads all plane images from a directory into a RasterVolume.
// Files are sorted by the numeric part of their names, so an acquisition
// exported as plane_001.tif ... plane_480.tif loads in CPZAT order. All
// planes must share one size.
//
// The z-plane extent is derived from the file count by dividing out
// channels, frames, phases and angles; a count not consistent with those
// parameters is rejected before any pixels are decoded.
func LoadDirectory(dir string, channels, frames, phases, angles int) (*models.RasterVolume, error) {
	if channels < 1 || frames < 1 {
		return nil, fmt.Errorf("channels (%d) and frames (%d) must be positive", channels, frames)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if planeExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no plane images found in %s", dir)
	}

	// sort by the numeric part of the filename to preserve acquisition order
	sort.Slice(files, func(i, j int) bool {
		return extractNumber(files[i]) < extractNumber(files[j])
	})

	if err := ValidateStack(len(files), phases, angles); err != nil {
		return nil, err
	}
	perZ := channels * frames * phases * angles
	if len(files)%perZ != 0 {
		return nil, fmt.Errorf("stack size %d not consistent with %d channels x %d frames x %d phases x %d angles",
			len(files), channels, frames, phases, angles)
	}

	vol := &models.RasterVolume{
		Planes:   make([]models.Plane, 0, len(files)),
		Channels: channels,
		ZPlanes:  len(files) / perZ,
		Frames:   frames,
		Title:    filepath.Base(dir),
	}

	for _, name := range files {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load plane %s: %w", name, err)
		}

		plane := planeFromImage(img)
		if len(vol.Planes) > 0 && (plane.Width != vol.Width() || plane.Height != vol.Height()) {
			return nil, fmt.Errorf("plane %s is %dx%d, stack is %dx%d",
				name, plane.Width, plane.Height, vol.Width(), vol.Height())
		}
		vol.Planes = append(vol.Planes, plane)
	}

	return vol, nil
}

// WriteVolume saves every plane of an output volume into a directory, one
// 16-bit grayscale file per plane, named by its (t, z, c) position. Format
// is "png" or "tiff".
func WriteVolume(out *models.OutputVolume, dir, format string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for t := 1; t <= out.Frames; t++ {
		for z := 1; z <= out.ZPlanes; z++ {
			for c := 1; c <= out.Channels; c++ {
				name := fmt.Sprintf("t%03d_z%03d_c%02d.%s", t, z, c, format)
				path := filepath.Join(dir, name)
				if err := WritePlane(out.PlaneAt(t, z, c), path, format); err != nil {
					return fmt.Errorf("failed to write plane %s: %w", name, err)
				}
			}
		}
	}
	return nil
}

// WritePlane saves a single plane as a 16-bit grayscale image. Pixel values
// are clamped to [0,1] and scaled to the 16-bit range, the inverse of the
// loading conversion.
func WritePlane(plane models.Plane, path, format string) error {
	img := planeToImage(plane)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(format) {
	case "png":
		err = png.Encode(file, img)
	case "tif", "tiff":
		err = tiff.Encode(file, img, nil)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// extractNumber extracts the concatenated digits from a filename, used to
// sort planes into acquisition order
func extractNumber(filename string) int {
	numStr := ""
	for _, c := range filepath.Base(filename) {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		if num, err := strconv.Atoi(numStr); err == nil {
			return num
		}
	}
	return 0
}

// loadImage decodes one plane file based on its extension
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return tiff.Decode(file)
	case ".png":
		return png.Decode(file)
	default:
		return jpeg.Decode(file)
	}
}

// planeFromImage converts an image to a float32 plane. The red channel of
// the 16-bit representation is taken as the grayscale intensity and scaled
// to the [0,1] range.
func planeFromImage(img image.Image) models.Plane {
	bounds := img.Bounds()
	plane := models.NewPlane(bounds.Dx(), bounds.Dy())

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			plane.Pix[i] = float32(r) / 65535.0
			i++
		}
	}
	return plane
}

// planeToImage converts a float32 plane back to a 16-bit grayscale image
func planeToImage(plane models.Plane) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, plane.Width, plane.Height))

	for y := 0; y < plane.Height; y++ {
		for x := 0; x < plane.Width; x++ {
			v := plane.Pix[y*plane.Width+x]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v * 65535.0)})
		}
	}
	return img
}
