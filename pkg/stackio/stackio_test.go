package stackio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"sim2widefield/internal/models"
)

// writeTestPlane saves a width x height Gray16 image with the given pattern
func writeTestPlane(t *testing.T, path string, width, height int, pattern func(x, y int) uint16) {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: pattern(x, y)})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

// TestExtractNumber verifies the extraction of numeric parts from filenames
func TestExtractNumber(t *testing.T) {
	testCases := []struct {
		filename string
		expected int
	}{
		{"plane_1.png", 1},
		{"plane_023.tif", 23},
		{"img456.png", 456},
		{"not_a_number.png", 0},
		{"mixed123text456.png", 123456},
	}

	for _, tc := range testCases {
		if got := extractNumber(tc.filename); got != tc.expected {
			t.Errorf("extractNumber(%s): expected %d, got %d", tc.filename, tc.expected, got)
		}
	}
}

// TestValidateStack verifies the divisibility pre-check
func TestValidateStack(t *testing.T) {
	testCases := []struct {
		name           string
		total          int
		phases, angles int
		wantErr        bool
	}{
		{"Divisible", 30, 5, 3, false},
		{"Trivial", 7, 1, 1, false},
		{"NotDivisible", 31, 5, 3, true},
		{"Empty", 0, 5, 3, true},
		{"ZeroPhases", 30, 0, 3, true},
		{"ZeroAngles", 30, 5, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStack(tc.total, tc.phases, tc.angles)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateStack(%d, %d, %d): error = %v, wantErr = %v",
					tc.total, tc.phases, tc.angles, err, tc.wantErr)
			}
		})
	}
}

// TestLoadDirectoryOrdersPlanesNumerically verifies that planes load in
// acquisition order regardless of lexical filename order
func TestLoadDirectoryOrdersPlanesNumerically(t *testing.T) {
	dir := t.TempDir()

	// 4 planes written out of lexical order: plane_10 sorts before plane_2
	// lexically but must load after it. Pixel value encodes the plane number.
	for _, n := range []int{10, 2, 1, 12} {
		name := filepath.Join(dir, fmt.Sprintf("plane_%d.png", n))
		value := uint16(n * 1000)
		writeTestPlane(t, name, 4, 4, func(x, y int) uint16 { return value })
	}

	vol, err := LoadDirectory(dir, 1, 1, 2, 2)
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}

	if len(vol.Planes) != 4 {
		t.Fatalf("expected 4 planes, got %d", len(vol.Planes))
	}
	if vol.Channels != 1 || vol.ZPlanes != 1 || vol.Frames != 1 {
		t.Errorf("wrong logical shape (%d,%d,%d)", vol.Channels, vol.ZPlanes, vol.Frames)
	}
	if vol.Title != filepath.Base(dir) {
		t.Errorf("expected title %q, got %q", filepath.Base(dir), vol.Title)
	}

	expectedOrder := []int{1, 2, 10, 12}
	for i, n := range expectedOrder {
		want := float32(n*1000) / 65535.0
		got := vol.Planes[i].Pix[0]
		if got != want {
			t.Errorf("plane %d: expected value %g (file plane_%d), got %g", i, want, n, got)
		}
	}
}

// TestLoadDirectoryDerivesZPlanes verifies the z extent computation from
// the file count
func TestLoadDirectoryDerivesZPlanes(t *testing.T) {
	dir := t.TempDir()

	// C=2, T=1, P=2, A=1, Z=3 -> 12 files
	for n := 1; n <= 12; n++ {
		name := filepath.Join(dir, fmt.Sprintf("plane_%03d.png", n))
		writeTestPlane(t, name, 2, 2, func(x, y int) uint16 { return 0 })
	}

	vol, err := LoadDirectory(dir, 2, 1, 2, 1)
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	if vol.ZPlanes != 3 {
		t.Errorf("expected 3 z-planes, got %d", vol.ZPlanes)
	}
}

// TestLoadDirectoryRejectsIndivisibleStack verifies the user-facing
// validation before any conversion
func TestLoadDirectoryRejectsIndivisibleStack(t *testing.T) {
	dir := t.TempDir()

	for n := 1; n <= 7; n++ {
		name := filepath.Join(dir, fmt.Sprintf("plane_%d.png", n))
		writeTestPlane(t, name, 2, 2, func(x, y int) uint16 { return 0 })
	}

	if _, err := LoadDirectory(dir, 1, 1, 5, 3); err == nil {
		t.Error("expected an error for 7 planes with 5 phases x 3 angles")
	}
}

// TestLoadDirectoryRejectsMixedSizes verifies that inconsistent plane
// dimensions are rejected
func TestLoadDirectoryRejectsMixedSizes(t *testing.T) {
	dir := t.TempDir()

	writeTestPlane(t, filepath.Join(dir, "plane_1.png"), 4, 4, func(x, y int) uint16 { return 0 })
	writeTestPlane(t, filepath.Join(dir, "plane_2.png"), 4, 3, func(x, y int) uint16 { return 0 })

	if _, err := LoadDirectory(dir, 1, 1, 2, 1); err == nil {
		t.Error("expected an error for planes of differing sizes")
	}
}

// TestLoadDirectoryEmpty verifies the error for a directory without plane
// images
func TestLoadDirectoryEmpty(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadDirectory(dir, 1, 1, 1, 1); err == nil {
		t.Error("expected an error for an empty directory")
	}
}

// TestPlaneRoundTrip verifies that writing and re-reading a plane preserves
// values within 16-bit quantization, for both supported formats
func TestPlaneRoundTrip(t *testing.T) {
	for _, format := range []string{"png", "tiff"} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()

			src := models.NewPlane(8, 6)
			for i := range src.Pix {
				src.Pix[i] = float32(i) / float32(len(src.Pix))
			}

			path := filepath.Join(dir, "plane_1."+format)
			if err := WritePlane(src, path, format); err != nil {
				t.Fatalf("WritePlane failed: %v", err)
			}

			img, err := loadImage(path)
			if err != nil {
				t.Fatalf("loadImage failed: %v", err)
			}
			got := planeFromImage(img)

			if got.Width != src.Width || got.Height != src.Height {
				t.Fatalf("expected %dx%d, got %dx%d", src.Width, src.Height, got.Width, got.Height)
			}
			for i := range src.Pix {
				diff := got.Pix[i] - src.Pix[i]
				if diff < 0 {
					diff = -diff
				}
				// one 16-bit quantization step
				if diff > 1.0/65535.0 {
					t.Fatalf("pixel %d: expected %g, got %g", i, src.Pix[i], got.Pix[i])
				}
			}
		})
	}
}

// TestWriteVolume verifies the output file layout for a small volume
func TestWriteVolume(t *testing.T) {
	dir := t.TempDir()

	out := &models.OutputVolume{
		Planes:   make([]models.Plane, 4),
		Channels: 2,
		ZPlanes:  2,
		Frames:   1,
	}
	for i := range out.Planes {
		out.Planes[i] = models.NewPlane(2, 2)
	}

	if err := WriteVolume(out, dir, "png"); err != nil {
		t.Fatalf("WriteVolume failed: %v", err)
	}

	expected := []string{
		"t001_z001_c01.png",
		"t001_z001_c02.png",
		"t001_z002_c01.png",
		"t001_z002_c02.png",
	}
	for _, name := range expected {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected output file %s: %v", name, err)
		}
	}
}

// TestWritePlaneRejectsUnknownFormat verifies format validation
func TestWritePlaneRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	plane := models.NewPlane(2, 2)

	if err := WritePlane(plane, filepath.Join(dir, "p.bmp"), "bmp"); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}
