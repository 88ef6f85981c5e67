package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"sim2widefield/internal/models"
	"sim2widefield/pkg/config"
	"sim2widefield/pkg/projection"
	"sim2widefield/pkg/quality"
	"sim2widefield/pkg/stackio"
	"sim2widefield/pkg/viewer"
)

func main() {
	// Parse command line arguments; negative numeric values mean "use the
	// config file / defaults"
	inputDir := flag.String("input", "", "Directory containing raw SI plane images in CPZAT order")
	outputDir := flag.String("output", "pwf_output", "Directory for the averaged plane sequence")
	configPath := flag.String("config", "sim2widefield.yaml", "Configuration file path")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration file and exit")
	phases := flag.Int("phases", -1, "Number of illumination phases")
	angles := flag.Int("angles", -1, "Number of illumination angles")
	channels := flag.Int("channels", -1, "Number of channels")
	frames := flag.Int("frames", -1, "Number of time frames")
	format := flag.String("format", "", "Output image format: png or tiff")
	parallel := flag.Bool("parallel", false, "Average plane groups concurrently")
	workers := flag.Int("workers", -1, "Worker count for parallel averaging")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config file: %v", err)
		}
		fmt.Printf("Wrote default configuration to %s\n", *configPath)
		return
	}

	if *inputDir == "" {
		flag.Usage()
		log.Fatal("An input directory is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// flags override the configuration file
	if *phases > 0 {
		cfg.Acquisition.Phases = *phases
	}
	if *angles > 0 {
		cfg.Acquisition.Angles = *angles
	}
	if *channels > 0 {
		cfg.Acquisition.Channels = *channels
	}
	if *frames > 0 {
		cfg.Acquisition.Frames = *frames
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *parallel {
		cfg.Processing.Parallel = true
	}
	if *workers > 0 {
		cfg.Processing.Workers = *workers
	}

	fmt.Println("================================")
	fmt.Println("RAW SI DATA TO PSEUDO-WIDE-FIELD")
	fmt.Println("Averages all phase/angle planes per (channel, z, frame) position")
	fmt.Println("================================")

	fmt.Printf("Loading planes from %s...\n", *inputDir)
	vol, err := stackio.LoadDirectory(*inputDir,
		cfg.Acquisition.Channels, cfg.Acquisition.Frames,
		cfg.Acquisition.Phases, cfg.Acquisition.Angles)
	if err != nil {
		log.Fatalf("Failed to load stack: %v", err)
	}

	if cfg.Output.Verbose {
		fmt.Printf("Loaded %d planes of %dx%d pixels\n", len(vol.Planes), vol.Width(), vol.Height())
		fmt.Printf("Logical shape: %d channels, %d z-planes, %d frames (%d phases x %d angles)\n",
			vol.Channels, vol.ZPlanes, vol.Frames,
			cfg.Acquisition.Phases, cfg.Acquisition.Angles)
	}

	fmt.Println("Averaging over phases and angles...")
	startTime := time.Now()

	out := convert(cfg, vol)
	viewer.Present(vol, out)

	elapsed := time.Since(startTime)
	fmt.Printf("Conversion completed in %.2f seconds\n", elapsed.Seconds())

	fmt.Printf("Writing %d planes to %s...\n", len(out.Planes), *outputDir)
	if err := stackio.WriteVolume(out, *outputDir, cfg.Output.Format); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	if cfg.Output.SaveDefaultView {
		viewName := fmt.Sprintf("%s_view.%s", out.Title, cfg.Output.Format)
		viewPath := filepath.Join(*outputDir, viewName)
		v := viewer.NewViewer(out)
		if err := v.SaveDefaultView(viewPath, cfg.Output.Format); err != nil {
			log.Printf("Warning: failed to save default view: %v", err)
		} else if cfg.Output.Verbose {
			fmt.Printf("Default view (z=%d, c=%d, t=%d) saved to %s\n",
				out.DefaultView.Z, out.DefaultView.C, out.DefaultView.T, viewPath)
		}
	}

	if cfg.Output.Verbose {
		fmt.Println("\nSummary statistics:")
		fmt.Println(quality.Compare(vol, out))
	}
}

// convert runs the core reduction with the configured processing mode
func convert(cfg *config.Config, vol *models.RasterVolume) *models.OutputVolume {
	if cfg.Processing.Parallel {
		out, err := projection.ReduceParallel(vol,
			cfg.Acquisition.Phases, cfg.Acquisition.Angles, cfg.Processing.Workers)
		if err != nil {
			log.Fatalf("Conversion failed: %v", err)
		}
		return out
	}

	out, err := projection.Reduce(vol, cfg.Acquisition.Phases, cfg.Acquisition.Angles)
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
	return out
}
