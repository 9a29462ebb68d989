// Command darkroom renders a photo through an edit state and writes the
// graded result, headless. The edit state is a YAML document whose keys
// mirror the EditState fields, for example:
//
//	exposure: 0.4
//	contrast: 12
//	bloom:
//	  amount: 35
//	  threshold: 70
//	  radius: 40
//	curve:
//	  luma:
//	    - {x: 0, y: 0.05}
//	    - {x: 1, y: 1}
package main

import (
	"flag"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/darkroom"
)

func main() {
	var (
		input   = flag.String("input", "", "source image (png, jpeg, or tiff)")
		stateFn = flag.String("state", "", "edit state YAML file (optional)")
		lutFn   = flag.String("lut", "", "color LUT .cube file (optional)")
		output  = flag.String("output", "out.jpg", "output file")
		format  = flag.String("format", "", "output format: jpeg, png, or tiff (default from output extension)")
		quality = flag.Int("quality", 90, "jpeg quality, 1-100")
		scale   = flag.Float64("scale", 1, "output scale factor")
		maxDim  = flag.Int("max-dim", 0, "cap on the longer output edge, 0 for none")
		dpi     = flag.Int("dpi", 0, "embedded pixel density, 0 to omit")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("missing -input")
	}
	if *verbose {
		darkroom.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	state := darkroom.DefaultEditState()
	if *stateFn != "" {
		doc, err := os.ReadFile(*stateFn)
		if err != nil {
			log.Fatalf("Failed to read state: %v", err)
		}
		if err := yaml.Unmarshal(doc, &state); err != nil {
			log.Fatalf("Failed to parse state: %v", err)
		}
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to decode input: %v", err)
	}

	r, err := darkroom.New()
	if err != nil {
		log.Fatalf("Failed to initialize renderer: %v", err)
	}
	defer r.Close()

	if err := r.SetImage(img); err != nil {
		log.Fatalf("Failed to upload image: %v", err)
	}
	if *lutFn != "" {
		doc, err := os.ReadFile(*lutFn)
		if err != nil {
			log.Fatalf("Failed to read LUT: %v", err)
		}
		lut, err := darkroom.ParseCubeLUT(string(doc))
		if err != nil {
			log.Fatalf("Failed to parse LUT: %v", err)
		}
		if err := r.LoadLUT(lut); err != nil {
			log.Fatalf("Failed to load LUT: %v", err)
		}
	}

	res, err := r.Export(&state, darkroom.ExportOptions{
		Format:       exportFormat(*format, *output),
		Quality:      *quality,
		Scale:        float32(*scale),
		MaxDimension: *maxDim,
		DPI:          *dpi,
	})
	if err != nil {
		log.Fatalf("Failed to export: %v", err)
	}
	if err := os.WriteFile(*output, res.Data, 0o644); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	log.Printf("Exported %s (%dx%d, %d bytes)\n", *output, res.Width, res.Height, len(res.Data))
}

// exportFormat resolves the output format from the -format flag, falling
// back to the output filename's extension.
func exportFormat(name, output string) darkroom.Format {
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(output), ".")
	}
	switch strings.ToLower(name) {
	case "png":
		return darkroom.FormatPNG
	case "tif", "tiff":
		return darkroom.FormatTIFF
	default:
		return darkroom.FormatJPEG
	}
}
