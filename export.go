package darkroom

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/darkroom/internal/encode"
)

// Format selects the export file format.
type Format uint8

const (
	FormatJPEG Format = iota
	FormatPNG
	FormatTIFF
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// Extension returns the conventional file extension, dot included.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatTIFF:
		return ".tif"
	default:
		return ""
	}
}

// MIME returns the format's MIME type.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return encode.MIMEJPEG
	case FormatPNG:
		return encode.MIMEPNG
	case FormatTIFF:
		return encode.MIMETIFF
	default:
		return "application/octet-stream"
	}
}

// ExportOptions controls one export.
type ExportOptions struct {
	// Format selects the output encoding.
	Format Format

	// Quality is the JPEG quality in [1, 100]. Out-of-range values
	// (including zero) fall back to the encoder default. Ignored for
	// other formats.
	Quality int

	// Scale multiplies the output dimensions. Zero or negative means 1.
	Scale float32

	// MaxDimension caps the longer output edge after scaling, aspect
	// preserving. Zero means no cap.
	MaxDimension int

	// DPI is embedded as the pixel density for formats that carry one.
	// Zero omits it.
	DPI int
}

// ExportResult is one encoded export.
type ExportResult struct {
	// Data is the complete encoded file.
	Data []byte
	// MIME is the format's MIME type.
	MIME string
	// Width and Height are the rendered pixel dimensions.
	Width  int
	Height int
}

// ErrExportSize is returned when the requested scale collapses the output
// below one pixel.
var ErrExportSize = errors.New("darkroom: export size is empty")

// ErrNoImage is returned when exporting before a source image has been
// set.
var ErrNoImage = errors.New("darkroom: no source image set")

// Export renders the state at export resolution and encodes the result.
// The export runs the exact pass sequence of a preview frame on an
// off-screen target sized from the source (and crop window) rather than
// from any preview surface, so exported pixels match what the preview
// showed at the same dimensions.
//
// Export blocks until the GPU has finished the frame and the pixels have
// been read back. It holds the renderer lock for the duration, so preview
// renders queue behind it; pending Request states survive and render
// afterwards.
func (r *Renderer) Export(state *EditState, opts ExportOptions) (*ExportResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRendererClosed
	}
	if !r.textures.HasImage() {
		return nil, ErrNoImage
	}

	srcW, srcH := r.textures.ImageSize()
	w, h := exportDims(srcW, srcH, state, opts)
	if w < 1 || h < 1 {
		return nil, ErrExportSize
	}

	target, err := r.NewTextureTarget(w, h)
	if err != nil {
		return nil, err
	}
	defer target.Release()

	if err := r.renderLocked(state, target); err != nil {
		return nil, err
	}
	pix, err := target.ReadPixels()
	if err != nil {
		return nil, err
	}

	img := &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	var data []byte
	switch opts.Format {
	case FormatJPEG:
		data, err = encode.JPEG(img, opts.Quality, opts.DPI)
	case FormatPNG:
		data, err = encode.PNG(img, opts.DPI)
	case FormatTIFF:
		data, err = encode.TIFF(img)
	default:
		err = fmt.Errorf("darkroom: export: unknown format %d", opts.Format)
	}
	if err != nil {
		return nil, err
	}

	Logger().Info("export complete",
		"format", opts.Format.String(), "width", w, "height", h, "bytes", len(data))
	return &ExportResult{Data: data, MIME: opts.Format.MIME(), Width: w, Height: h}, nil
}

// exportDims derives the output dimensions: the crop window's share of the
// source, times the scale, capped by MaxDimension.
func exportDims(srcW, srcH int, state *EditState, opts ExportOptions) (int, int) {
	fw, fh := float32(srcW), float32(srcH)
	if state.Crop.Enabled() {
		fw *= state.Crop.W
		fh *= state.Crop.H
	}
	if state.Rotation == 90 || state.Rotation == 270 {
		fw, fh = fh, fw
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	w := int(fw*scale + 0.5)
	h := int(fh*scale + 0.5)
	if opts.MaxDimension > 0 && (w > opts.MaxDimension || h > opts.MaxDimension) {
		if w >= h {
			h = max(h*opts.MaxDimension/w, 1)
			w = opts.MaxDimension
		} else {
			w = max(w*opts.MaxDimension/h, 1)
			h = opts.MaxDimension
		}
	}
	return w, h
}
