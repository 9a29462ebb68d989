// Package darkroom is a GPU-accelerated, non-destructive image-adjustment
// rendering engine.
//
// Given a decoded source image and an [EditState] describing roughly ninety
// independent adjustment parameters, a [Renderer] produces a color-graded
// raster by executing a sequence of full-screen shader passes on the GPU.
// The same pass sequence serves interactive preview and high-resolution
// export, so both produce pixel-consistent results.
//
// darkroom is a pure function from (source image, edit state, target
// resolution) to a pixel buffer. It does not persist anything, does not manage
// UI state, and does not validate parameter ranges; the surrounding
// application owns undo history, persistence, and input clamping. Cached GPU
// resources (compiled pipelines, the ping-pong framebuffer pair, the
// tone-curve LUT texture) are an optimization, never semantic state.
//
// Basic usage:
//
//	r, err := darkroom.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	if err := r.SetImage(img); err != nil {
//	    log.Fatal(err)
//	}
//
//	state := darkroom.DefaultEditState()
//	state.Exposure = 0.5
//	out, err := r.Export(&state, darkroom.ExportOptions{Format: darkroom.FormatJPEG})
//
// All GPU work for one renderer is strictly sequenced under an internal
// lock, so an export never interleaves with a preview frame.
package darkroom
