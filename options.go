package darkroom

import "github.com/cogentcore/webgpu/wgpu"

// DefaultMaxImageDimension caps the longer edge of the source image before
// GPU upload. Larger sources are downsized aspect-preserving; the
// post-constraint size drives every later sizing decision.
const DefaultMaxImageDimension = 4096

// Option configures a Renderer during creation.
type Option func(*rendererOptions)

type rendererOptions struct {
	maxImageDim  int
	outputFormat wgpu.TextureFormat
	device       *wgpu.Device
	queue        *wgpu.Queue
}

func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		maxImageDim:  DefaultMaxImageDimension,
		outputFormat: wgpu.TextureFormatRGBA8Unorm,
	}
}

// WithMaxImageDimension overrides the source-image dimension cap.
func WithMaxImageDimension(max int) Option {
	return func(o *rendererOptions) {
		if max > 0 {
			o.maxImageDim = max
		}
	}
}

// WithOutputFormat sets the texture format of the destination surface.
// Off-screen passes always run in RGBA8; only the final write uses this
// format. Use it when presenting to a BGRA swapchain.
func WithOutputFormat(format wgpu.TextureFormat) Option {
	return func(o *rendererOptions) {
		o.outputFormat = format
	}
}

// WithDevice injects a host-owned GPU device and queue instead of letting
// the renderer create its own. The host keeps ownership: Close will not
// release the device. This is the integration point for applications that
// already hold a WebGPU device for their own rendering.
func WithDevice(device *wgpu.Device, queue *wgpu.Queue) Option {
	return func(o *rendererOptions) {
		o.device = device
		o.queue = queue
	}
}
